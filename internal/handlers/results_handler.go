package handlers

import (
	"net/http"
	"strconv"
	"time"

	"speechcheck/internal/models"
	"speechcheck/internal/service"
	"speechcheck/internal/validation"
)

// ResultsHandler serves recorded results, statistics and CSV exports
type ResultsHandler struct {
	recognitionService *service.RecognitionService
	statsService       *service.StatsService
	exportService      *service.ExportService
	now                func() time.Time
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(recognitionService *service.RecognitionService, statsService *service.StatsService, exportService *service.ExportService) *ResultsHandler {
	return &ResultsHandler{
		recognitionService: recognitionService,
		statsService:       statsService,
		exportService:      exportService,
		now:                time.Now,
	}
}

// ListResults returns recent results joined with participant and item data
func (h *ResultsHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.ResultFilter{
		UserID: query.Get("userId"),
		Limit:  models.DefaultResultLimit,
	}

	if v := query.Get("sentenceId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondBadRequest(w, "sentenceId", "sentenceId must be a number")
			return
		}
		filter.SentenceID = id
	}

	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			respondBadRequest(w, "limit", "limit must be a number")
			return
		}
		if err := validation.ValidateLimit(limit); err != nil {
			respondBadRequest(w, "limit", err.(validation.ValidationError).Message)
			return
		}
		filter.Limit = limit
	}

	results, err := h.recognitionService.ListResults(r.Context(), filter)
	if err != nil {
		respondServiceError(w, "Failed to list results", err)
		return
	}
	if results == nil {
		results = []models.ResultRow{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "results": results})
}

// Stats returns accuracy summaries grouped by sentence, user or hour
func (h *ResultsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.GetStats(r.Context(), r.URL.Query().Get("groupBy"))
	if err != nil {
		respondServiceError(w, "Failed to compute stats", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "stats": stats})
}

// ExportCSV streams results or stats as a CSV attachment
func (h *ResultsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	exportType := r.URL.Query().Get("type")
	if exportType == "" {
		exportType = service.ExportResults
	}

	data, err := h.exportService.ExportCSV(r.Context(), exportType)
	if err != nil {
		respondServiceError(w, "Failed to export CSV", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+service.ExportFilename(exportType, h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
