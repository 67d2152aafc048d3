package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"speechcheck/internal/models"
	"speechcheck/internal/service"
)

// CatalogHandler handles participant and target item endpoints
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListUsers returns every participant, newest first
func (h *CatalogHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.catalogService.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, "Failed to list users", err)
		return
	}
	if users == nil {
		users = []models.User{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "users": users})
}

// CreateUser registers a participant
func (h *CatalogHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in service.NewUserInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := h.catalogService.CreateUser(r.Context(), in)
	if err != nil {
		respondServiceError(w, "Failed to create user", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

// ListSentences returns target items, optionally filtered by type, level and set
func (h *CatalogHandler) ListSentences(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.TargetItemFilter{
		Type:  query.Get("type"),
		Level: query.Get("level"),
	}
	if set := query.Get("set"); set != "" {
		n, err := strconv.Atoi(set)
		if err != nil {
			respondBadRequest(w, "set", "set must be a number")
			return
		}
		filter.SetNumber = n
	}

	items, err := h.catalogService.ListItems(r.Context(), filter)
	if err != nil {
		respondServiceError(w, "Failed to list sentences", err)
		return
	}
	if items == nil {
		items = []models.TargetItem{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "sentences": items})
}

// CreateSentence adds a target item
func (h *CatalogHandler) CreateSentence(w http.ResponseWriter, r *http.Request) {
	var in service.NewTargetItemInput
	if !decodeJSON(w, r, &in) {
		return
	}

	item, err := h.catalogService.CreateItem(r.Context(), in)
	if err != nil {
		respondServiceError(w, "Failed to create sentence", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "sentence": item})
}

// DeleteSentence removes a target item; its recorded sessions are kept
func (h *CatalogHandler) DeleteSentence(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondBadRequest(w, "id", "Invalid sentence ID")
		return
	}

	if err := h.catalogService.DeleteItem(r.Context(), id); err != nil {
		respondServiceError(w, "Failed to delete sentence", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Sentence deleted successfully"})
}

// decodeJSON reads a JSON body, rejecting unknown fields. It writes the
// error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Kind:  string(service.KindValidation),
			Error: ErrInvalidJSON + ": " + err.Error(),
		})
		return false
	}
	return true
}

func respondBadRequest(w http.ResponseWriter, field, message string) {
	respondJSON(w, http.StatusBadRequest, errorResponse{
		Kind:  string(service.KindValidation),
		Field: field,
		Error: message,
	})
}
