package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"speechcheck/internal/models"
	"speechcheck/internal/repository"
)

// Export types
const (
	ExportResults = "results"
	ExportStats   = "stats"
)

var (
	resultsHeader = []string{"Timestamp", "Username", "Age", "Gender", "Target Text", "Recognized Text", "Confidence", "Is Correct", "Processing Time (ms)"}
	statsHeader   = []string{"Content", "Type", "Level", "Set", "Total Attempts", "Correct Count", "Accuracy Rate", "Avg Confidence", "Expected Variations"}
)

// ExportService renders results and statistics as CSV
type ExportService struct {
	recognitionRepo *repository.RecognitionRepository
	statsService    *StatsService
}

// NewExportService creates a new export service
func NewExportService(recognitionRepo *repository.RecognitionRepository, statsService *StatsService) *ExportService {
	return &ExportService{
		recognitionRepo: recognitionRepo,
		statsService:    statsService,
	}
}

// ExportFilename returns the download name for an export made at now
func ExportFilename(exportType string, now time.Time) string {
	return fmt.Sprintf("stt-data-%s-%s.csv", exportType, now.UTC().Format("2006-01-02"))
}

// ExportCSV renders the requested export. An empty type means results.
func (s *ExportService) ExportCSV(ctx context.Context, exportType string) ([]byte, error) {
	switch exportType {
	case "", ExportResults:
		return s.resultsCSV(ctx)
	case ExportStats:
		return s.statsCSV(ctx)
	default:
		return nil, invalidField("type", "type must be results or stats")
	}
}

func (s *ExportService) resultsCSV(ctx context.Context) ([]byte, error) {
	rows, err := s.recognitionRepo.ListResults(ctx, models.ResultFilter{})
	if err != nil {
		return nil, persistenceError(err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(resultsHeader)
	for _, row := range rows {
		age := ""
		if row.Age != nil {
			age = strconv.Itoa(*row.Age)
		}
		w.Write([]string{
			row.CreatedAt.UTC().Format(time.RFC3339),
			deref(row.Username),
			age,
			deref(row.Gender),
			row.TargetText,
			row.RecognizedText,
			formatFloat(row.ConfidenceScore),
			strconv.FormatBool(row.IsCorrect),
			strconv.FormatInt(row.ProcessingTime, 10),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write results csv: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *ExportService) statsCSV(ctx context.Context) ([]byte, error) {
	stats, err := s.statsService.BySentence(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(statsHeader)
	for _, st := range stats {
		variations, err := json.Marshal(st.ExpectedVariations)
		if err != nil {
			return nil, fmt.Errorf("failed to encode variations: %w", err)
		}
		w.Write([]string{
			st.Content,
			st.Type,
			st.Level,
			strconv.Itoa(st.SetNumber),
			strconv.Itoa(st.TotalAttempts),
			strconv.Itoa(st.CorrectCount),
			formatFloat(st.AccuracyRate),
			formatFloat(st.AvgConfidence),
			string(variations),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write stats csv: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
