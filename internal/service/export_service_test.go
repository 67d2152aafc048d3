package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExportFilename(t *testing.T) {
	at := time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC)
	if got := ExportFilename("results", at); got != "stt-data-results-2026-10-18.csv" {
		t.Errorf("ExportFilename() = %q", got)
	}
}

func TestExportResultsCSV(t *testing.T) {
	env := newTestEnv(t)
	item := env.createItem(t, `Say "cheese", please`)
	user := env.createUser(t, "alice")
	svc := env.recognitionService(nil)
	submitN(t, svc, user.ID, item.ID, "say cheese please", 1)
	submitN(t, svc, "ghost", item.ID, "nope", 1)

	data, err := env.export.ExportCSV(context.Background(), ExportResults)
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != "Timestamp,Username,Age,Gender,Target Text,Recognized Text,Confidence,Is Correct,Processing Time (ms)" {
		t.Errorf("header = %v", records[0])
	}

	var found bool
	for _, rec := range records[1:] {
		if rec[1] == "alice" {
			found = true
			if rec[2] != "30" || rec[4] != `Say "cheese", please` || rec[7] != "true" {
				t.Errorf("alice row = %v", rec)
			}
		}
		if rec[1] == "" && rec[2] != "" {
			t.Errorf("unknown user row should have empty age, got %v", rec)
		}
	}
	if !found {
		t.Error("alice row missing")
	}
}

func TestExportStatsCSV(t *testing.T) {
	env := newTestEnv(t)
	env.createItem(t, "Hello world")

	data, err := env.export.ExportCSV(context.Background(), ExportStats)
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(records))
	}
	want := []string{"Hello world", "sentence", "B", "1", "0", "0", "0", "0", "[]"}
	if strings.Join(records[1], "|") != strings.Join(want, "|") {
		t.Errorf("row = %v, want %v", records[1], want)
	}
}

func TestExportUnknownType(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.export.ExportCSV(context.Background(), "pdf"); !errors.Is(err, ErrValidation) {
		t.Errorf("error = %v, want validation", err)
	}
}
