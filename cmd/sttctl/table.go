package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"speechcheck/internal/models"
)

const maxCellWidth = 40

// table renders rows with columns aligned by display width, so CJK and
// accented target text lines up in a terminal
type table struct {
	header []string
	rows   [][]string
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) {
	widths := make([]int, len(t.header))
	measure := func(cells []string) {
		for i, cell := range cells {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = min(cw, maxCellWidth)
			}
		}
	}
	measure(t.header)
	for _, row := range t.rows {
		measure(row)
	}

	line := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			cell = runewidth.Truncate(cell, widths[i], "…")
			parts[i] = runewidth.FillRight(cell, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	line(t.header)
	sep := make([]string, len(widths))
	for i, width := range widths {
		sep[i] = strings.Repeat("-", width)
	}
	line(sep)
	for _, row := range t.rows {
		line(row)
	}
}

func percent(f float64) string {
	return strconv.FormatFloat(f*100, 'f', 1, 64) + "%"
}

func confidence(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func metricCells(m models.Metrics) []string {
	return []string{
		strconv.Itoa(m.TotalAttempts),
		strconv.Itoa(m.CorrectCount),
		percent(m.AccuracyRate),
		confidence(m.AvgConfidence),
	}
}

// renderStats prints one of the stats groupings as a table
func renderStats(w io.Writer, stats any) {
	metricHeader := []string{"Attempts", "Correct", "Accuracy", "Avg Conf"}

	var t table
	switch s := stats.(type) {
	case []models.SentenceStats:
		t.header = append([]string{"ID", "Content", "Type", "Level", "Set", "Users"}, metricHeader...)
		for _, row := range s {
			t.add(append([]string{
				strconv.FormatInt(row.ID, 10), row.Content, row.Type, row.Level,
				strconv.Itoa(row.SetNumber), strconv.Itoa(row.UserCount),
			}, metricCells(row.Metrics)...)...)
		}
	case []models.UserStats:
		t.header = append([]string{"Username", "Age", "Gender"}, metricHeader...)
		for _, row := range s {
			t.add(append([]string{row.Username, strconv.Itoa(row.Age), row.Gender}, metricCells(row.Metrics)...)...)
		}
	case []models.HourStats:
		t.header = append([]string{"Hour (UTC)"}, metricHeader...)
		for _, row := range s {
			t.add(append([]string{fmt.Sprintf("%02d:00", row.Hour)}, metricCells(row.Metrics)...)...)
		}
	default:
		fmt.Fprintf(w, "unsupported stats type %T\n", stats)
		return
	}

	if len(t.rows) == 0 {
		fmt.Fprintln(w, "no data")
		return
	}
	t.render(w)
}
