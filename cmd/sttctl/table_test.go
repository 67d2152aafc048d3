package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"speechcheck/internal/models"
)

func TestRenderStatsAlignsWideRunes(t *testing.T) {
	var buf bytes.Buffer
	renderStats(&buf, []models.UserStats{
		{Username: "alice", Age: 30, Gender: "female", Metrics: models.Metrics{TotalAttempts: 10, CorrectCount: 7, AccuracyRate: 0.7, AvgConfidence: 0.9}},
		{Username: "山田", Age: 41, Gender: "male", Metrics: models.Metrics{TotalAttempts: 2}},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator and 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[2], "70.0%") {
		t.Fatalf("expected accuracy as percent, got %q", lines[2])
	}

	ageCol := strings.Index(lines[0], "Age")
	for _, line := range lines[2:] {
		prefix := line[:strings.IndexAny(line, "34")]
		if runewidth.StringWidth(prefix) != runewidth.StringWidth(lines[0][:ageCol]) {
			t.Fatalf("age column misaligned in %q", line)
		}
	}
}

func TestRenderStatsEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderStats(&buf, []models.HourStats{})

	if strings.TrimSpace(buf.String()) != "no data" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestTableTruncatesLongCells(t *testing.T) {
	var buf bytes.Buffer
	tbl := table{header: []string{"Content"}}
	tbl.add(strings.Repeat("x", 100))
	tbl.render(&buf)

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if w := runewidth.StringWidth(line); w > maxCellWidth {
			t.Fatalf("line wider than %d: %d", maxCellWidth, w)
		}
	}
}

func TestHashPasswordCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("correct-horse\n"))
	cmd.SetArgs([]string{"hash-password"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "$2") {
		t.Fatalf("expected bcrypt hash, got %q", out.String())
	}
}

func TestHashPasswordRejectsWeakPassword(t *testing.T) {
	for _, input := range []string{"\n", "short\n"} {
		cmd := newRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetIn(strings.NewReader(input))
		cmd.SetArgs([]string{"hash-password"})

		err := cmd.Execute()
		if err == nil || !strings.Contains(err.Error(), "password") {
			t.Fatalf("input %q: expected password validation error, got %v", input, err)
		}
		if strings.Contains(out.String(), "$2") {
			t.Fatalf("input %q: hash printed for rejected password", input)
		}
	}
}

func TestExportRejectsInvalidEmail(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("DB_PATH", dir+"/export.db")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"export", "--email", "not-an-address"})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "invalid email format") {
		t.Fatalf("expected email validation error, got %v", err)
	}
	if _, statErr := os.Stat(dir + "/export.db"); !os.IsNotExist(statErr) {
		t.Fatalf("database opened before the address was checked: %v", statErr)
	}
}

func TestSeedAndStatsCommands(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("DB_PATH", dir+"/cli.db")

	bank := dir + "/bank.toml"
	writeFile(t, bank, `
[[set]]
level = "A"
number = 1
type = "sentence"

  [[set.item]]
  content = "The cat sat on the mat."
`)

	run := func(args ...string) string {
		cmd := newRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		if err := cmd.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}

	if out := run("seed", bank); !strings.Contains(out, "seeded 1 items") {
		t.Fatalf("unexpected seed output %q", out)
	}
	if out := run("seed", "--if-empty", bank); !strings.Contains(out, "nothing seeded") {
		t.Fatalf("expected second seed to be skipped, got %q", out)
	}
	if out := run("stats"); !strings.Contains(out, "The cat sat on the mat.") {
		t.Fatalf("unexpected stats output %q", out)
	}
}
