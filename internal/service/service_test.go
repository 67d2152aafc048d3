package service

import (
	"context"
	"path/filepath"
	"testing"

	"speechcheck/internal/database"
	"speechcheck/internal/models"
	"speechcheck/internal/repository"
	"speechcheck/internal/speech"
)

// fakeTranscriber returns a canned transcription or error and records requests
type fakeTranscriber struct {
	result   *speech.Transcription
	err      error
	requests []speech.Request
}

func (f *fakeTranscriber) Recognize(ctx context.Context, req speech.Request) (*speech.Transcription, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type testEnv struct {
	db           *database.DB
	users        *repository.UserRepository
	targets      *repository.TargetRepository
	recognitions *repository.RecognitionRepository
	catalog      *CatalogService
	stats        *StatsService
	export       *ExportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:           db,
		users:        repository.NewUserRepository(db),
		targets:      repository.NewTargetRepository(db),
		recognitions: repository.NewRecognitionRepository(db),
	}
	env.catalog = NewCatalogService(env.users, env.targets)
	env.stats = NewStatsService(repository.NewStatsRepository(db))
	env.export = NewExportService(env.recognitions, env.stats)
	return env
}

func (e *testEnv) recognitionService(tr speech.Transcriber) *RecognitionService {
	return NewRecognitionService(e.targets, e.recognitions, tr, DefaultRecognitionOptions)
}

func (e *testEnv) createItem(t *testing.T, content string) *models.TargetItem {
	t.Helper()
	item, err := e.catalog.CreateItem(context.Background(), NewTargetItemInput{Content: content})
	if err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}
	return item
}

func (e *testEnv) createUser(t *testing.T, name string) *models.User {
	t.Helper()
	user, err := e.catalog.CreateUser(context.Background(), NewUserInput{Username: name, Age: 30, Gender: models.GenderOther})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return user
}

func (e *testEnv) rowCounts(t *testing.T) (int, int) {
	t.Helper()
	ctx := context.Background()
	sessions, err := e.recognitions.CountSessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	results, err := e.recognitions.CountResults(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return sessions, results
}
