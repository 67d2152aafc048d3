package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"speechcheck/internal/database"
	"speechcheck/internal/models"
	"speechcheck/internal/repository"
	"speechcheck/internal/security"
	"speechcheck/internal/service"
	"speechcheck/internal/speech"
)

type fakeTranscriber struct {
	result *speech.Transcription
	err    error
	last   speech.Request
}

func (f *fakeTranscriber) Recognize(ctx context.Context, req speech.Request) (*speech.Transcription, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type testServer struct {
	mux         *http.ServeMux
	catalog     *service.CatalogService
	transcriber *fakeTranscriber
}

func newTestServer(t *testing.T, passwordHash string) *testServer {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := repository.NewUserRepository(db)
	targets := repository.NewTargetRepository(db)
	recognitions := repository.NewRecognitionRepository(db)

	tr := &fakeTranscriber{}
	catalogService := service.NewCatalogService(users, targets)
	recognitionService := service.NewRecognitionService(targets, recognitions, tr, service.DefaultRecognitionOptions)
	statsService := service.NewStatsService(repository.NewStatsRepository(db))
	exportService := service.NewExportService(recognitions, statsService)

	authService, err := service.NewAuthService(passwordHash, "test-secret-with-enough-length", time.Hour)
	if err != nil {
		t.Fatalf("NewAuthService() error = %v", err)
	}
	limiter := security.NewRateLimiter(100, time.Minute)
	t.Cleanup(limiter.Stop)

	mux := http.NewServeMux()
	RegisterRoutes(mux, API{
		Catalog:     NewCatalogHandler(catalogService),
		Recognition: NewRecognitionHandler(recognitionService, 1<<20),
		Results:     NewResultsHandler(recognitionService, statsService, exportService),
		Auth:        NewAuthHandler(authService),
		Middleware:  NewMiddleware(authService, limiter),
	})

	return &testServer{mux: mux, catalog: catalogService, transcriber: tr}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) doJSON(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req)
}

func (s *testServer) seed(t *testing.T) (*models.User, *models.TargetItem) {
	t.Helper()
	ctx := context.Background()
	user, err := s.catalog.CreateUser(ctx, service.NewUserInput{Username: "alice", Age: 30, Gender: models.GenderFemale})
	if err != nil {
		t.Fatal(err)
	}
	item, err := s.catalog.CreateItem(ctx, service.NewTargetItemInput{Content: "Hello, world!"})
	if err != nil {
		t.Fatal(err)
	}
	return user, item
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return body
}

func audioRequest(t *testing.T, fields map[string]string, audio []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if audio != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="audio"; filename="clip.webm"`)
		h.Set("Content-Type", "audio/webm;codecs=opus")
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(audio)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/speech-to-text", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" || body["timestamp"] == "" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestUsersCreateAndList(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.doJSON(t, http.MethodPost, "/api/users", map[string]any{"username": "bob", "age": 41, "gender": "male"})
	if rec.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	body := decodeBody(t, rec)
	users := body["users"].([]any)
	if len(users) != 1 || users[0].(map[string]any)["username"] != "bob" {
		t.Fatalf("unexpected users %v", users)
	}
}

func TestCreateUserRejectsInvalidInput(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.doJSON(t, http.MethodPost, "/api/users", map[string]any{"username": "bob", "age": 0, "gender": "male"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["kind"] != "Validation" || body["field"] != "age" {
		t.Fatalf("unexpected body %v", body)
	}

	rec = s.doJSON(t, http.MethodPost, "/api/users", map[string]any{"username": "bob", "age": 20, "gender": "male", "admin": true})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: expected 400, got %d", rec.Code)
	}
}

func TestSentencesFilterAndDelete(t *testing.T) {
	s := newTestServer(t, "")

	for _, in := range []map[string]any{
		{"content": "The cat sat.", "type": "sentence", "level": "A", "set_number": 1},
		{"content": "apple", "type": "word", "level": "A", "set_number": 2},
	} {
		if rec := s.doJSON(t, http.MethodPost, "/api/sentences", in); rec.Code != http.StatusOK {
			t.Fatalf("create: expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/sentences?type=word", nil))
	sentences := decodeBody(t, rec)["sentences"].([]any)
	if len(sentences) != 1 {
		t.Fatalf("expected 1 word, got %d", len(sentences))
	}
	id := int64(sentences[0].(map[string]any)["id"].(float64))

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/sentences?set=x", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad set: expected 400, got %d", rec.Code)
	}

	rec = s.do(t, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/sentences/%d", id), nil))
	if rec.Code != http.StatusOK || decodeBody(t, rec)["message"] != "Sentence deleted successfully" {
		t.Fatalf("delete: unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/sentences/abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", rec.Code)
	}
}

func TestSpeechToTextScoresTranscription(t *testing.T) {
	s := newTestServer(t, "")
	user, item := s.seed(t)
	s.transcriber.result = &speech.Transcription{Transcript: "hello world", Confidence: 0.92}

	rec := s.do(t, audioRequest(t, map[string]string{
		"userId":           user.ID,
		"targetSentenceId": fmt.Sprint(item.ID),
		"punctuation":      "false",
	}, []byte("fake-audio")))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeBody(t, rec)["result"].(map[string]any)
	if result["isCorrect"] != true || result["targetText"] != "Hello, world!" {
		t.Fatalf("unexpected result %v", result)
	}
	if s.transcriber.last.Punctuation {
		t.Fatal("expected punctuation to be disabled")
	}
	if !s.transcriber.last.Enhanced {
		t.Fatal("expected enhanced to keep its default")
	}
	if s.transcriber.last.Encoding != speech.EncodingWebMOpus {
		t.Fatalf("unexpected encoding %q", s.transcriber.last.Encoding)
	}
}

func TestSpeechToTextErrors(t *testing.T) {
	s := newTestServer(t, "")
	user, item := s.seed(t)

	rec := s.do(t, audioRequest(t, map[string]string{"userId": user.ID, "targetSentenceId": fmt.Sprint(item.ID)}, nil))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "No audio file provided") {
		t.Fatalf("missing audio: unexpected %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, audioRequest(t, map[string]string{"userId": user.ID, "targetSentenceId": "9999"}, []byte("x")))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown target: expected 404, got %d", rec.Code)
	}

	s.transcriber.err = &speech.APIError{StatusCode: 400, Message: "bad audio"}
	rec = s.do(t, audioRequest(t, map[string]string{"userId": user.ID, "targetSentenceId": fmt.Sprint(item.ID)}, []byte("x")))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("provider error: expected 502, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Google API Error: bad audio" {
		t.Fatalf("unexpected error body %v", body)
	}
}

func TestWebSpeechAcceptsStringID(t *testing.T) {
	s := newTestServer(t, "")
	user, item := s.seed(t)

	rec := s.doJSON(t, http.MethodPost, "/api/speech-to-text/web", map[string]any{
		"userId":           user.ID,
		"targetSentenceId": fmt.Sprint(item.ID),
		"recognizedText":   "hello there",
		"confidence":       0.5,
		"targetText":       "ignored",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeBody(t, rec)["result"].(map[string]any)
	if result["isCorrect"] != false || result["targetText"] != "Hello, world!" {
		t.Fatalf("unexpected result %v", result)
	}
}

func TestResultsStatsAndExport(t *testing.T) {
	s := newTestServer(t, "")
	user, item := s.seed(t)
	for _, text := range []string{"hello world", "yellow world"} {
		rec := s.doJSON(t, http.MethodPost, "/api/speech-to-text/web", map[string]any{
			"userId": user.ID, "targetSentenceId": item.ID, "recognizedText": text, "confidence": 0.8,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
		}
	}

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/results?limit=1&userId="+user.ID, nil))
	if results := decodeBody(t, rec)["results"].([]any); len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	for _, q := range []string{"limit=0", "limit=abc", "sentenceId=x"} {
		rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/results?"+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, rec.Code)
		}
	}

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/stats?groupBy=user", nil))
	stats := decodeBody(t, rec)["stats"].([]any)
	if len(stats) != 1 || stats[0].(map[string]any)["accuracy_rate"] != 0.5 {
		t.Fatalf("unexpected stats %v", stats)
	}

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/stats?groupBy=week", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad groupBy: expected 400, got %d", rec.Code)
	}

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/export/csv?type=results", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="stt-data-results-`) {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n"); len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(lines))
	}
}

func TestOperatorAuth(t *testing.T) {
	hash, err := security.HashPassword("letmein")
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, hash)

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health should stay public, got %d", rec.Code)
	}

	rec = s.doJSON(t, http.MethodPost, "/api/login", map[string]string{"password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", rec.Code)
	}

	rec = s.doJSON(t, http.MethodPost, "/api/login", map[string]string{"password": "letmein"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rec.Code)
	}
	token := decodeBody(t, rec)["token"].(string)
	if len(rec.Result().Cookies()) == 0 {
		t.Fatal("expected operator cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if rec = s.do(t, req); rec.Code != http.StatusOK {
		t.Fatalf("bearer: expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.AddCookie(&http.Cookie{Name: security.OperatorCookieName, Value: token})
	if rec = s.do(t, req); rec.Code != http.StatusOK {
		t.Fatalf("cookie: expected 200, got %d", rec.Code)
	}
}

func TestLoginDisabledWithoutPassword(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.doJSON(t, http.MethodPost, "/api/login", map[string]string{"password": "x"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
