package handlers

import (
	"net/http"
	"os"
	"path/filepath"
)

// API groups the handlers mounted under /api
type API struct {
	Catalog     *CatalogHandler
	Recognition *RecognitionHandler
	Results     *ResultsHandler
	Auth        *AuthHandler
	Middleware  *Middleware
}

// RegisterRoutes mounts the API on mux
func RegisterRoutes(mux *http.ServeMux, api API) {
	m := api.Middleware

	mux.HandleFunc("GET /api/health", Health)

	// Operator auth
	mux.HandleFunc("POST /api/login", m.RateLimit(api.Auth.Login))
	mux.HandleFunc("POST /api/logout", api.Auth.Logout)

	// Participants and target items
	mux.HandleFunc("GET /api/users", m.RequireOperator(api.Catalog.ListUsers))
	mux.HandleFunc("POST /api/users", m.RequireOperator(api.Catalog.CreateUser))
	mux.HandleFunc("GET /api/sentences", m.RequireOperator(api.Catalog.ListSentences))
	mux.HandleFunc("POST /api/sentences", m.RequireOperator(api.Catalog.CreateSentence))
	mux.HandleFunc("DELETE /api/sentences/{id}", m.RequireOperator(api.Catalog.DeleteSentence))

	// Recognition
	mux.HandleFunc("POST /api/speech-to-text", m.RequireOperator(api.Recognition.SpeechToText))
	mux.HandleFunc("POST /api/speech-to-text/web", m.RequireOperator(api.Recognition.WebSpeech))

	// Results and analytics
	mux.HandleFunc("GET /api/results", m.RequireOperator(api.Results.ListResults))
	mux.HandleFunc("GET /api/stats", m.RequireOperator(api.Results.Stats))
	mux.HandleFunc("GET /api/export/csv", m.RequireOperator(api.Results.ExportCSV))
}

// RegisterStatic serves the browser client from dir, with index.html at /
func RegisterStatic(mux *http.ServeMux, dir string) {
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(dir))))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
	})
}
