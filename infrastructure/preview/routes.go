package preview

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"video-labeler/application/report"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Dir       string `json:"dir"`
	HasReport bool   `json:"hasReport"`
}

// NewRouter wires the health endpoint, the raw report JSON and the static report files
func NewRouter(cfg ServerConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(logger))

	r.Get("/health", healthHandler(cfg.Dir))
	r.Get("/api/records", recordsHandler(cfg.Dir))
	r.Handle("/*", http.FileServer(http.Dir(cfg.Dir)))

	return r
}

func healthHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := os.Stat(filepath.Join(dir, report.HTMLFilename))
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Dir:       dir,
			HasReport: err == nil,
		})
	}
}

func recordsHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := os.ReadFile(filepath.Join(dir, report.JSONFilename))
		if err != nil {
			http.Error(w, "report not generated", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
