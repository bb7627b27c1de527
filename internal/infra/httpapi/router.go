package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter wires the API routes plus static artifact serving. Frame and
// thumbnail directories are exposed read-only.
func NewRouter(h *Handler, framesDir, thumbsDir string, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/upload", h.Upload)
		r.Post("/analyze", h.Analyze)
		r.Post("/chat", h.Chat)
	})

	r.Handle("/frames/*", http.StripPrefix("/frames/", http.FileServer(http.Dir(framesDir))))
	r.Handle("/thumbs/*", http.StripPrefix("/thumbs/", http.FileServer(http.Dir(thumbsDir))))

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
