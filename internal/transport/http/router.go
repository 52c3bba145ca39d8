package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"knowledge-quiz/internal/app"
)

// Deps are the collaborators shared by every handler.
type Deps struct {
	Players   app.PlayerStore
	Questions app.QuestionSource
	Logger    *zap.Logger
}

// NewRouter wires the REST API, the websocket endpoint and health checks.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(middleware.Recoverer)

	api := NewAPIHandler(d.Players, d.Questions, d.Logger)
	ws := NewWSHandler(d.Questions, d.Players, d.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws/play", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", api.handleCategories)
		r.Get("/questions", api.handleQuestions)
		r.Get("/players", api.handleListPlayers)
		r.Post("/players", api.handleCreatePlayer)
		r.Put("/players", api.handleUpdatePlayer)
		r.Get("/players/{id}/rank", api.handlePlayerRank)
	})
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
