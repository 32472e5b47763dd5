package http

import (
	"net/http"
	"time"

	"fullscreen-quiz-service/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// NewRouter mounts the REST API and the quiz websocket.
func NewRouter(service *app.QuizService, log logrus.FieldLogger, origins []string) http.Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	api := NewAPI(service, log)
	ws := NewWSHandler(service, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(log), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)
	r.Route("/api", func(r chi.Router) {
		r.Post("/register", api.Register)
		r.Delete("/progress", api.DiscardProgress)
		r.Get("/results", api.Results)
		r.Get("/history", api.History)
	})
	return r
}

func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Debug("http request")
		})
	}
}
