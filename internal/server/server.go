package server

import (
	"log/slog"
	"net/http"

	"github.com/GastonDalla/dallatrack/internal/session"
	"github.com/GastonDalla/dallatrack/internal/storage"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store  storage.Store
	ctrl   *session.Controller
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(store storage.Store, ctrl *session.Controller, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:  store,
		ctrl:   ctrl,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))

		r.Get("/exercises", s.handleListExercises)
		r.Get("/stats", s.handleUserStats)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/", s.handleListSessions)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Get("/summary", s.handleGetSummary)

				r.Post("/pause", s.handlePause)
				r.Post("/resume", s.handleResume)
				r.Post("/complete-set", s.handleCompleteSet)
				r.Post("/sets", s.handleAddSet)
				r.Delete("/exercises/{exerciseIndex}/sets/{setIndex}", s.handleRemoveSet)
				r.Post("/exercises", s.handleAddExercise)
				r.Delete("/exercises/{exerciseIndex}", s.handleRemoveExercise)
				r.Post("/exercises/reorder", s.handleReorderExercises)
				r.Post("/exercises/{exerciseIndex}/select", s.handleSelectExercise)
				r.Post("/finalize", s.handleFinalize)

				r.Get("/rest-timer", s.handleRestTimer)
				r.Post("/rest-timer/extend", s.handleExtendRest)
				r.Post("/rest-timer/skip", s.handleSkipRest)
			})
		})
	})
}
