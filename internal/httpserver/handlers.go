package httpserver

import (
	"context"
	"net/http"
	"time"

	authdomain "eventboard/backend/internal/domain/auth"
	categoryusecase "eventboard/backend/internal/usecase/category"
	eventusecase "eventboard/backend/internal/usecase/event"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(withRequestID)
	r.Use(instrument(s.logger, s.metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	authenticated := RequireAuthenticated(s.services.Auth, s.logger)
	adminOnly := RequireRole(authdomain.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.handleIndex)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.With(authenticated).Get("/me", s.handleMe)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Group(func(r chi.Router) {
				r.Use(authenticated, adminOnly)
				r.Post("/", s.handleCreateCategory)
				r.Delete("/{id}", s.handleDeleteCategory)
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/public", s.handleListPublicEvents)
			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Get("/", s.handleListEvents)
				r.Post("/", s.handleCreateEvent)
				r.Delete("/{id}", s.handleDeleteEvent)
				r.With(adminOnly).Post("/{id}/approve", s.handleApproveEvent)
			})
		})
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "eventboard API"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "memory"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		s.logger.WithError(err).Warn("database ping failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p credentialsPayload) credentials() authdomain.Credentials {
	return authdomain.Credentials{Email: p.Email, Password: p.Password}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	session, err := s.services.Auth.Register(r.Context(), payload.credentials())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	session, err := s.services.Auth.Login(r.Context(), payload.credentials())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"user": identity})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := s.services.Categories.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryusecase.CreateInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	item, err := s.services.Categories.Create(r.Context(), payload)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.services.Categories.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleListPublicEvents(w http.ResponseWriter, r *http.Request) {
	items, err := s.services.Events.ListPublic(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	items, err := s.services.Events.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var payload eventusecase.CreateInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	identity, _ := IdentityFromContext(r.Context())
	item, err := s.services.Events.Create(r.Context(), identity, payload)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	identity, _ := IdentityFromContext(r.Context())
	if err := s.services.Events.Delete(r.Context(), identity, id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleApproveEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.services.Events.Approve(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
