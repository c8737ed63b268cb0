package handlers

import (
	"net/http"

	"sporture-backend/internal/middleware"
	"sporture-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig holds everything the HTTP surface is built from
type RouterConfig struct {
	UserService     *services.UserService
	EventService    *services.EventService
	FeedbackService *services.FeedbackService
	ReminderService *services.ReminderService
	Hub             *services.WSHub

	CORSOrigin string
	// UploadsDir and UploadsPrefix serve locally stored photos. Empty dir disables it.
	UploadsDir    string
	UploadsPrefix string
	RequestLog    bool
}

// NewRouter builds the chi router with all API routes
func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.UserService)
	eventHandler := NewEventHandler(cfg.EventService)
	userHandler := NewUserHandler(cfg.UserService)
	feedbackHandler := NewFeedbackHandler(cfg.FeedbackService)
	reminderHandler := NewReminderHandler(cfg.ReminderService)
	wsHandler := NewWebSocketHandler(cfg.Hub, cfg.UserService, cfg.CORSOrigin)

	requireAuth := middleware.AuthMiddleware(cfg.UserService)

	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	if cfg.RequestLog {
		r.Use(chiMiddleware.Logger)
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware(cfg.CORSOrigin))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
				r.Put("/push-token", authHandler.SetPushToken)
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", eventHandler.ListEvents)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", eventHandler.CreateEvent)
				r.Get("/joined", eventHandler.JoinedEvents)
				r.Post("/{id}/join", eventHandler.JoinEvent)
			})

			r.Get("/{id}", eventHandler.GetEvent)
		})

		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/", userHandler.GetUser)
			r.Put("/", userHandler.UpdateUser)
			r.Post("/upload-photo", userHandler.UploadPhoto)
		})

		r.Route("/feedback", func(r chi.Router) {
			r.Get("/", feedbackHandler.ListFeedback)
			r.Post("/", feedbackHandler.CreateFeedback)
			r.Delete("/{id}", feedbackHandler.DeleteFeedback)
		})

		r.With(requireAuth).Get("/reminders", reminderHandler.ListReminders)
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	if cfg.UploadsDir != "" && cfg.UploadsPrefix != "" {
		fs := http.StripPrefix(cfg.UploadsPrefix+"/", http.FileServer(http.Dir(cfg.UploadsDir)))
		r.Get(cfg.UploadsPrefix+"/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			fs.ServeHTTP(w, r)
		})
	}

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
