package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"minitwit/internal/handler"
	"minitwit/internal/httputil"
	authmw "minitwit/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler     *handler.AuthHandler
	TimelineHandler *handler.TimelineHandler
	FollowHandler   *handler.FollowHandler
	MessageHandler  *handler.MessageHandler
	JWTSecret       string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/auth/refresh", cfg.AuthHandler.Refresh)
	r.Post("/logout", cfg.AuthHandler.Logout)

	// Optional authentication: anonymous callers are served too
	r.Group(func(r chi.Router) {
		r.Use(authmw.OptionalAuthMiddleware(cfg.JWTSecret))

		r.Get("/", cfg.TimelineHandler.Timeline)
		r.Get("/public", cfg.TimelineHandler.Public)
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Get("/{username}", cfg.TimelineHandler.User)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Post("/add_message", cfg.MessageHandler.AddMessage)
		r.Post("/{username}/follow", cfg.FollowHandler.Follow)
		r.Post("/{username}/unfollow", cfg.FollowHandler.Unfollow)
	})

	return r
}
