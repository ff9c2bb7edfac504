// Route registration and go-chi router setup.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/matiasleandrokruk/charla/internal/api/handlers"
)

// NewRouter creates and configures a chi router with all gateway routes.
func NewRouter(chatService handlers.ChatService) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check — reports readiness independent of provider configuration,
	// used by load balancers and health probes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	chatHandler := handlers.NewChatHandler(chatService)
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", chatHandler.Chat) // POST /api/chat
	})

	return r
}
