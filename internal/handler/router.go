package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter builds the service router with the global middleware stack.
func NewRouter(log *zap.Logger, events *EventHandler, collectibles *CollectibleHandler, rewards *RewardHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(AccessLog(log))          // structured access log
	r.Use(CORS)                    // permissive CORS
	r.Use(WithPrincipal)           // authorized principal into context

	r.Get("/health", HealthCheck)

	r.Route("/events", func(r chi.Router) {
		events.Routes(r)
		r.Get("/{id}/collectibles", collectibles.EventNFTs)
	})
	r.Get("/users/{principal}/tickets", events.GetUserTickets)
	r.Get("/owners/{principal}/collectibles", collectibles.TokensOfOwner)

	r.Route("/collectibles", collectibles.Routes)
	r.Route("/rewards", rewards.Routes)

	return r
}
