package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs a chi router with all API endpoints registered.
func NewRouter(h *HandlerProvider) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/session", h.LoginHandler)
	r.Get("/users/{username}", h.GetUserHandler)
	r.Get("/listings", h.ListListingsHandler)

	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)

		r.Delete("/session", h.LogoutHandler)
		r.Post("/users", h.CreateUserHandler)
		r.Delete("/users/{username}", h.DeleteUserHandler)
		r.Post("/credits", h.AddCreditHandler)
		r.Post("/listings", h.SellHandler)
		r.Post("/purchases", h.BuyHandler)
		r.Post("/gifts", h.GiftHandler)
		r.Delete("/games/{game}", h.RemoveGameHandler)
		r.Post("/refunds", h.RefundHandler)
		r.Post("/auction-sale", h.AuctionSaleHandler)
	})

	return r
}
