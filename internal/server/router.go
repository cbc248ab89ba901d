package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the till API under /api/v1/tills/{till_id}.
func NewRouter(handler *TillHandler, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1/tills/{till_id}", func(r chi.Router) {
		r.Post("/scan", handler.Scan)
		r.Get("/cart", handler.GetCart)
		r.Put("/cart/items/{product_id}", handler.UpdateQuantity)
		r.Delete("/cart/items/{product_id}", handler.RemoveLine)
		r.Delete("/cart", handler.ClearCart)
		r.Put("/discount", handler.SetDiscount)
		r.Post("/checkout", handler.Checkout)
	})

	return r
}
