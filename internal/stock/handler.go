package stock

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/domain"
	"github.com/go-chi/chi/v5"
)

// Handler serves the collaborator contract the tills consume:
// GET /products/barcode/{code} and POST /sales.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

type errorResponse struct {
	Error                 string   `json:"error"`
	ConflictingProductIDs []string `json:"conflicting_product_ids,omitempty"`
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/products/barcode/{code}", h.GetProductByBarcode)
	r.Post("/sales", h.CreateSale)
}

func (h *Handler) GetProductByBarcode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	product, err := h.store.ProductByBarcode(r.Context(), code)
	if errors.Is(err, ErrProductNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "product not found"})
		return
	}
	if err != nil {
		log.Printf("product lookup failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req domain.SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	sale, err := h.store.CreateSale(r.Context(), &req)
	if err != nil {
		var conflict *ConflictError
		switch {
		case errors.As(err, &conflict):
			writeJSON(w, http.StatusConflict, errorResponse{
				Error:                 "insufficient stock",
				ConflictingProductIDs: conflict.ProductIDs,
			})
		case errors.Is(err, ErrEmptySale), errors.Is(err, ErrInvalidPayment), errors.Is(err, ErrInvalidQuantity):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			log.Printf("sale commit failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, sale)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
