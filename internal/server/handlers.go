package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/cart"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/catalog"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/checkout"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/domain"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/pos"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/pricing"
	"github.com/go-chi/chi/v5"
)

// TillHandler exposes one till's cart and checkout operations over HTTP.
type TillHandler struct {
	registry *pos.Registry
}

func NewTillHandler(registry *pos.Registry) *TillHandler {
	return &TillHandler{registry: registry}
}

type ScanRequestDTO struct {
	Barcode string `json:"barcode"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type DiscountRequestDTO struct {
	Discount string `json:"discount"`
}

type CheckoutRequestDTO struct {
	PaymentMethod string `json:"payment_method"`
}

type LineDTO struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Brand     string `json:"brand"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type CartResponseDTO struct {
	Lines       []LineDTO `json:"lines"`
	Subtotal    string    `json:"subtotal"`
	Discount    string    `json:"discount"`
	FinalAmount string    `json:"final_amount"`
}

type ErrorResponse struct {
	Error      string   `json:"error"`
	Code       string   `json:"code,omitempty"`
	ProductIDs []string `json:"product_ids,omitempty"`
}

func (h *TillHandler) Scan(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)

	var req ScanRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Barcode == "" {
		respondError(w, http.StatusBadRequest, "invalid_barcode", "barcode must not be empty")
		return
	}

	if _, err := session.Scan(r.Context(), req.Barcode); err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(session))
}

func (h *TillHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, cartResponse(h.session(r)))
}

func (h *TillHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	productID := chi.URLParam(r, "product_id")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// Zero and negative quantities remove the line, same as the delete route.
	if _, err := session.SetQuantity(productID, req.Quantity); err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(session))
}

func (h *TillHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	session.Remove(chi.URLParam(r, "product_id"))
	respondJSON(w, http.StatusOK, cartResponse(session))
}

func (h *TillHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	session.Clear()
	respondJSON(w, http.StatusOK, cartResponse(session))
}

func (h *TillHandler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)

	var req DiscountRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	discount, err := domain.ParseMoney(req.Discount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_discount", "discount must be a decimal amount")
		return
	}
	if err := session.SetDiscount(discount); err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(session))
}

func (h *TillHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sale, err := session.Checkout(r.Context(), domain.PaymentMethod(req.PaymentMethod))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, sale)
}

func (h *TillHandler) session(r *http.Request) *pos.Session {
	return h.registry.Session(chi.URLParam(r, "till_id"))
}

func cartResponse(session *pos.Session) CartResponseDTO {
	lines := session.Lines()
	totals := session.Totals()

	dto := CartResponseDTO{
		Lines:       make([]LineDTO, len(lines)),
		Subtotal:    domain.FormatMoney(totals.Subtotal),
		Discount:    domain.FormatMoney(totals.Discount),
		FinalAmount: domain.FormatMoney(totals.FinalAmount),
	}
	for i, l := range lines {
		dto.Lines[i] = LineDTO{
			ProductID: l.ProductID,
			Name:      l.Name,
			Brand:     l.Brand,
			UnitPrice: domain.FormatMoney(l.UnitPrice),
			Quantity:  l.Quantity,
			LineTotal: domain.FormatMoney(pricing.LineTotal(l)),
		}
	}
	return dto
}

func handleDomainError(w http.ResponseWriter, err error) {
	var conflict *checkout.StockConflictError
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "no product for this barcode")
	case errors.Is(err, pos.ErrOutOfStock):
		respondError(w, http.StatusConflict, "out_of_stock", "product is out of stock")
	case errors.Is(err, cart.ErrInsufficientStock):
		respondError(w, http.StatusConflict, "insufficient_stock", "requested quantity exceeds available stock")
	case errors.Is(err, cart.ErrLineNotFound):
		respondError(w, http.StatusNotFound, "line_not_found", "product is not in the cart")
	case errors.Is(err, cart.ErrNegativeDiscount):
		respondError(w, http.StatusBadRequest, "invalid_discount", "discount must not be negative")
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
	case errors.Is(err, checkout.ErrInvalidPaymentMethod):
		respondError(w, http.StatusBadRequest, "invalid_payment_method", "payment method must be cash or card")
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		respondError(w, http.StatusConflict, "checkout_in_progress", "a checkout is already in flight for this till")
	case errors.As(err, &conflict):
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:      "stock conflict at commit",
			Code:       "stock_conflict",
			ProductIDs: conflict.ProductIDs,
		})
	default:
		log.Printf("till request failed: %v", err)
		respondError(w, http.StatusBadGateway, "upstream_error", "upstream service failed")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}
