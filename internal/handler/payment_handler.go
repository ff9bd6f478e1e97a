package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// PaymentHandler handles card intents and mobile wallet payments.
type PaymentHandler struct {
	service  service.PaymentService
	currency string
	logger   zerolog.Logger
}

// NewPaymentHandler creates a new payment handler. currency is used when a
// card intent request does not name one.
func NewPaymentHandler(service service.PaymentService, currency string, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:  service,
		currency: currency,
		logger:   logger.With().Str("handler", "payment").Logger(),
	}
}

// CardIntentRequest asks for a card payment intent.
type CardIntentRequest struct {
	Amount   float64 `json:"amount" validate:"gt=0"`
	Currency string  `json:"currency"`
}

// WalletRequest charges a mobile wallet.
type WalletRequest struct {
	Amount      float64 `json:"amount" validate:"gt=0"`
	PhoneNumber string  `json:"phoneNumber" validate:"required"`
}

// VerifyRequest asks for a transaction to be confirmed.
type VerifyRequest struct {
	PaymentMethod model.PaymentMethod `json:"paymentMethod" validate:"required"`
	TransactionID string              `json:"transactionId" validate:"required"`
}

// CreateIntent handles POST /api/payment/create-payment-intent.
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req CardIntentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}
	if req.Currency == "" {
		req.Currency = h.currency
	}

	intent, err := h.service.CreateCardIntent(r.Context(), middleware.UserFromContext(r.Context()).ID, req.Amount, req.Currency)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"clientSecret": intent.ClientSecret})
}

// JazzCash handles POST /api/payment/jazzcash.
func (h *PaymentHandler) JazzCash(w http.ResponseWriter, r *http.Request) {
	h.chargeWallet(w, r, model.PaymentJazzCash)
}

// Easypaisa handles POST /api/payment/easypaisa.
func (h *PaymentHandler) Easypaisa(w http.ResponseWriter, r *http.Request) {
	h.chargeWallet(w, r, model.PaymentEasypaisa)
}

func (h *PaymentHandler) chargeWallet(w http.ResponseWriter, r *http.Request, method model.PaymentMethod) {
	var req WalletRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	res, err := h.service.ChargeWallet(r.Context(), method, req.Amount, req.PhoneNumber)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Verify handles POST /api/payment/verify.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	res, err := h.service.Verify(r.Context(), req.PaymentMethod, req.TransactionID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
