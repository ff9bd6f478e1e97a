// Package payment talks to the card payment gateway and provides stand-ins
// for the mobile wallet providers.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Intent is a created card payment intent.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type gatewayError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CardGateway creates payment intents on a Stripe-compatible HTTP API.
type CardGateway struct {
	baseURL    string
	secretKey  string
	currency   string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewCardGateway creates a gateway client. currency is used when a request
// does not name one.
func NewCardGateway(baseURL, secretKey, currency string, httpClient *http.Client, logger zerolog.Logger) *CardGateway {
	return &CardGateway{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		secretKey:  secretKey,
		currency:   currency,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "card-gateway").Logger(),
	}
}

// MinorUnits converts an amount in major currency units to the integer minor
// units the gateway expects, rounding half away from zero.
func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

// CreateIntent creates a payment intent for amount on behalf of userID.
func (g *CardGateway) CreateIntent(ctx context.Context, amount float64, currency string, userID uuid.UUID) (*Intent, error) {
	if g.secretKey == "" {
		return nil, fmt.Errorf("%w: card gateway is not configured", model.ErrPaymentFailed)
	}
	if currency == "" {
		currency = g.currency
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(MinorUnits(amount), 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("metadata[userId]", userID.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error().Err(err).Msg("payment gateway request failed")
		return nil, fmt.Errorf("%w: %v", model.ErrPaymentFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", model.ErrPaymentFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		var gwErr gatewayError
		_ = json.Unmarshal(body, &gwErr)
		g.logger.Warn().
			Int("status", resp.StatusCode).
			Str("gateway_message", gwErr.Error.Message).
			Msg("payment gateway rejected intent")
		return nil, fmt.Errorf("%w: status=%d %s", model.ErrPaymentFailed, resp.StatusCode, gwErr.Error.Message)
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", model.ErrPaymentFailed, err)
	}

	g.logger.Info().Str("intent_id", intent.ID).Str("user_id", userID.String()).Msg("payment intent created")
	return &intent, nil
}
