package service

import (
	"context"
	"time"

	"storefront/internal/model"
	"storefront/internal/payment"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CardGateway creates card payment intents.
type CardGateway interface {
	CreateIntent(ctx context.Context, amount float64, currency string, userID uuid.UUID) (*payment.Intent, error)
}

// WalletCharger charges a mobile wallet.
type WalletCharger interface {
	Name() string
	Charge(ctx context.Context, amount float64, phone string) (*payment.WalletResult, error)
}

// paymentService implements PaymentService.
type paymentService struct {
	card          CardGateway
	wallets       map[model.PaymentMethod]WalletCharger
	verifyLatency time.Duration
	logger        zerolog.Logger
}

// NewPaymentService creates a new payment service. wallets maps a payment
// method to the provider that handles it.
func NewPaymentService(
	card CardGateway,
	wallets map[model.PaymentMethod]WalletCharger,
	verifyLatency time.Duration,
	logger zerolog.Logger,
) PaymentService {
	return &paymentService{
		card:          card,
		wallets:       wallets,
		verifyLatency: verifyLatency,
		logger:        logger.With().Str("service", "payment").Logger(),
	}
}

func (s *paymentService) CreateCardIntent(ctx context.Context, userID uuid.UUID, amount float64, currency string) (*payment.Intent, error) {
	if amount <= 0 {
		return nil, model.NewValidationError("Amount must be greater than zero")
	}

	intent, err := s.card.CreateIntent(ctx, amount, currency, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to create payment intent")
		return nil, err
	}

	s.logger.Info().Str("user_id", userID.String()).Str("intent_id", intent.ID).Msg("payment intent created")
	return intent, nil
}

func (s *paymentService) ChargeWallet(ctx context.Context, method model.PaymentMethod, amount float64, phone string) (*payment.WalletResult, error) {
	wallet, ok := s.wallets[method]
	if !ok {
		return nil, model.ErrInvalidPayment
	}
	if amount <= 0 {
		return nil, model.NewValidationError("Amount must be greater than zero")
	}
	if phone == "" {
		return nil, model.NewValidationError("Phone number is required")
	}

	res, err := wallet.Charge(ctx, amount, phone)
	if err != nil {
		s.logger.Error().Err(err).Str("provider", wallet.Name()).Msg("wallet charge failed")
		return nil, err
	}

	s.logger.Info().
		Str("provider", wallet.Name()).
		Str("transaction_id", res.TransactionID).
		Float64("amount", amount).
		Msg("wallet charged")
	return res, nil
}

// Verify confirms a transaction with its provider. Every known method is
// reported verified.
func (s *paymentService) Verify(ctx context.Context, method model.PaymentMethod, transactionID string) (*payment.VerifyResult, error) {
	if !method.Valid() {
		return nil, model.ErrInvalidPayment
	}
	if transactionID == "" {
		return nil, model.NewValidationError("Transaction ID is required")
	}

	res, err := payment.Verify(ctx, s.verifyLatency, transactionID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("method", string(method)).Str("transaction_id", transactionID).Msg("payment verified")
	return res, nil
}
