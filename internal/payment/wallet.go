package payment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// WalletResult is the outcome of a mobile wallet charge.
type WalletResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	Message       string `json:"message"`
}

// VerifyResult is the outcome of a payment verification.
type VerifyResult struct {
	Success       bool   `json:"success"`
	Verified      bool   `json:"verified"`
	TransactionID string `json:"transactionId"`
}

// WalletProvider simulates a mobile wallet. No money moves: a charge waits
// for the configured latency and returns a synthetic transaction id.
type WalletProvider struct {
	name    string
	prefix  string
	latency time.Duration
	now     func() time.Time
}

// NewJazzCash returns the JazzCash stand-in. Transaction ids start with JC.
func NewJazzCash(latency time.Duration) *WalletProvider {
	return &WalletProvider{name: "JazzCash", prefix: "JC", latency: latency, now: time.Now}
}

// NewEasypaisa returns the Easypaisa stand-in. Transaction ids start with EP.
func NewEasypaisa(latency time.Duration) *WalletProvider {
	return &WalletProvider{name: "Easypaisa", prefix: "EP", latency: latency, now: time.Now}
}

// Name is the provider's display name.
func (w *WalletProvider) Name() string {
	return w.name
}

// Charge simulates charging amount to the wallet behind phone.
func (w *WalletProvider) Charge(ctx context.Context, amount float64, phone string) (*WalletResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	if err := wait(ctx, w.latency); err != nil {
		return nil, err
	}
	return &WalletResult{
		Success:       true,
		TransactionID: fmt.Sprintf("%s%d%d", w.prefix, w.now().UnixMilli(), rand.IntN(1000)),
		Message:       "Payment processed successfully",
	}, nil
}

// Verify simulates confirming a transaction with its provider.
func Verify(ctx context.Context, latency time.Duration, transactionID string) (*VerifyResult, error) {
	if err := wait(ctx, latency); err != nil {
		return nil, err
	}
	return &VerifyResult{Success: true, Verified: true, TransactionID: transactionID}, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
