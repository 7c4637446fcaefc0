// Package otp sends and verifies one-time codes through the SMS
// providers the partners contract with.
package otp

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/dostavo/server/internal/shared/config"
)

var (
	// ErrWrongCode means the submitted code does not match.
	ErrWrongCode = errors.New("otp code does not match")
	// ErrNoAdapter means the partner has no OTP provider configured.
	ErrNoAdapter = errors.New("no otp adapter configured for partner")
	// ErrUnavailable means the provider did not answer in time.
	ErrUnavailable = errors.New("otp provider unavailable")
)

// Adapter is one partner's OTP provider.
type Adapter interface {
	// SendCode issues a fresh code to the receiver's phone.
	SendCode(ctx context.Context, phone string, orderID int64) error
	// VerifyCode checks a submitted code. Returns ErrWrongCode on
	// mismatch.
	VerifyCode(ctx context.Context, phone, code string, orderID int64) error
}

// Registry resolves the OTP adapter for a partner.
type Registry struct {
	adapters map[int64]Adapter
}

// NewRegistry builds the partner to adapter mapping from
// configuration. Unknown provider names fail fast.
func NewRegistry(cfg *config.OTPConfig, logger *zap.Logger) (*Registry, error) {
	adapters := make(map[int64]Adapter, len(cfg.Partners))
	for key, entry := range cfg.Partners {
		partnerID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("otp partner key %q is not a partner id: %w", key, err)
		}

		var a Adapter
		switch entry.Provider {
		case "pos_terminal":
			a = newPOSTerminalProvider(entry, cfg.Timeout, logger)
		case "freedom_bank":
			a = newFreedomBankProvider(entry, cfg.Timeout, logger)
		default:
			return nil, fmt.Errorf("unknown otp provider %q for partner %d", entry.Provider, partnerID)
		}
		adapters[partnerID] = a
	}
	return &Registry{adapters: adapters}, nil
}

// NewStaticRegistry builds a registry from an explicit mapping.
func NewStaticRegistry(adapters map[int64]Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// ForPartner returns the adapter configured for partnerID.
func (r *Registry) ForPartner(partnerID int64) (Adapter, error) {
	a, ok := r.adapters[partnerID]
	if !ok {
		return nil, ErrNoAdapter
	}
	return a, nil
}
