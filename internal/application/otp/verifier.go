package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voucher-console/internal/domain"
	"github.com/voucher-console/internal/pkg/codehash"
	"github.com/voucher-console/internal/pkg/validate"
)

// Verifier matches submitted codes and consumes them.
type Verifier struct {
	store  Store
	hasher *codehash.Hasher
	now    func() time.Time
}

func NewVerifier(store Store, hasher *codehash.Hasher) *Verifier {
	return &Verifier{store: store, hasher: hasher, now: time.Now}
}

// VerifyRequest checks that every field of req is present, then verifies its code.
func (v *Verifier) VerifyRequest(ctx context.Context, req domain.DeletionRequest) error {
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("missing required fields: %w", domain.ErrValidation)
	}
	return v.Verify(ctx, req.Email, req.OTP, v.now())
}

// Verify succeeds when a record for email and code is live at now, and removes it.
// Wrong code, wrong email and expiry all return domain.ErrInvalidOrExpired.
func (v *Verifier) Verify(ctx context.Context, email, code string, now time.Time) error {
	rec, err := v.store.FindValid(ctx, email, v.hasher.Digest(code), now)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("verify otp: %w", domain.ErrInvalidOrExpired)
	}
	if err != nil {
		return fmt.Errorf("find otp: %w", err)
	}
	removed, err := v.store.Remove(ctx, rec.Key)
	if err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	if !removed {
		// another request consumed it between the lookup and the delete
		return fmt.Errorf("verify otp: %w", domain.ErrInvalidOrExpired)
	}
	return nil
}
