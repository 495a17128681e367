package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/voucher-console/internal/domain"
	"github.com/voucher-console/internal/infrastructure/smtp"
	"github.com/voucher-console/internal/pkg/codehash"
	"github.com/voucher-console/internal/pkg/id"
	"github.com/voucher-console/internal/pkg/validate"
)

const (
	// DefaultTTL is how long an issued code stays usable.
	DefaultTTL = 5 * time.Minute

	defaultAction = "delete"
	codeMin       = 100000
	codeSpan      = 900000 // codeMin..999999 inclusive
	emailTag      = "required,contains=@,contains=."
)

// Issuer mints codes, records them and emails them.
type Issuer struct {
	store  Store
	mailer smtp.Mailer
	hasher *codehash.Hasher
	ttl    time.Duration
	now    func() time.Time
	random io.Reader
}

func NewIssuer(store Store, mailer smtp.Mailer, hasher *codehash.Hasher, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		store:  store,
		mailer: mailer,
		hasher: hasher,
		ttl:    ttl,
		now:    time.Now,
		random: rand.Reader,
	}
}

// Issue stores a fresh code for req.Email and mails it. Every call mints a new
// code; earlier codes for the same email stay valid until they expire or are used.
// On a delivery failure the stored record is kept and the error wraps domain.ErrDelivery.
func (i *Issuer) Issue(ctx context.Context, req domain.IssueRequest) (string, error) {
	if err := validate.Var(req.Email, emailTag); err != nil {
		return "", fmt.Errorf("please enter a valid email address: %w", domain.ErrValidation)
	}
	action := req.Action
	if action == "" {
		action = defaultAction
	}

	code, err := i.newCode()
	if err != nil {
		return "", err
	}
	now := i.now()
	rec := domain.OTPRecord{
		Key:       fmt.Sprintf("%s-%s-%s", req.Email, action, id.NewAt(now)),
		Email:     req.Email,
		CodeHash:  i.hasher.Digest(code),
		ExpiresAt: now.Add(i.ttl),
	}
	if err := i.store.Put(ctx, rec); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	if n, err := i.store.SweepExpired(ctx, now); err != nil {
		slog.Warn("otp sweep failed", "err", err)
	} else if n > 0 {
		slog.Debug("swept expired otps", "count", n)
	}

	msg, err := renderMessage(req, code, i.ttl)
	if err != nil {
		return "", fmt.Errorf("render otp email: %w", err)
	}
	if err := i.mailer.SendEmail(ctx, msg); err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			return "", err
		}
		slog.Warn("otp email delivery failed", "issuance_key", rec.Key, "err", err)
		return "", fmt.Errorf("failed to send OTP: %w: %w", domain.ErrDelivery, err)
	}
	return rec.Key, nil
}

// newCode draws a uniform 6-digit code with no leading zero.
func (i *Issuer) newCode() (string, error) {
	n, err := rand.Int(i.random, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+codeMin), nil
}
