package otp

import (
	"context"
	"time"

	"github.com/voucher-console/internal/domain"
)

// Store holds outstanding codes. Implementations must make each call a single
// atomic step; Remove reports whether this call was the one that deleted the
// record, which is what makes consumption single-use under concurrent verifies.
type Store interface {
	// Put inserts rec under rec.Key, silently replacing any existing record.
	Put(ctx context.Context, rec domain.OTPRecord) error
	// SweepExpired drops every record with ExpiresAt <= now and returns how many it removed.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
	// FindValid returns any record matching email and codeHash that is live at now,
	// or domain.ErrNotFound.
	FindValid(ctx context.Context, email, codeHash string, now time.Time) (*domain.OTPRecord, error)
	// Remove deletes the record stored under key.
	Remove(ctx context.Context, key string) (bool, error)
}
