package memory

import (
	"context"
	"sync"
	"time"

	"github.com/voucher-console/internal/domain"
	"github.com/voucher-console/internal/pkg/codehash"
)

// OTPStore keeps codes in process memory. It is only correct for a single
// instance; state is lost on restart and invisible to other processes.
type OTPStore struct {
	mu      sync.Mutex
	records map[string]domain.OTPRecord
}

func NewOTPStore() *OTPStore {
	return &OTPStore{records: make(map[string]domain.OTPRecord)}
}

func (s *OTPStore) Put(_ context.Context, rec domain.OTPRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Key] = rec
	return nil
}

func (s *OTPStore) SweepExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, rec := range s.records {
		if !rec.Live(now) {
			delete(s.records, k)
			n++
		}
	}
	return n, nil
}

func (s *OTPStore) FindValid(_ context.Context, email, codeHash string, now time.Time) (*domain.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.Email == email && codehash.Equal(rec.CodeHash, codeHash) && rec.Live(now) {
			out := rec
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *OTPStore) Remove(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return false, nil
	}
	delete(s.records, key)
	return true, nil
}

// Len returns the number of records held, expired ones included. Tests use it
// to observe consumption; the service never calls it.
func (s *OTPStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
