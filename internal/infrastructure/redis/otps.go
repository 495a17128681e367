package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voucher-console/internal/domain"
	"github.com/voucher-console/internal/pkg/codehash"
)

const (
	recordPrefix = "otp:rec:"
	indexPrefix  = "otp:idx:"
)

// OTPStore keeps codes in Redis so several API instances share them.
// Each record is a JSON value with a native TTL; a set per (email, code digest)
// indexes the issuance keys that may match a verify call.
type OTPStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewOTPStore(rdb *redis.Client) *OTPStore {
	return &OTPStore{rdb: rdb, now: time.Now}
}

func recordKey(key string) string { return recordPrefix + key }

func indexKey(email, codeHash string) string {
	return indexPrefix + email + ":" + codeHash
}

func (s *OTPStore) Put(ctx context.Context, rec domain.OTPRecord) error {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis otp put: %w", err)
	}
	idx := indexKey(rec.Email, rec.CodeHash)
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, recordKey(rec.Key), b, ttl)
		p.SAdd(ctx, idx, rec.Key)
		p.PExpire(ctx, idx, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis otp put: %w", err)
	}
	return nil
}

// SweepExpired is a no-op: Redis evicts records on their own TTL.
func (s *OTPStore) SweepExpired(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func (s *OTPStore) FindValid(ctx context.Context, email, codeHash string, now time.Time) (*domain.OTPRecord, error) {
	idx := indexKey(email, codeHash)
	keys, err := s.rdb.SMembers(ctx, idx).Result()
	if err != nil {
		return nil, fmt.Errorf("redis otp find: %w", err)
	}
	for _, k := range keys {
		rec, err := s.get(ctx, k)
		if errors.Is(err, domain.ErrNotFound) {
			s.rdb.SRem(ctx, idx, k)
			continue
		}
		if err != nil {
			return nil, err
		}
		if rec.Email == email && codehash.Equal(rec.CodeHash, codeHash) && rec.Live(now) {
			return rec, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Remove relies on DEL's reply count: only one concurrent caller sees 1.
func (s *OTPStore) Remove(ctx context.Context, key string) (bool, error) {
	rec, err := s.get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	n, err := s.rdb.Del(ctx, recordKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis otp remove: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	s.rdb.SRem(ctx, indexKey(rec.Email, rec.CodeHash), key)
	return true, nil
}

func (s *OTPStore) get(ctx context.Context, key string) (*domain.OTPRecord, error) {
	b, err := s.rdb.Get(ctx, recordKey(key)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis otp get: %w", err)
	}
	var rec domain.OTPRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("redis otp decode %s: %w", key, err)
	}
	return &rec, nil
}
