package deletion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/voucher-console/internal/domain"
	"github.com/voucher-console/internal/pkg/id"
)

type verifier interface {
	VerifyRequest(ctx context.Context, req domain.DeletionRequest) error
}

// Archiver keeps a copy of each completed deletion.
type Archiver interface {
	Archive(ctx context.Context, rec domain.DeletionRecord) error
}

type Service interface {
	VerifyAndDelete(ctx context.Context, req domain.DeletionRequest) (json.RawMessage, error)
}

type service struct {
	verifier verifier
	gateway  *Gateway
	archiver Archiver
	now      func() time.Time
}

// NewService wires verification to deletion. archiver may be nil.
func NewService(v verifier, g *Gateway, archiver Archiver) Service {
	return &service{verifier: v, gateway: g, archiver: archiver, now: time.Now}
}

// VerifyAndDelete consumes the code in req and then deletes the item. The code is
// spent as soon as it verifies, even when the delete that follows fails.
func (s *service) VerifyAndDelete(ctx context.Context, req domain.DeletionRequest) (json.RawMessage, error) {
	itemType := domain.ItemType(req.ItemType)
	if req.ItemType != "" {
		if _, ok := itemType.Resource(); !ok {
			return nil, fmt.Errorf("unsupported item type %q: %w", req.ItemType, domain.ErrValidation)
		}
	}
	if req.ItemID != "" && !domain.ValidItemID(req.ItemID) {
		return nil, fmt.Errorf("invalid item id %q: %w", req.ItemID, domain.ErrValidation)
	}
	if err := s.verifier.VerifyRequest(ctx, req); err != nil {
		return nil, err
	}

	payload, err := s.gateway.DeleteItem(ctx, itemType, req.ItemID)
	if err != nil {
		slog.Warn("confirmed deletion failed", "item_type", req.ItemType, "item_id", req.ItemID, "err", err)
		return nil, err
	}
	slog.Info("item deleted", "item_type", req.ItemType, "item_id", req.ItemID, "email", req.Email)

	if s.archiver != nil {
		rec := domain.DeletionRecord{
			ID:        id.New(),
			ItemType:  itemType,
			ItemID:    req.ItemID,
			Email:     req.Email,
			DeletedAt: s.now().UTC(),
			Response:  payload,
		}
		if err := s.archiver.Archive(ctx, rec); err != nil {
			slog.Warn("failed to archive deletion", "item_type", req.ItemType, "item_id", req.ItemID, "err", err)
		}
	}
	return payload, nil
}
