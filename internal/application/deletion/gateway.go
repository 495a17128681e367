package deletion

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/voucher-console/internal/domain"
	"github.com/voucher-console/internal/infrastructure/backend"
)

type backendDeleter interface {
	Delete(ctx context.Context, resource, id string) (*backend.Result, error)
}

// Gateway performs the authoritative delete against the backend.
type Gateway struct {
	backend backendDeleter
}

func NewGateway(b backendDeleter) *Gateway {
	return &Gateway{backend: b}
}

// DeleteItem deletes itemID of class itemType. Unknown classes fail with
// domain.ErrValidation before any network call; backend failures come back as
// *domain.BackendError. There is no retry.
func (g *Gateway) DeleteItem(ctx context.Context, itemType domain.ItemType, itemID string) (json.RawMessage, error) {
	resource, ok := itemType.Resource()
	if !ok {
		return nil, fmt.Errorf("unsupported item type %q: %w", itemType, domain.ErrValidation)
	}
	if !domain.ValidItemID(itemID) {
		return nil, fmt.Errorf("invalid item id %q: %w", itemID, domain.ErrValidation)
	}
	res, err := g.backend.Delete(ctx, resource, itemID)
	if err != nil {
		return nil, err
	}
	if res.Body != nil {
		return res.Body, nil
	}
	// the backend answered 204 or non-JSON
	return json.Marshal(map[string]string{
		"message": fmt.Sprintf("%s %s deleted successfully", itemType.Label(), itemID),
	})
}
