package voucher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/voucher-console/internal/domain"
	"github.com/voucher-console/internal/infrastructure/backend"
)

const countsPath = "/vouchers/counts"

// listParams are the only query parameters forwarded on list calls.
var listParams = []string{"page", "per_page", "search", "status"}

// Service proxies read and update calls for vouchers to the backend.
// Deletes are deliberately absent: they only go through the OTP flow.
type Service interface {
	List(ctx context.Context, resource string, query url.Values) (json.RawMessage, error)
	Get(ctx context.Context, resource, id string) (json.RawMessage, error)
	Update(ctx context.Context, resource, id string, body json.RawMessage) (json.RawMessage, error)
	Counts(ctx context.Context) (json.RawMessage, error)
}

type backendStore interface {
	List(ctx context.Context, resource string, query url.Values) (*backend.Result, error)
	Get(ctx context.Context, resource, id string) (*backend.Result, error)
	Update(ctx context.Context, resource, id string, body json.RawMessage) (*backend.Result, error)
	Fetch(ctx context.Context, path string, query url.Values) (*backend.Result, error)
}

type service struct {
	backend backendStore
}

func NewService(b backendStore) Service {
	return &service{backend: b}
}

func (s *service) List(ctx context.Context, resource string, query url.Values) (json.RawMessage, error) {
	if err := checkResource(resource); err != nil {
		return nil, err
	}
	fwd := url.Values{}
	for _, k := range listParams {
		if v := query.Get(k); v != "" {
			fwd.Set(k, v)
		}
	}
	res, err := s.backend.List(ctx, resource, fwd)
	if err != nil {
		return nil, err
	}
	return jsonBody(res)
}

func (s *service) Get(ctx context.Context, resource, id string) (json.RawMessage, error) {
	if err := checkItem(resource, id); err != nil {
		return nil, err
	}
	res, err := s.backend.Get(ctx, resource, id)
	if err != nil {
		return nil, err
	}
	return jsonBody(res)
}

func (s *service) Update(ctx context.Context, resource, id string, body json.RawMessage) (json.RawMessage, error) {
	if err := checkItem(resource, id); err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("request body must be JSON: %w", domain.ErrValidation)
	}
	res, err := s.backend.Update(ctx, resource, id, body)
	if err != nil {
		return nil, err
	}
	return jsonBody(res)
}

func (s *service) Counts(ctx context.Context) (json.RawMessage, error) {
	res, err := s.backend.Fetch(ctx, countsPath, nil)
	if err != nil {
		return nil, err
	}
	return jsonBody(res)
}

func checkResource(resource string) error {
	if _, ok := domain.ItemTypeForResource(resource); !ok {
		return fmt.Errorf("unknown resource %q: %w", resource, domain.ErrNotFound)
	}
	return nil
}

func checkItem(resource, id string) error {
	if err := checkResource(resource); err != nil {
		return err
	}
	if !domain.ValidItemID(id) {
		return fmt.Errorf("invalid item id %q: %w", id, domain.ErrValidation)
	}
	return nil
}

// jsonBody rejects 2xx answers that are not JSON; read endpoints have nothing
// sensible to synthesize in their place.
func jsonBody(res *backend.Result) (json.RawMessage, error) {
	if res.Body == nil {
		return nil, &domain.BackendError{
			Status:  502,
			Message: "Backend returned an unexpected response format (expected JSON).",
		}
	}
	return res.Body, nil
}
