package http

import (
	"github.com/voucher-console/internal/application/deletion"
	"github.com/voucher-console/internal/application/voucher"
	"github.com/voucher-console/internal/transport/http/handler"
	"github.com/voucher-console/internal/transport/http/middleware"
)

// Deps holds the services and infrastructure the router wires into handlers.
// Alerter is optional. TokenVerifiers are tried in order on each bearer token;
// with none configured every route is public.
type Deps struct {
	Issuer         handler.Issuer
	Deletion       deletion.Service
	Vouchers       voucher.Service
	Alerter        handler.Alerter
	TokenVerifiers []middleware.TokenVerifier
}
