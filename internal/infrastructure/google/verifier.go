package google

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"

	"github.com/voucher-console/internal/domain"
	jwtinfra "github.com/voucher-console/internal/infrastructure/jwt"
)

type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Verifier accepts Google ID tokens issued for one OAuth client and turns
// them into console claims. Only verified addresses pass; addresses on the
// admin list get the admin role, everyone else is a viewer.
type Verifier struct {
	clientID string
	admins   map[string]struct{}
	validate validateFunc
}

func NewVerifier(clientID string, adminEmails []string) *Verifier {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(e)] = struct{}{}
	}
	return &Verifier{clientID: clientID, admins: admins, validate: idtoken.Validate}
}

// VerifyToken validates the Google ID token and returns the extracted claims.
// Returns a domain.ErrUnauthorized-wrapped error if the token is invalid.
func (v *Verifier) VerifyToken(ctx context.Context, token string) (*jwtinfra.Claims, error) {
	p, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("invalid google token: %w", domain.ErrUnauthorized)
	}
	email, _ := p.Claims["email"].(string)
	emailVerified, _ := p.Claims["email_verified"].(bool)
	if email == "" || !emailVerified {
		return nil, fmt.Errorf("google account email not verified: %w", domain.ErrUnauthorized)
	}
	role := domain.RoleViewer
	if _, ok := v.admins[strings.ToLower(email)]; ok {
		role = domain.RoleAdmin
	}
	c := &jwtinfra.Claims{Email: email, Role: role}
	c.Subject = p.Subject
	return c, nil
}
