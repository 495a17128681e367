package jwtinfra

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/voucher-console/internal/config"
)

// Claims holds the JWT payload fields the console reads. Tokens are issued by
// the identity service in front of the console; this side only verifies them.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Provider verifies RS256 JWTs. It signs only when built with a private key.
type Provider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return &Provider{publicKey: pubKey}, nil
}

// NewSigningProvider exists for tests. The server only verifies tokens, so
// production code builds providers with NewProvider.
func NewSigningProvider(key *rsa.PrivateKey) *Provider {
	return &Provider{privateKey: key, publicKey: &key.PublicKey}
}

// Sign mints an RS256 token. Test helper: only a provider from
// NewSigningProvider holds a private key.
func (p *Provider) Sign(subject, email, role string, ttl time.Duration) (string, error) {
	if p.privateKey == nil {
		return "", errors.New("provider has no signing key")
	}
	now := time.Now()
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.publicKey, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// VerifyToken adapts Verify to the auth middleware's verifier chain.
func (p *Provider) VerifyToken(_ context.Context, tokenStr string) (*Claims, error) {
	return p.Verify(tokenStr)
}
