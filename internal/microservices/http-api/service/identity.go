package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is the verified subject of a bearer credential
type Identity struct {
	Email   string
	Name    string
	Picture string
}

// IdentityVerifier checks tokens issued by the external identity provider.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// identityClaims are the OIDC claims we consume
type identityClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type jwtVerifier struct {
	keyFunc jwt.Keyfunc
	options []jwt.ParserOption
	closeFn func()
}

// NewHMACVerifier verifies HS256 tokens signed with a shared secret.
func NewHMACVerifier(secret, issuer, audience string) IdentityVerifier {
	return &jwtVerifier{
		keyFunc: func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		options: parserOptions([]string{"HS256"}, issuer, audience),
	}
}

// JWKSVerifier verifies RS256/ES256 tokens against the provider's published keys.
type JWKSVerifier struct {
	jwtVerifier
}

// NewJWKSVerifier fetches and caches the provider's JWKS, refreshing in the background.
func NewJWKSVerifier(jwksURL, issuer, audience string) (*JWKSVerifier, error) {
	slog.Info("Initializing JWKS verifier", "jwks_url", jwksURL)

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:                 context.Background(),
		RefreshInterval:     time.Hour,
		RefreshRateLimit:    5 * time.Minute,
		RefreshTimeout:      10 * time.Second,
		RefreshUnknownKID:   true,
		RefreshErrorHandler: func(err error) { slog.Error("JWKS refresh error", "error", err) },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	return &JWKSVerifier{jwtVerifier{
		keyFunc: jwks.Keyfunc,
		options: parserOptions([]string{"RS256", "ES256"}, issuer, audience),
		closeFn: jwks.EndBackground,
	}}, nil
}

// Close stops the background key refresh
func (v *JWKSVerifier) Close() {
	if v.closeFn != nil {
		v.closeFn()
	}
}

func parserOptions(methods []string, issuer, audience string) []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return opts
}

func (v *jwtVerifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}

	claims := &identityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc, v.options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token has expired", ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: invalid token: %v", ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: token carries no email", ErrUnauthorized)
	}

	return &Identity{
		Email:   strings.ToLower(claims.Email),
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}
