package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

var ErrFederatedDisabled = errors.New("federated login is not configured")

// FederatedIdentity is what a verified third-party ID token tells us about the caller.
type FederatedIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// IdentityVerifier checks a third-party ID token (signature, audience, expiry).
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (*FederatedIdentity, error)
}

// GoogleVerifier validates Google-issued ID tokens against the OAuth client id.
type GoogleVerifier struct {
	clientID  string
	validator *idtoken.Validator
}

func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	if clientID == "" {
		return &GoogleVerifier{}, nil
	}
	v, err := idtoken.NewValidator(ctx, option.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}))
	if err != nil {
		return nil, fmt.Errorf("create google token validator: %w", err)
	}
	return &GoogleVerifier{clientID: clientID, validator: v}, nil
}

func (g *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*FederatedIdentity, error) {
	if g.validator == nil {
		return nil, ErrFederatedDisabled
	}
	payload, err := g.validator.Validate(ctx, rawToken, g.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id := &FederatedIdentity{Subject: payload.Subject}
	if v, ok := payload.Claims["email"].(string); ok {
		id.Email = NormalizeEmail(v)
	}
	switch v := payload.Claims["email_verified"].(type) {
	case bool:
		id.EmailVerified = v
	case string:
		id.EmailVerified = v == "true"
	}
	if v, ok := payload.Claims["name"].(string); ok {
		id.Name = v
	}
	if v, ok := payload.Claims["picture"].(string); ok {
		id.Picture = v
	}
	if id.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return id, nil
}
