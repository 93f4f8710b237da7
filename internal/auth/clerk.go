package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/clerk/clerk-sdk-go/v2/user"
)

// ClerkProvider verifies Clerk session tokens and reads profiles from the Clerk API.
type ClerkProvider struct {
	mu   sync.RWMutex
	jwks map[string]*clerk.JSONWebKey
}

// NewClerkProvider configures the Clerk SDK with the secret key.
func NewClerkProvider(secretKey string) *ClerkProvider {
	clerk.SetKey(secretKey)
	return &ClerkProvider{jwks: make(map[string]*clerk.JSONWebKey)}
}

func (p *ClerkProvider) jsonWebKey(ctx context.Context, kid string) (*clerk.JSONWebKey, error) {
	p.mu.RLock()
	jwk, ok := p.jwks[kid]
	p.mu.RUnlock()
	if ok {
		return jwk, nil
	}

	jwk, err := jwt.GetJSONWebKey(ctx, &jwt.GetJSONWebKeyParams{KeyID: kid})
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.jwks[kid] = jwk
	p.mu.Unlock()
	return jwk, nil
}

// Verify validates the session token and returns the Clerk user id.
func (p *ClerkProvider) Verify(ctx context.Context, token string) (string, error) {
	unverified, err := jwt.Decode(ctx, &jwt.DecodeParams{Token: token})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	jwk, err := p.jsonWebKey(ctx, unverified.KeyID)
	if err != nil {
		return "", fmt.Errorf("fetch clerk signing key: %w", err)
	}

	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token, JWK: jwk})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// Profile fetches the user's names, primary email and avatar from Clerk.
func (p *ClerkProvider) Profile(ctx context.Context, externalID string) (Profile, error) {
	u, err := user.Get(ctx, externalID)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch clerk user: %w", err)
	}

	profile := Profile{
		FirstName: deref(u.FirstName),
		LastName:  deref(u.LastName),
		ImageURL:  deref(u.ImageURL),
	}
	if len(u.EmailAddresses) > 0 && u.EmailAddresses[0] != nil {
		profile.Email = u.EmailAddresses[0].EmailAddress
	}
	return profile, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
