// Package auth verifies session tokens issued by the identity provider and
// fetches the profile used to create local users.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the cookie the identity provider stores its session token in.
const SessionCookie = "__session"

// ErrInvalidToken is returned when a session token fails verification.
var ErrInvalidToken = errors.New("invalid or expired session token")

// Profile is the provider-side identity data used when a local user is created.
type Profile struct {
	FirstName string
	LastName  string
	Email     string
	ImageURL  string
}

// DisplayName joins first and last name, falling back to a placeholder.
func (p Profile) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	if name == "" {
		return models.DefaultDisplayName
	}
	return name
}

// Verifier turns a session token into the provider's stable user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// ProfileSource looks up identity details for a provider user id.
type ProfileSource interface {
	Profile(ctx context.Context, externalID string) (Profile, error)
}

// Provider is both a Verifier and a ProfileSource.
type Provider interface {
	Verifier
	ProfileSource
}

// NewProvider builds the provider selected by AUTH_PROVIDER.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.AuthProvider {
	case config.AuthProviderClerk:
		return NewClerkProvider(cfg.ClerkSecretKey), nil
	case config.AuthProviderJWT:
		return NewHMACProvider(cfg.JWTSecret), nil
	default:
		return nil, fmt.Errorf("unsupported auth provider %q", cfg.AuthProvider)
	}
}

// TokenFromRequest extracts the session token from the Authorization header
// or the session cookie. It returns "" when neither is present.
func TokenFromRequest(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return c.Cookies(SessionCookie)
}
