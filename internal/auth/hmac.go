package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "inkwell-api"
	tokenAudience = "inkwell-client"
)

// HMACProvider verifies HS256 session tokens signed with a shared secret.
// Profile fields travel in the token and are remembered per subject.
type HMACProvider struct {
	secret   []byte
	profiles sync.Map // subject -> Profile
}

// NewHMACProvider creates a provider for tokens signed with secret.
func NewHMACProvider(secret string) *HMACProvider {
	return &HMACProvider{secret: []byte(secret)}
}

// Verify validates signature, issuer, audience and expiry and returns the subject.
func (p *HMACProvider) Verify(_ context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return p.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	p.profiles.Store(sub, Profile{
		FirstName: stringClaim(claims, "given_name"),
		LastName:  stringClaim(claims, "family_name"),
		Email:     stringClaim(claims, "email"),
		ImageURL:  stringClaim(claims, "picture"),
	})
	return sub, nil
}

// Profile returns the fields carried by the subject's most recent token.
func (p *HMACProvider) Profile(_ context.Context, externalID string) (Profile, error) {
	if v, ok := p.profiles.Load(externalID); ok {
		return v.(Profile), nil
	}
	return Profile{}, nil
}

// IssueToken signs a session token for subject. Used by the seed command and tests.
func (p *HMACProvider) IssueToken(subject string, profile Profile, ttl time.Duration) (string, error) {
	if len(p.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":         subject,
		"iss":         tokenIssuer,
		"aud":         tokenAudience,
		"exp":         now.Add(ttl).Unix(),
		"iat":         now.Unix(),
		"nbf":         now.Unix(),
		"jti":         uuid.NewString(),
		"given_name":  profile.FirstName,
		"family_name": profile.LastName,
		"email":       profile.Email,
		"picture":     profile.ImageURL,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
