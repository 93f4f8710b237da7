package service

import (
	"context"
	"log/slog"
	"strings"

	"inkwell/internal/auth"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
)

// IdentityService maps external identities to local users, creating them on first sight.
type IdentityService struct {
	users    repository.UserRepository
	profiles auth.ProfileSource
}

func NewIdentityService(users repository.UserRepository, profiles auth.ProfileSource) *IdentityService {
	return &IdentityService{users: users, profiles: profiles}
}

// Resolve returns the local user for externalID. When two requests race to
// create the same user, the loser re-reads the winner's row.
func (s *IdentityService) Resolve(ctx context.Context, externalID string) (*models.User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}

	user, err := s.users.GetByExternalID(ctx, externalID)
	if err == nil {
		return user, nil
	}
	if !models.HasCode(err, models.CodeNotFound) {
		return nil, err
	}

	profile, err := s.profiles.Profile(ctx, externalID)
	if err != nil {
		return nil, models.NewUpstreamError("Failed to load user profile", nil, err)
	}

	user = &models.User{
		ExternalID: externalID,
		Name:       profile.DisplayName(),
		Email:      profile.Email,
		ImageURL:   profile.ImageURL,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if models.HasCode(err, models.CodeConflict) {
			return s.users.GetByExternalID(ctx, externalID)
		}
		return nil, err
	}

	observability.IdentityUsersCreated.Inc()
	middleware.Logger.InfoContext(ctx, "created local user",
		slog.Uint64("user_id", uint64(user.ID)),
	)
	return user, nil
}
