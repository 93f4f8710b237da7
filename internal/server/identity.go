package server

import (
	"log/slog"

	"inkwell/internal/auth"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

const actorLocal = "user"

// resolveActor verifies the session token and maps it to a local user.
// It returns (nil, nil) when the request carries no token.
func (s *Server) resolveActor(c *fiber.Ctx) (*models.User, error) {
	token := auth.TokenFromRequest(c)
	if token == "" {
		return nil, nil
	}

	externalID, err := s.verifier.Verify(c.UserContext(), token)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid or expired session")
	}
	return s.identityService.Resolve(c.UserContext(), externalID)
}

func setActor(c *fiber.Ctx, user *models.User) {
	c.Locals(actorLocal, user)
	c.Locals("userID", user.ID)
	c.SetUserContext(middleware.WithUserID(c.UserContext(), user.ID))
}

// actorFrom returns the user resolved for this request, or nil.
func actorFrom(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(actorLocal).(*models.User)
	return user
}

// IdentityRequired resolves the caller once per request and rejects anonymous requests.
func (s *Server) IdentityRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.resolveActor(c)
		if err != nil {
			return models.RespondWithError(c, models.StatusFor(err), err)
		}
		if user == nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication required"))
		}
		setActor(c, user)
		return c.Next()
	}
}

// OptionalIdentity resolves the caller when a valid session is present.
// Invalid sessions are treated as anonymous.
func (s *Server) OptionalIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.resolveActor(c)
		if err != nil {
			middleware.Logger.DebugContext(c.UserContext(), "ignoring unusable session", slog.String("error", err.Error()))
		}
		if user != nil {
			setActor(c, user)
		}
		return c.Next()
	}
}

// viewerID is the resolved user's id, or 0 for anonymous callers.
func viewerID(c *fiber.Ctx) uint {
	if user := actorFrom(c); user != nil {
		return user.ID
	}
	return 0
}

// requireFeature hides a route when the flag is off for the caller.
func (s *Server) requireFeature(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.flags.Enabled(name, viewerID(c)) {
			return fiber.ErrNotFound
		}
		return c.Next()
	}
}
