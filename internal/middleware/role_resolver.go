package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/notebook-grading-api/internal/utils"
)

// RoleLookup resolves the stored platform role of a user. An empty role means none was selected.
type RoleLookup interface {
	Resolve(ctx context.Context, userID string) (string, error)
}

// RoleResolver fills user_role from the role store when the token did not carry one.
func RoleResolver(lookup RoleLookup, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if lookup == nil {
			return c.Next()
		}

		userID, _ := c.Locals("user_id").(string)
		if userID == "" || normalizeRoleValue(c.Locals("user_role")) != "" {
			return c.Next()
		}

		role, err := lookup.Resolve(c.UserContext(), userID)
		if err != nil {
			logger.Error().Err(err).Str("user_id", userID).Str("correlation_id", GetCorrelationID(c)).Msg("failed to resolve role")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve role")
		}

		if role != "" {
			c.Locals("user_role", role)
		}

		return c.Next()
	}
}
