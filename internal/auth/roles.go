package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/incident-service/internal/policy"
	apperrors "github.com/spec-kit/incident-service/pkg/util/errorutil"
)

// RequireAction rejects callers whose role may not perform action. Ownership
// checks happen later in the service, once the incident is loaded.
func RequireAction(action policy.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := policy.AuthorizeRole(actor.Role, action).Err(); err != nil {
			return err
		}
		return c.Next()
	}
}
