package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/incident-service/internal/domain"
	apperrors "github.com/spec-kit/incident-service/pkg/util/errorutil"
)

const actorKey = "auth_actor"

// AuthMiddleware validates bearer tokens and stores the resolved actor.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, ok := BearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return apperrors.NewUnauthorized("missing bearer token")
	}

	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	actor, err := ActorFromClaims(claims)
	if err != nil {
		return apperrors.NewUnauthorized(err.Error())
	}

	c.Locals(actorKey, actor)
	return c.Next()
}

// BearerToken extracts the token from an Authorization header. The scheme is
// optional and any amount of whitespace (including none) may follow it.
func BearerToken(header string) (string, bool) {
	value := strings.TrimSpace(header)
	if len(value) >= len("Bearer") && strings.EqualFold(value[:len("Bearer")], "Bearer") {
		value = strings.TrimSpace(value[len("Bearer"):])
	}
	if value == "" || strings.ContainsAny(value, " \t") {
		return "", false
	}
	return value, true
}

// ActorFromContext retrieves the authenticated caller.
func ActorFromContext(c *fiber.Ctx) (domain.Actor, bool) {
	actor, ok := c.Locals(actorKey).(domain.Actor)
	return actor, ok
}
