package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/incident-service/internal/api/dto"
	"github.com/spec-kit/incident-service/internal/auth"
	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/service"
	apperrors "github.com/spec-kit/incident-service/pkg/util/errorutil"
)

// UsersHandler exposes the user directory and push token registration.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /api/users?role=.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	users, err := h.users.ListUsers(c.UserContext(), actor, c.Query("role"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserList(users))
}

// SavePushToken handles POST /api/users/save-fcm-token.
func (h *UsersHandler) SavePushToken(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.SavePushTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.users.SavePushToken(c.UserContext(), actor, req.FCMToken); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "FCM token saved successfully"})
}

func currentActor(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}
