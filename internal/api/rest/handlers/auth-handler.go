package handlers

import (
	"strings"

	"github.com/SundayYogurt/equipment_service/internal/dto"
	"github.com/SundayYogurt/equipment_service/internal/helper"
	"github.com/SundayYogurt/equipment_service/internal/helper/utils"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	auth helper.Auth
}

func NewAuthHandler(auth helper.Auth) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Post("/auth/token", h.IssueActorToken)
}

// IssueActorToken mints a signed actor token. The production dashboard issues
// these from its login service; this endpoint covers local and staging use.
func (h *AuthHandler) IssueActorToken(ctx *fiber.Ctx) error {
	var requestBody dto.ActorTokenRequest

	if err := ctx.BodyParser(&requestBody); err != nil || strings.TrimSpace(requestBody.Actor) == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "actor is required")
	}

	token, err := h.auth.GenerateToken(strings.TrimSpace(requestBody.Actor))
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, "could not generate token")
	}

	return utils.ResponseSuccess(ctx, fiber.StatusOK, fiber.Map{
		"token": token,
	})
}
