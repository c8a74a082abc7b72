package handlers

import (
	"errors"
	"strings"

	"github.com/SundayYogurt/equipment_service/internal/domain"
	"github.com/SundayYogurt/equipment_service/internal/dto"
	"github.com/SundayYogurt/equipment_service/internal/helper/utils"
	"github.com/SundayYogurt/equipment_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ScanHandler struct {
	svc services.ScanService
}

func NewScanHandler(svc services.ScanService) *ScanHandler {
	return &ScanHandler{svc: svc}
}

func (h *ScanHandler) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Post("/scan", h.Scan)
	api.Get("/tools/:key", h.GetTool)
	api.Put("/tools/:key", h.EditTool)
	api.Get("/tools/:key/audit", h.GetAuditTrail)
}

func (h *ScanHandler) Scan(ctx *fiber.Ctx) error {
	var requestBody dto.ScanRequest

	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide a scan payload")
	}

	actor, _ := ctx.Locals("actor").(string)

	result, err := h.svc.StartScan(requestBody.Payload, actor)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.ResponseError(ctx, fiber.StatusNotFound, err.Error())
		}
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, err.Error())
	}

	return utils.ResponseSuccess(ctx, fiber.StatusOK, result)
}

func (h *ScanHandler) EditTool(ctx *fiber.Ctx) error {
	var requestBody dto.EditRequest

	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "Please provide valid inputs")
	}

	kind, ok := parseRegistry(requestBody.Registry)
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "registry must be A or B")
	}
	if requestBody.Token == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "edit token is required")
	}

	actor, _ := ctx.Locals("actor").(string)

	result, err := h.svc.ApplyEdit(ctx.Params("key"), kind, requestBody.Token, requestBody.Patch, actor)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return utils.ResponseError(ctx, fiber.StatusUnauthorized, err.Error())
		}
		if errors.Is(err, services.ErrNotFound) {
			return utils.ResponseError(ctx, fiber.StatusNotFound, err.Error())
		}
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, err.Error())
	}

	return utils.ResponseSuccess(ctx, fiber.StatusOK, result)
}

func (h *ScanHandler) GetTool(ctx *fiber.Ctx) error {
	kind, ok := parseRegistry(ctx.Query("registry"))
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "registry must be A or B")
	}

	result, err := h.svc.GetTool(ctx.Params("key"), kind)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return utils.ResponseError(ctx, fiber.StatusNotFound, err.Error())
		}
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, err.Error())
	}

	return utils.ResponseSuccess(ctx, fiber.StatusOK, result)
}

func (h *ScanHandler) GetAuditTrail(ctx *fiber.Ctx) error {
	kind, ok := parseRegistry(ctx.Query("registry"))
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "registry must be A or B")
	}

	entries, err := h.svc.GetAuditTrail(ctx.Params("key"), kind)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, err.Error())
	}

	return utils.ResponseSuccess(ctx, fiber.StatusOK, entries)
}

func parseRegistry(raw string) (domain.RegistryKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "A":
		return domain.RegistryA, true
	case "B":
		return domain.RegistryB, true
	default:
		return "", false
	}
}
