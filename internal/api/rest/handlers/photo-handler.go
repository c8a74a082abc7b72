package handlers

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/SundayYogurt/equipment_service/internal/helper/utils"
	"github.com/SundayYogurt/equipment_service/internal/services"
	pkgutils "github.com/SundayYogurt/equipment_service/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type PhotoHandler struct {
	svc services.ScanService
}

func NewPhotoHandler(svc services.ScanService) *PhotoHandler {
	return &PhotoHandler{svc: svc}
}

func (h *PhotoHandler) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Post("/tools/:key/photo", h.UploadPhoto)
}

// POST /api/tools/:key/photo
// form-data: file=<image>, token=<edit lease>, registry=A|B
func (h *PhotoHandler) UploadPhoto(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "file is required")
	}

	// validate extension
	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}
	if !allowed[ext] {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "only jpg/jpeg/png/webp allowed")
	}

	// validate size
	const maxSize = 5 * 1024 * 1024 //5MB
	if file.Size > maxSize {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "file too large (max 5MB)")
	}

	kind, ok := parseRegistry(ctx.FormValue("registry"))
	if !ok {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "registry must be A or B")
	}
	token := strings.TrimSpace(ctx.FormValue("token"))
	if token == "" {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "edit token is required")
	}

	f, err := file.Open()
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, "cannot open uploaded file")
	}
	defer f.Close()

	data, err := pkgutils.ReadAllLimit(f, maxSize)
	if err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
	}

	actor, _ := ctx.Locals("actor").(string)

	uploadCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	result, err := h.svc.AttachPhoto(uploadCtx, ctx.Params("key"), kind, token, actor, file.Filename, data)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return utils.ResponseError(ctx, fiber.StatusUnauthorized, err.Error())
		}
		return utils.ResponseError(ctx, fiber.StatusInternalServerError, err.Error())
	}

	return utils.ResponseSuccess(ctx, fiber.StatusOK, result)
}
