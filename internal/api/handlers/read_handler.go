package handlers

import (
	"errors"
	"strconv"

	"github.com/Lokhmat/ocr-backend/domain"
	"github.com/Lokhmat/ocr-backend/internal/api/presenters"
	"github.com/Lokhmat/ocr-backend/pkg/image"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	// ReadHandler serves the read-only reporting API. Same records, no
	// mutations, API-token auth instead of JWT.
	ReadHandler interface {
		ListImages(c *fiber.Ctx) error
		GetImageData(c *fiber.Ctx) error
	}

	readHandler struct {
		imageService image.ImageService
		validator    *validator.Validate
	}
)

func NewReadHandler(imageService image.ImageService, validator *validator.Validate) ReadHandler {
	return &readHandler{
		imageService: imageService,
		validator:    validator,
	}
}

func (h *readHandler) ListImages(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	req := domain.ListImagesRequest{}
	if c.Method() == fiber.MethodPost {
		if err := c.BodyParser(&req); err != nil {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
		}
	} else {
		req.Cursor = c.Query("cursor")
		if raw := c.Query("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedListImages, domain.ErrInvalidLimit)
			}
			req.Limit = limit
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedListImages, err)
	}

	res, err := h.imageService.ListImages(c.Context(), userID, req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCursor) || errors.Is(err, domain.ErrInvalidLimit) {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedListImages, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedListImages, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessListImages)
}

func (h *readHandler) GetImageData(c *fiber.Ctx) error {
	imageID := c.Query("image_id")
	if imageID == "" {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetImage, domain.ErrImageNotFound)
	}

	res, err := h.imageService.GetImageStatus(c.Context(), imageID)
	if err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedGetImage, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetImage, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessListImages)
}
