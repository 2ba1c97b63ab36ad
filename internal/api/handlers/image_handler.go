package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Lokhmat/ocr-backend/domain"
	"github.com/Lokhmat/ocr-backend/internal/api/presenters"
	"github.com/Lokhmat/ocr-backend/pkg/image"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	ImageHandler interface {
		UploadImages(c *fiber.Ctx) error
		ListImages(c *fiber.Ctx) error
		GetImage(c *fiber.Ctx) error
		UpdateImageJSON(c *fiber.Ctx) error
	}

	imageHandler struct {
		imageService image.ImageService
		validator    *validator.Validate
	}
)

func NewImageHandler(imageService image.ImageService, validator *validator.Validate) ImageHandler {
	return &imageHandler{
		imageService: imageService,
		validator:    validator,
	}
}

func (h *imageHandler) UploadImages(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	form, err := c.MultipartForm()
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	files := form.File["files"]
	workload := c.Query("workload", c.FormValue("workload", domain.WorkloadCloud))

	res, err := h.imageService.UploadImages(c.Context(), files, workload, userID)
	if err != nil {
		if isUploadValidationError(err) {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUploadImages, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedUploadImages, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUploadImages)
}

// ListImages serves both GET with query params and POST with a JSON body,
// mirroring the two clients that consume the listing.
func (h *imageHandler) ListImages(c *fiber.Ctx) error {
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

// GetImage streams the original blob back as an attachment, the filename
// recovered from the storage key.
func (h *imageHandler) GetImage(c *fiber.Ctx) error {
	imageID := c.Query("image_id")
	if imageID == "" {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetImage, domain.ErrImageNotFound)
	}

	download, err := h.imageService.GetImage(c.Context(), imageID)
	if err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedGetImage, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetImage, err)
	}

	if download.ContentType != "" {
		c.Set(fiber.HeaderContentType, download.ContentType)
	}
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", download.Filename))
	return c.Send(download.Data)
}

func (h *imageHandler) UpdateImageJSON(c *fiber.Ctx) error {
	req := new(domain.UpdateImageJSONRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateResult, err)
	}

	if err := h.imageService.UpdateImageJSON(c.Context(), *req); err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedUpdateResult, err)
		}
		if errors.Is(err, domain.ErrMalformedReceipt) {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateResult, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedUpdateResult, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessUpdateResult)
}

func isUploadValidationError(err error) bool {
	return errors.Is(err, domain.ErrTooManyFiles) ||
		errors.Is(err, domain.ErrNoFiles) ||
		errors.Is(err, domain.ErrUnsupportedFile) ||
		errors.Is(err, domain.ErrUnknownWorkload) ||
		errors.Is(err, domain.ErrParseUUID)
}
