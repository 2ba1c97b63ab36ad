package handlers

import (
	"github.com/Lokhmat/ocr-backend/domain"
	"github.com/Lokhmat/ocr-backend/internal/api/presenters"
	"github.com/Lokhmat/ocr-backend/pkg/apitoken"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	TokenHandler interface {
		CreateToken(c *fiber.Ctx) error
	}

	tokenHandler struct {
		tokenService apitoken.TokenService
		validator    *validator.Validate
	}
)

func NewTokenHandler(tokenService apitoken.TokenService, validator *validator.Validate) TokenHandler {
	return &tokenHandler{
		tokenService: tokenService,
		validator:    validator,
	}
}

func (h *tokenHandler) CreateToken(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.CreateTokenRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateToken, err)
	}

	res, err := h.tokenService.CreateToken(c.Context(), userID, *req)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateToken, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateToken)
}
