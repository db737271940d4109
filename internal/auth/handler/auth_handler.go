package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/aegisx-boilerplate/aegisx-auth/internal/auth/dto"
	"github.com/aegisx-boilerplate/aegisx-auth/internal/auth/service"
	autherror "github.com/aegisx-boilerplate/aegisx-auth/internal/errors"
	"github.com/aegisx-boilerplate/aegisx-auth/pkg/logger"
)

type AuthHandler struct {
	sessions *service.SessionService
	validate *validator.Validate
}

func NewAuthHandler(sessions *service.SessionService) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		validate: validator.New(),
	}
}

// fail maps domain errors to status codes. Untyped errors are logged
// with context and answered with an opaque 500.
func fail(c *fiber.Ctx, err error) error {
	kind, ok := autherror.KindOf(err)
	if !ok {
		logger.Error().Err(err).Str("path", c.Path()).Msg("internal error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	status := fiber.StatusInternalServerError
	switch kind {
	case autherror.KindValidation:
		status = fiber.StatusBadRequest
	case autherror.KindConflict:
		status = fiber.StatusConflict
	case autherror.KindUnauthorized, autherror.KindTokenExpired,
		autherror.KindInvalidToken, autherror.KindWrongTokenType:
		status = fiber.StatusUnauthorized
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
		"kind":  string(kind),
	})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := h.sessions.Register(c.Context(), input)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := h.sessions.Login(c.Context(), input)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(result)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	pair, err := h.sessions.Refresh(c.Context(), input.RefreshToken)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(pair)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input dto.LogoutInput
	// An absent or malformed body is treated as no token; logout stays
	// idempotent either way.
	_ = c.BodyParser(&input)

	if err := h.sessions.Logout(c.Context(), input.RefreshToken); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	user, ok := c.Locals(localsUserKey).(*dto.UserOutput)
	if !ok {
		return fail(c, autherror.ErrUnauthorized)
	}

	if err := h.sessions.LogoutAll(c.Context(), user.ID); err != nil {
		return fail(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := c.Locals(localsUserKey).(*dto.UserOutput)
	if !ok {
		return fail(c, autherror.ErrUnauthorized)
	}

	return c.JSON(user)
}

func (h *AuthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
