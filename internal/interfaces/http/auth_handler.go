package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/licitaciones-api/internal/application/auth"
	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/domain"
)

// AuthHandler maneja registro y login.
type AuthHandler struct {
	uc *auth.AuthUseCase
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// Register godoc
// @Summary      Registrar licitante
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "username, email, phone, password"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.Email == "" || in.Password == "" || in.Phone == "" || in.Username == "" {
		return badRequest(c, "VALIDATION", "username, email, phone y password son requeridos")
	}
	if len(in.Password) < 8 {
		return badRequest(c, "VALIDATION", "password debe tener al menos 8 caracteres")
	}
	user, err := h.uc.RegisterUser(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login godoc
// @Summary      Iniciar sesión con email y password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.Email == "" || in.Password == "" {
		return badRequest(c, "VALIDATION", "email y password son requeridos")
	}
	out, err := h.uc.Login(c.UserContext(), in)
	if err != nil {
		return loginError(c, err)
	}
	return c.JSON(out)
}

// RequestCode godoc
// @Summary      Solicitar código de acceso por SMS
// @Tags         auth
// @Accept       json
// @Param        body  body  dto.LoginCodeRequest  true  "phone"
// @Success      204
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/auth/login-code [post]
func (h *AuthHandler) RequestCode(c *fiber.Ctx) error {
	var in dto.LoginCodeRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.Phone == "" {
		return badRequest(c, "VALIDATION", "phone es requerido")
	}
	if err := h.uc.RequestLoginCode(c.UserContext(), in); err != nil {
		return loginError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LoginWithCode godoc
// @Summary      Iniciar sesión con código SMS
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginWithCodeRequest  true  "phone, code"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/login-code/verify [post]
func (h *AuthHandler) LoginWithCode(c *fiber.Ctx) error {
	var in dto.LoginWithCodeRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.Phone == "" || in.Code == "" {
		return badRequest(c, "VALIDATION", "phone y code son requeridos")
	}
	out, err := h.uc.LoginWithCode(c.UserContext(), in)
	if err != nil {
		return loginError(c, err)
	}
	return c.JSON(out)
}

// loginError no distingue usuario inexistente de credencial incorrecta.
func loginError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrUnauthorized) {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
	}
	return writeError(c, err)
}
