package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/application/usecase"
)

// Campos multipart de los datos de licitante.
const (
	fieldBusinessLicense = "business_license"
	fieldBusinessCard    = "business_card"
)

// TendererHandler datos empresariales de licitantes.
type TendererHandler struct {
	uc *usecase.TendererUseCase
}

// NewTendererHandler construye el handler.
func NewTendererHandler(uc *usecase.TendererUseCase) *TendererHandler {
	return &TendererHandler{uc: uc}
}

// Save godoc
// @Summary      Guardar datos propios de licitante
// @Tags         tenderers
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        data              formData  string  true   "JSON dto.SaveTendererDetailsRequest"
// @Param        business_license  formData  file    false  "Licencia comercial"
// @Param        business_card     formData  file    false  "Tarjeta del representante legal"
// @Success      200  {object}  dto.TendererDetailsResponse
// @Router       /api/tenderers/me [put]
func (h *TendererHandler) Save(c *fiber.Ctx) error {
	var in dto.SaveTendererDetailsRequest
	body, err := parseBody(c, &in, fieldBusinessLicense, fieldBusinessCard)
	if err != nil {
		return invalidBody(c)
	}
	defer body.Close()
	out, err := h.uc.Save(c.UserContext(), actor(c), in, usecase.TendererUploads{
		BusinessLicense:      body.File(fieldBusinessLicense),
		LegalRepBusinessCard: body.File(fieldBusinessCard),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Datos de un licitante
// @Tags         tenderers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del usuario licitante"
// @Success      200  {object}  dto.TendererDetailsResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tenderers/{id} [get]
func (h *TendererHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "me" {
		id = GetUserID(c)
	}
	out, err := h.uc.Get(c.UserContext(), actor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Verify godoc
// @Summary      Marcar verificación de un licitante
// @Tags         tenderers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del usuario licitante"
// @Param        body  body  dto.VerifyTendererRequest  true  "verified"
// @Success      200   {object}  dto.TendererDetailsResponse
// @Router       /api/tenderers/{id}/verify [put]
func (h *TendererHandler) Verify(c *fiber.Ctx) error {
	var in dto.VerifyTendererRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Verify(c.UserContext(), actor(c), c.Params("id"), in.Verified)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Comment godoc
// @Summary      Comentar los datos de un licitante
// @Tags         tenderers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID del usuario licitante"
// @Param        body  body  dto.CommentRequest  true  "Texto"
// @Success      201   {object}  dto.TendererDetailsResponse
// @Router       /api/tenderers/{id}/comments [post]
func (h *TendererHandler) Comment(c *fiber.Ctx) error {
	var in dto.CommentRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.AddComment(c.UserContext(), actor(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
