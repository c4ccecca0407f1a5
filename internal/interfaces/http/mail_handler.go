package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/application/mail"
)

// MailHandler bandeja de notificaciones.
type MailHandler struct {
	uc *mail.UseCase
}

// NewMailHandler construye el handler.
func NewMailHandler(uc *mail.UseCase) *MailHandler {
	return &MailHandler{uc: uc}
}

// Inbox godoc
// @Summary      Bandeja de entrada
// @Tags         mails
// @Security     Bearer
// @Produce      json
// @Param        unread_only   query  bool  false  "Solo no leídos"
// @Param        newest_first  query  bool  false  "Más recientes primero"
// @Success      200  {array}  dto.MailResponse
// @Router       /api/mails [get]
func (h *MailHandler) Inbox(c *fiber.Ctx) error {
	var in dto.InboxRequest
	if err := c.QueryParser(&in); err != nil {
		return badRequest(c, "INVALID_QUERY", "parámetros inválidos")
	}
	out, err := h.uc.Inbox(c.UserContext(), actor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UnreadCount godoc
// @Summary      Cantidad de correos sin leer
// @Tags         mails
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.UnreadCountResponse
// @Router       /api/mails/unread-count [get]
func (h *MailHandler) UnreadCount(c *fiber.Ctx) error {
	n, err := h.uc.UnreadCount(c.UserContext(), actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.UnreadCountResponse{Unread: n})
}

// SetRead godoc
// @Summary      Marcar correos como leídos o no leídos
// @Tags         mails
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SetReadRequest  true  "ids y read"
// @Success      200   {object}  dto.AffectedResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/mails/read [put]
func (h *MailHandler) SetRead(c *fiber.Ctx) error {
	var in dto.SetReadRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if len(in.IDs) == 0 {
		return badRequest(c, "VALIDATION", "ids es requerido")
	}
	n, err := h.uc.SetRead(c.UserContext(), actor(c), in.IDs, in.Read)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AffectedResponse{Affected: n})
}

// Delete godoc
// @Summary      Borrar correos
// @Tags         mails
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MailIDsRequest  true  "ids"
// @Success      200   {object}  dto.AffectedResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/mails/delete [post]
func (h *MailHandler) Delete(c *fiber.Ctx) error {
	var in dto.MailIDsRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if len(in.IDs) == 0 {
		return badRequest(c, "VALIDATION", "ids es requerido")
	}
	n, err := h.uc.Delete(c.UserContext(), actor(c), in.IDs)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AffectedResponse{Affected: n})
}
