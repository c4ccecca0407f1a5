package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/application/messaging"
)

// MessageHandler conversaciones por licitación.
type MessageHandler struct {
	uc *messaging.UseCase
}

// NewMessageHandler construye el handler.
func NewMessageHandler(uc *messaging.UseCase) *MessageHandler {
	return &MessageHandler{uc: uc}
}

// Post godoc
// @Summary      Enviar mensaje en una licitación
// @Description  Un licitante escribe en su propio hilo; los roles privilegiados indican tenderer_id.
// @Tags         messages
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      string  true   "ID de la licitación"
// @Param        data   formData  string  true   "JSON dto.PostMessageRequest"
// @Param        files  formData  file    false  "Adjuntos"
// @Success      201  {object}  dto.PostMessageResponse
// @Router       /api/tenders/{id}/messages [post]
func (h *MessageHandler) Post(c *fiber.Ctx) error {
	var in dto.PostMessageRequest
	body, err := parseBody(c, &in, filesField)
	if err != nil {
		return invalidBody(c)
	}
	defer body.Close()
	out, err := h.uc.PostMessage(c.UserContext(), actor(c), c.Params("id"), in, body.Files(filesField))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Conversations godoc
// @Summary      Conversaciones de una licitación
// @Tags         messages
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la licitación"
// @Success      200  {array}  dto.ConversationResponse
// @Router       /api/tenders/{id}/conversations [get]
func (h *MessageHandler) Conversations(c *fiber.Ctx) error {
	out, err := h.uc.ListConversations(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Messages godoc
// @Summary      Mensajes de una conversación
// @Tags         messages
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la conversación"
// @Success      200  {array}  dto.MessageResponse
// @Router       /api/conversations/{id}/messages [get]
func (h *MessageHandler) Messages(c *fiber.Ctx) error {
	out, err := h.uc.Messages(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
