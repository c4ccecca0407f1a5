package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/application/report"
	"github.com/jhoicas/licitaciones-api/internal/application/tender"
)

// TenderHandler licitaciones, ciclo de vida y reporte de ofertas.
type TenderHandler struct {
	uc      *tender.UseCase
	reports *report.UseCase
}

// NewTenderHandler construye el handler.
func NewTenderHandler(uc *tender.UseCase, reports *report.UseCase) *TenderHandler {
	return &TenderHandler{uc: uc, reports: reports}
}

// Create godoc
// @Summary      Crear licitación
// @Tags         tenders
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        data   formData  string  true   "JSON dto.CreateTenderRequest"
// @Param        files  formData  file    false  "Adjuntos"
// @Success      201  {object}  dto.TenderResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/tenders [post]
func (h *TenderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTenderRequest
	body, err := parseBody(c, &in, filesField)
	if err != nil {
		return invalidBody(c)
	}
	defer body.Close()
	out, err := h.uc.Create(c.UserContext(), actor(c), in, body.Files(filesField))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar licitaciones visibles
// @Tags         tenders
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Filtrar por estado"
// @Param        limit   query  int     false  "Límite"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.TenderListResponse
// @Router       /api/tenders [get]
func (h *TenderHandler) List(c *fiber.Ctx) error {
	var in dto.TenderListRequest
	if err := c.QueryParser(&in); err != nil {
		return badRequest(c, "INVALID_QUERY", "parámetros inválidos")
	}
	out, err := h.uc.List(c.UserContext(), actor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Detalle de licitación
// @Tags         tenders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la licitación"
// @Success      200  {object}  dto.TenderResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tenders/{id} [get]
func (h *TenderHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Edit godoc
// @Summary      Editar licitación
// @Description  Requiere change_reason; guarda una versión con el estado anterior.
// @Tags         tenders
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      string  true   "ID de la licitación"
// @Param        data   formData  string  true   "JSON dto.EditTenderRequest"
// @Param        files  formData  file    false  "Adjuntos nuevos"
// @Success      200  {object}  dto.TenderResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/tenders/{id} [put]
func (h *TenderHandler) Edit(c *fiber.Ctx) error {
	var in dto.EditTenderRequest
	body, err := parseBody(c, &in, filesField)
	if err != nil {
		return invalidBody(c)
	}
	defer body.Close()
	out, err := h.uc.Edit(c.UserContext(), actor(c), c.Params("id"), in, body.Files(filesField))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Versions godoc
// @Summary      Historial de versiones de una licitación
// @Tags         tenders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la licitación"
// @Success      200  {array}  dto.TenderVersionResponse
// @Router       /api/tenders/{id}/versions [get]
func (h *TenderHandler) Versions(c *fiber.Ctx) error {
	out, err := h.uc.Versions(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Borrar licitación
// @Tags         tenders
// @Security     Bearer
// @Param        id  path  string  true  "ID de la licitación"
// @Success      204
// @Router       /api/tenders/{id} [delete]
func (h *TenderHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Approve godoc
// @Summary      Aprobar apertura de ofertas
// @Tags         tenders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la licitación"
// @Success      200  {object}  dto.ApprovalResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/tenders/{id}/approve [post]
func (h *TenderHandler) Approve(c *fiber.Ctx) error {
	out, err := h.uc.Approve(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ChangeStatus godoc
// @Summary      Cambiar estado manualmente
// @Tags         tenders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID de la licitación"
// @Param        body  body  dto.ChangeStatusRequest  true  "Estado destino"
// @Success      200   {object}  dto.TenderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/tenders/{id}/status [put]
func (h *TenderHandler) ChangeStatus(c *fiber.Ctx) error {
	var in dto.ChangeStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.ChangeStatus(c.UserContext(), actor(c), c.Params("id"), in.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Award godoc
// @Summary      Adjudicar licitación
// @Tags         tenders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID de la licitación"
// @Param        body  body  dto.SelectWinningBidRequest  true  "Oferta ganadora"
// @Success      200   {object}  dto.TenderResponse
// @Router       /api/tenders/{id}/award [post]
func (h *TenderHandler) Award(c *fiber.Ctx) error {
	var in dto.SelectWinningBidRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.BidID == "" {
		return badRequest(c, "VALIDATION", "bid_id es requerido")
	}
	out, err := h.uc.SelectWinningBid(c.UserContext(), actor(c), c.Params("id"), in.BidID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Bids godoc
// @Summary      Ofertas de una licitación
// @Tags         tenders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la licitación"
// @Success      200  {array}  dto.BidResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/tenders/{id}/bids [get]
func (h *TenderHandler) Bids(c *fiber.Ctx) error {
	out, err := h.uc.ListBids(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Reporte PDF de ofertas
// @Tags         tenders
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "ID de la licitación"
// @Success      200  {file}  binary
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/tenders/{id}/report [get]
func (h *TenderHandler) Report(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.reports.TenderBidReport(c.UserContext(), actor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="ofertas_`+id+`.pdf"`)
	return c.Send(pdf)
}
