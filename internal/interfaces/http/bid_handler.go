package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/licitaciones-api/internal/application/bid"
	"github.com/jhoicas/licitaciones-api/internal/application/dto"
)

// BidHandler ofertas y evaluaciones.
type BidHandler struct {
	uc *bid.UseCase
}

// NewBidHandler construye el handler.
func NewBidHandler(uc *bid.UseCase) *BidHandler {
	return &BidHandler{uc: uc}
}

// Submit godoc
// @Summary      Presentar oferta
// @Tags         bids
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      string  true   "ID de la licitación"
// @Param        data   formData  string  true   "JSON dto.SubmitBidRequest"
// @Param        files  formData  file    false  "Documentos de la oferta"
// @Success      201  {object}  dto.BidResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/tenders/{id}/bids [post]
func (h *BidHandler) Submit(c *fiber.Ctx) error {
	var in dto.SubmitBidRequest
	body, err := parseBody(c, &in, filesField)
	if err != nil {
		return invalidBody(c)
	}
	defer body.Close()
	out, err := h.uc.Submit(c.UserContext(), actor(c), c.Params("id"), in, body.Files(filesField))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Mine godoc
// @Summary      Ofertas propias
// @Tags         bids
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.BidResponse
// @Router       /api/bids/mine [get]
func (h *BidHandler) Mine(c *fiber.Ctx) error {
	out, err := h.uc.ListMine(c.UserContext(), actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Detalle de oferta
// @Tags         bids
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la oferta"
// @Success      200  {object}  dto.BidResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/bids/{id} [get]
func (h *BidHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Evaluate godoc
// @Summary      Evaluar oferta
// @Tags         bids
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      string  true   "ID de la oferta"
// @Param        data   formData  string  true   "JSON dto.AddEvaluationRequest"
// @Param        files  formData  file    false  "Soportes"
// @Success      201  {object}  dto.BidResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/bids/{id}/evaluations [post]
func (h *BidHandler) Evaluate(c *fiber.Ctx) error {
	var in dto.AddEvaluationRequest
	body, err := parseBody(c, &in, filesField)
	if err != nil {
		return invalidBody(c)
	}
	defer body.Close()
	out, err := h.uc.AddEvaluation(c.UserContext(), actor(c), c.Params("id"), in, body.Files(filesField))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
