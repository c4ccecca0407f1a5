package http

import (
	"errors"
	"io/fs"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
)

// FileOpener lectura de archivos almacenados.
type FileOpener interface {
	Open(path string) (*os.File, error)
}

// FileHandler descarga de adjuntos.
type FileHandler struct {
	files FileOpener
}

// NewFileHandler construye el handler.
func NewFileHandler(files FileOpener) *FileHandler {
	return &FileHandler{files: files}
}

// Download godoc
// @Summary      Descargar un adjunto
// @Tags         files
// @Security     Bearer
// @Produce      application/octet-stream
// @Param        name  path  string  true  "Ruta devuelta en el descriptor del archivo"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/files/{name} [get]
func (h *FileHandler) Download(c *fiber.Ctx) error {
	f, err := h.files.Open(c.Params("name"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "archivo no encontrado"})
		}
		return badRequest(c, "INVALID_PATH", "ruta inválida")
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	// fasthttp cierra el stream al terminar la respuesta.
	return c.SendStream(f, int(info.Size()))
}
