package http

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
)

// filesField campo multipart con los adjuntos genéricos.
const filesField = "files"

// multipartBody resultado de leer una petición que puede traer archivos.
// Los campos JSON van en el valor "data"; sin multipart, el cuerpo es JSON plano.
type multipartBody struct {
	uploads map[string][]dto.Upload
	closers []io.Closer
}

// Files adjuntos de un campo.
func (b *multipartBody) Files(field string) []dto.Upload {
	if b == nil {
		return nil
	}
	return b.uploads[field]
}

// File primer adjunto de un campo, o nil.
func (b *multipartBody) File(field string) *dto.Upload {
	files := b.Files(field)
	if len(files) == 0 {
		return nil
	}
	return &files[0]
}

// Close cierra los archivos abiertos; llamar con defer.
func (b *multipartBody) Close() {
	if b == nil {
		return
	}
	for _, c := range b.closers {
		_ = c.Close()
	}
}

// parseBody decodifica dst y abre los archivos de fields.
func parseBody(c *fiber.Ctx, dst any, fields ...string) (*multipartBody, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if len(c.Body()) == 0 {
			return &multipartBody{}, nil
		}
		return &multipartBody{}, c.BodyParser(dst)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	if data := form.Value["data"]; len(data) > 0 && data[0] != "" {
		if err := c.App().Config().JSONDecoder([]byte(data[0]), dst); err != nil {
			return nil, err
		}
	}
	body := &multipartBody{uploads: make(map[string][]dto.Upload)}
	for _, field := range fields {
		for _, fh := range form.File[field] {
			f, err := fh.Open()
			if err != nil {
				body.Close()
				return nil, err
			}
			body.closers = append(body.closers, f)
			body.uploads[field] = append(body.uploads[field], dto.Upload{Filename: fh.Filename, Reader: f})
		}
	}
	return body, nil
}
