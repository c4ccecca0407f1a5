package ports

import (
	"context"
	"io"
)

// FileStorage puerto de salida para archivos subidos.
// El núcleo solo guarda la ruta devuelta; los nombres son únicos por subida.
type FileStorage interface {
	Save(ctx context.Context, filename string, r io.Reader) (path string, err error)
	Delete(ctx context.Context, path string) error
}
