// Package files persiste las subidas de una petición y arma los descriptores de dominio.
package files

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/application/ports"
	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
)

// Store guarda cada subida y devuelve sus descriptores en el mismo orden.
// Si una falla, borra las ya guardadas.
func Store(ctx context.Context, fs ports.FileStorage, uploads []dto.Upload, uploadedBy string, now time.Time) ([]entity.FileDescriptor, error) {
	out := make([]entity.FileDescriptor, 0, len(uploads))
	for _, u := range uploads {
		name := filepath.Base(u.Filename)
		if name == "." || name == string(filepath.Separator) || u.Reader == nil {
			Discard(ctx, fs, out)
			return nil, fmt.Errorf("archivo inválido %q: %w", u.Filename, domain.ErrInvalidInput)
		}
		path, err := fs.Save(ctx, name, u.Reader)
		if err != nil {
			Discard(ctx, fs, out)
			return nil, fmt.Errorf("guardar %s: %w: %w", name, domain.ErrUpstream, err)
		}
		out = append(out, entity.FileDescriptor{Filename: name, Path: path, UploadedAt: now, UploadedBy: uploadedBy})
	}
	return out, nil
}

// StoreOne igual que Store para una subida opcional; nil si u es nil.
func StoreOne(ctx context.Context, fs ports.FileStorage, u *dto.Upload, uploadedBy string, now time.Time) (*entity.FileDescriptor, error) {
	if u == nil {
		return nil, nil
	}
	stored, err := Store(ctx, fs, []dto.Upload{*u}, uploadedBy, now)
	if err != nil {
		return nil, err
	}
	return &stored[0], nil
}

// Discard borra los archivos ignorando errores; se usa para compensar una operación fallida.
func Discard(ctx context.Context, fs ports.FileStorage, files []entity.FileDescriptor) {
	for _, f := range files {
		_ = fs.Delete(ctx, f.Path)
	}
}
