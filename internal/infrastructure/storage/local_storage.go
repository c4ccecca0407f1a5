// Package storage guarda archivos subidos en el disco local.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/licitaciones-api/internal/application/ports"
)

var _ ports.FileStorage = (*LocalStorage)(nil)

// LocalStorage escribe bajo un directorio raíz. La ruta devuelta es relativa a esa raíz.
type LocalStorage struct {
	root string
	now  func() time.Time
}

// NewLocalStorage crea el directorio raíz si no existe.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio de subidas: %w", err)
	}
	return &LocalStorage{root: root, now: time.Now}, nil
}

// Save copia r a un archivo nuevo con nombre <timestamp>_<uuid corto>_<nombre original>.
func (s *LocalStorage) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%d_%s_%s", s.now().UnixMilli(), uuid.New().String()[:8], sanitize(filename))
	f, err := os.OpenFile(filepath.Join(s.root, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("crear archivo: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("escribir archivo: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("cerrar archivo: %w", err)
	}
	return name, nil
}

// Delete borra el archivo. Borrar uno inexistente no es error.
func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("borrar archivo: %w", err)
	}
	return nil
}

// Open abre un archivo guardado para servirlo.
func (s *LocalStorage) Open(path string) (*os.File, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// resolve impide salir de la raíz con rutas como ../../etc/passwd.
func (s *LocalStorage) resolve(path string) (string, error) {
	clean := filepath.Base(filepath.Clean("/" + path))
	if clean == "/" || clean == "." || clean != filepath.Clean(path) {
		return "", fmt.Errorf("ruta inválida: %q", path)
	}
	return filepath.Join(s.root, clean), nil
}

func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r < 32 || r == '/' || r == ':':
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
