package files_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/application/files"
	"github.com/jhoicas/licitaciones-api/internal/domain"
)

type memStorage struct {
	saved   map[string]string
	deleted []string
	failOn  string
}

func (m *memStorage) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if name == m.failOn {
		return "", errors.New("disco lleno")
	}
	b, _ := io.ReadAll(r)
	path := "uploads/1_" + name
	m.saved[path] = string(b)
	return path, nil
}

func (m *memStorage) Delete(_ context.Context, path string) error {
	m.deleted = append(m.deleted, path)
	delete(m.saved, path)
	return nil
}

func TestStore_Descriptores(t *testing.T) {
	fs := &memStorage{saved: map[string]string{}}
	now := time.Now()

	got, err := files.Store(context.Background(), fs, []dto.Upload{
		{Filename: "../../pliego.pdf", Reader: strings.NewReader("pdf")},
	}, "u1", now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "pliego.pdf", got[0].Filename, "se descarta la ruta del cliente")
	assert.Equal(t, "uploads/1_pliego.pdf", got[0].Path)
	assert.Equal(t, "u1", got[0].UploadedBy)
	assert.Equal(t, now, got[0].UploadedAt)
}

func TestStore_FalloCompensa(t *testing.T) {
	fs := &memStorage{saved: map[string]string{}, failOn: "b.pdf"}

	_, err := files.Store(context.Background(), fs, []dto.Upload{
		{Filename: "a.pdf", Reader: strings.NewReader("a")},
		{Filename: "b.pdf", Reader: strings.NewReader("b")},
	}, "u1", time.Now())

	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Equal(t, []string{"uploads/1_a.pdf"}, fs.deleted)
	assert.Empty(t, fs.saved)
}

func TestStoreOne_Nil(t *testing.T) {
	got, err := files.StoreOne(context.Background(), &memStorage{}, nil, "u1", time.Now())
	require.NoError(t, err)
	assert.Nil(t, got)
}
