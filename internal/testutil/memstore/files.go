package memstore

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// FileStore almacenamiento de archivos en memoria.
type FileStore struct {
	mu      sync.Mutex
	seq     int
	Saved   map[string][]byte
	Deleted []string
}

// NewFileStore crea un almacenamiento vacío.
func NewFileStore() *FileStore {
	return &FileStore{Saved: map[string][]byte{}}
}

func (f *FileStore) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	path := fmt.Sprintf("mem/%d_%s", f.seq, filename)
	f.Saved[path] = b
	return path, nil
}

func (f *FileStore) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Saved, path)
	f.Deleted = append(f.Deleted, path)
	return nil
}
