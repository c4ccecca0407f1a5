package entity

import "time"

// FileDescriptor describe un archivo subido. El núcleo solo guarda la ruta devuelta por el almacenamiento.
type FileDescriptor struct {
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	UploadedAt time.Time `json:"uploaded_at"`
	UploadedBy string    `json:"uploaded_by"`
}
