package ports

import (
	"context"
	"time"
)

// SMSSender canal saliente para códigos de inicio de sesión.
// Un fallo se propaga como error de la petición; no se reintenta.
type SMSSender interface {
	Send(ctx context.Context, phone, template string, params map[string]string) error
}

// CodeStore guarda códigos de un solo uso con expiración.
type CodeStore interface {
	Put(ctx context.Context, key, code string, ttl time.Duration) error
	// Take devuelve el código y lo elimina; ok es false si no existe o expiró.
	Take(ctx context.Context, key string) (code string, ok bool, err error)
}
