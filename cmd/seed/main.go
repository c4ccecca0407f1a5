// seed crea el usuario administrador inicial; sin él nadie puede crear secretarios ni grupos de compras.
//
// Uso: go run ./cmd/seed <email> <teléfono> <password> [username]
// Lee la conexión a PostgreSQL de la misma configuración que la API (DATABASE_URL, DB_*).
// Si el email ya existe no hace nada.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/licitaciones-api/internal/application/auth"
	"github.com/jhoicas/licitaciones-api/internal/domain"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/infrastructure/postgres"
	"github.com/jhoicas/licitaciones-api/pkg/config"
	"github.com/jhoicas/licitaciones-api/pkg/logger"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Fprintln(os.Stderr, "uso: seed <email> <teléfono> <password> [username]")
		os.Exit(2)
	}
	email, phone, password := os.Args[1], os.Args[2], os.Args[3]
	username := "admin"
	if len(os.Args) > 4 {
		username = os.Args[4]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	if err := postgres.Migrate(cfg.DB, log.Component("migrate")); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	users := postgres.NewUserRepository(pool)
	user, err := auth.NewUser(username, email, phone, password, entity.RoleAdmin)
	if err != nil {
		log.Fatal().Err(err).Msg("datos del administrador")
	}
	err = users.Create(ctx, user)
	switch {
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		log.Info().Str("email", user.Email).Msg("el administrador ya existe")
	case err != nil:
		log.Fatal().Err(err).Msg("crear administrador")
	default:
		log.Info().Str("id", user.ID).Str("email", user.Email).Msg("administrador creado")
	}
}
