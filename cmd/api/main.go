package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/licitaciones-api/internal/application/auth"
	"github.com/jhoicas/licitaciones-api/internal/application/bid"
	"github.com/jhoicas/licitaciones-api/internal/application/mail"
	"github.com/jhoicas/licitaciones-api/internal/application/messaging"
	"github.com/jhoicas/licitaciones-api/internal/application/ports"
	"github.com/jhoicas/licitaciones-api/internal/application/report"
	"github.com/jhoicas/licitaciones-api/internal/application/tender"
	"github.com/jhoicas/licitaciones-api/internal/application/usecase"
	"github.com/jhoicas/licitaciones-api/internal/domain/permission"
	"github.com/jhoicas/licitaciones-api/internal/infrastructure/codestore"
	infrapdf "github.com/jhoicas/licitaciones-api/internal/infrastructure/pdf"
	"github.com/jhoicas/licitaciones-api/internal/infrastructure/postgres"
	"github.com/jhoicas/licitaciones-api/internal/infrastructure/scheduler"
	"github.com/jhoicas/licitaciones-api/internal/infrastructure/sms"
	"github.com/jhoicas/licitaciones-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/licitaciones-api/internal/interfaces/http"
	"github.com/jhoicas/licitaciones-api/pkg/config"
	"github.com/jhoicas/licitaciones-api/pkg/logger"
	"github.com/jhoicas/licitaciones-api/pkg/tracing"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")
	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	ctx := context.Background()
	shutdownTracing, err := tracing.Setup(ctx, cfg.App.Name, cfg.Tracing.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar trazas")
	}

	if cfg.DB.Migrate {
		if err := postgres.Migrate(cfg.DB, log.Component("migrate")); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	fileStore, err := storage.NewLocalStorage(cfg.Storage.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("directorio de archivos")
	}

	userRepo := postgres.NewUserRepository(pool)
	tenderRepo := postgres.NewTenderRepository(pool)
	bidRepo := postgres.NewBidRepository(pool)
	conversationRepo := postgres.NewConversationRepository(pool)
	messageRepo := postgres.NewMessageRepository(pool)
	mailRepo := postgres.NewMailRepository(pool)
	detailsRepo := postgres.NewTendererDetailsRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Códigos de login: Redis si está configurado, si no memoria del proceso
	var codes ports.CodeStore
	if cfg.Redis.Addr != "" {
		rdb := codestore.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rdb.Close()
		codes = codestore.NewRedisStore(rdb)
	} else {
		codes = codestore.NewMemoryStore(time.Minute)
	}

	// Pasarela SMS; en desarrollo solo se registra el código en el log
	var smsSender ports.SMSSender
	if cfg.SMS.GatewayURL != "" {
		smsSender = sms.NewGatewayClient(cfg.SMS.GatewayURL, cfg.SMS.APIKey, cfg.SMS.SignName)
	} else {
		smsSender = sms.NewLogSender(log.Component("sms"))
	}

	perms := permission.Default()
	notifier := mail.NewNotifier(log.Component("mail"))

	authUC := auth.NewAuthUseCase(userRepo, smsSender, codes, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, auth.SMSConfig{
		LoginTemplate: cfg.SMS.LoginTemplate,
		CodeTTL:       cfg.SMS.CodeTTL,
	}, log.Component("auth"))
	mailUC := mail.NewUseCase(mailRepo, userRepo, tenderRepo, bidRepo, conversationRepo, messageRepo)
	userUC := usecase.NewUserUseCase(userRepo, perms).WithSenderNames(mailUC)
	tendererUC := usecase.NewTendererUseCase(detailsRepo, userRepo, mailRepo, fileStore, perms, notifier)
	tenderUC := tender.NewUseCase(tenderRepo, bidRepo, userRepo, txRunner, fileStore, perms, notifier, log.Component("tender"))
	bidUC := bid.NewUseCase(bidRepo, tenderRepo, detailsRepo, fileStore, perms, log.Component("bid"))
	messagingUC := messaging.NewUseCase(tenderRepo, conversationRepo, messageRepo, txRunner, fileStore, perms, notifier, log.Component("messaging"))
	reportUC := report.NewUseCase(tenderUC, userRepo, infrapdf.NewMarotoPDFGenerator())

	sweeper := scheduler.NewSweeper(tenderUC, cfg.Sweeper.Interval, log.Component("sweeper"))
	sweepCtx, stopSweep := context.WithCancel(ctx)
	sweeper.Start(sweepCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    cfg.HTTP.BodyLimitMB * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(httpRouter.MetricsMiddleware())

	// Swagger UI en local: http://localhost:<port>/docs (requiere generar docs/swagger.json)
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Licitaciones API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "db_unavailable", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		UserUC:      userUC,
		TendererUC:  tendererUC,
		TenderUC:    tenderUC,
		BidUC:       bidUC,
		MessagingUC: messagingUC,
		MailUC:      mailUC,
		ReportUC:    reportUC,
		Files:       fileStore,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopSweep()
	sweeper.Stop()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de trazas")
	}

	log.Info().Msg("aplicación detenida")
}
