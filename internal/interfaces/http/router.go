package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/licitaciones-api/internal/application/auth"
	"github.com/jhoicas/licitaciones-api/internal/application/bid"
	"github.com/jhoicas/licitaciones-api/internal/application/mail"
	"github.com/jhoicas/licitaciones-api/internal/application/messaging"
	"github.com/jhoicas/licitaciones-api/internal/application/report"
	"github.com/jhoicas/licitaciones-api/internal/application/tender"
	"github.com/jhoicas/licitaciones-api/internal/application/usecase"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	UserUC      *usecase.UserUseCase
	TendererUC  *usecase.TendererUseCase
	TenderUC    *tender.UseCase
	BidUC       *bid.UseCase
	MessagingUC *messaging.UseCase
	MailUC      *mail.UseCase
	ReportUC    *report.UseCase
	Files       FileOpener
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/login-code", authHandler.RequestCode)
	authGroup.Post("/login-code/verify", authHandler.LoginWithCode)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Users; los permisos finos se validan en el caso de uso
	users := protected.Group("/users")
	userHandler := NewUserHandler(deps.UserUC)
	users.Get("/me", userHandler.Me)
	users.Put("/me", userHandler.UpdateSettings)
	users.Get("/", userHandler.List)
	users.Post("/", RequireRole(entity.RoleAdmin), userHandler.Create)
	users.Put("/:id/role", RequireRole(entity.RoleAdmin), userHandler.ChangeRole)
	users.Delete("/:id", RequireRole(entity.RoleAdmin), userHandler.Delete)

	// Tenderer details
	tenderers := protected.Group("/tenderers")
	tendererHandler := NewTendererHandler(deps.TendererUC)
	tenderers.Put("/me", RequireRole(entity.RoleTenderer), tendererHandler.Save)
	tenderers.Get("/:id", tendererHandler.Get)
	tenderers.Put("/:id/verify", tendererHandler.Verify)
	tenderers.Post("/:id/comments", tendererHandler.Comment)

	// Tenders
	tenders := protected.Group("/tenders")
	tenderHandler := NewTenderHandler(deps.TenderUC, deps.ReportUC)
	bidHandler := NewBidHandler(deps.BidUC)
	messageHandler := NewMessageHandler(deps.MessagingUC)
	tenders.Post("/", tenderHandler.Create)
	tenders.Get("/", tenderHandler.List)
	tenders.Get("/:id", tenderHandler.Get)
	tenders.Put("/:id", tenderHandler.Edit)
	tenders.Delete("/:id", tenderHandler.Delete)
	tenders.Get("/:id/versions", tenderHandler.Versions)
	tenders.Post("/:id/approve", tenderHandler.Approve)
	tenders.Put("/:id/status", tenderHandler.ChangeStatus)
	tenders.Post("/:id/award", tenderHandler.Award)
	tenders.Get("/:id/bids", tenderHandler.Bids)
	tenders.Post("/:id/bids", RequireRole(entity.RoleTenderer), bidHandler.Submit)
	tenders.Get("/:id/report", tenderHandler.Report)
	tenders.Get("/:id/conversations", messageHandler.Conversations)
	tenders.Post("/:id/messages", messageHandler.Post)

	// Bids
	bids := protected.Group("/bids")
	bids.Get("/mine", bidHandler.Mine)
	bids.Get("/:id", bidHandler.Get)
	bids.Post("/:id/evaluations", bidHandler.Evaluate)

	// Conversations
	protected.Get("/conversations/:id/messages", messageHandler.Messages)

	// Mails
	mails := protected.Group("/mails")
	mailHandler := NewMailHandler(deps.MailUC)
	mails.Get("/", mailHandler.Inbox)
	mails.Get("/unread-count", mailHandler.UnreadCount)
	mails.Put("/read", mailHandler.SetRead)
	mails.Post("/delete", mailHandler.Delete)

	// Files
	if deps.Files != nil {
		protected.Get("/files/:name", NewFileHandler(deps.Files).Download)
	}
}
