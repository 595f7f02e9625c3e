// Package routes defines the API routing configuration. It wires
// repositories into services, services into handlers, and handlers into
// route groups with the required middleware.
package routes

import (
	"atlasbank/internal/handlers"
	"atlasbank/internal/middleware"
	"atlasbank/internal/repositories"
	"atlasbank/internal/services/account"
	"atlasbank/internal/services/auth"
	"atlasbank/internal/services/beneficiary"
	"atlasbank/internal/services/ledger"
	"atlasbank/internal/services/notification"
	"atlasbank/internal/services/otp"
	"atlasbank/internal/services/transfer"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Repositories
	userRepo := repositories.NewUserRepository(db)
	accountRepo := repositories.NewAccountRepository(db)
	beneficiaryRepo := repositories.NewBeneficiaryRepository(db)
	otpRepo := repositories.NewOTPRepository(db)
	transferRepo := repositories.NewTransferRepository(db)
	ledgerRepo := repositories.NewLedgerRepository(db)

	// Services, wired bottom-up
	dispatcher := notification.NewDispatcher()
	authService := auth.NewService(userRepo)
	ledgerService := ledger.NewService(ledgerRepo)
	accountService := account.NewService(accountRepo, repositories.Cache)
	otpService := otp.NewService(otpRepo, repositories.Cache, dispatcher)
	beneficiaryService := beneficiary.NewService(beneficiaryRepo)
	transferService := transfer.NewService(
		transferRepo,
		accountService,
		otpService,
		beneficiaryRepo,
		dispatcher,
		repositories.Cache,
	)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	accountHandler := handlers.NewAccountHandler(accountService, ledgerService)
	transferHandler := handlers.NewTransferHandler(transferService)
	beneficiaryHandler := handlers.NewBeneficiaryHandler(beneficiaryService)
	otpHandler := handlers.NewOTPHandler(otpService)

	app.Get("/health", handlers.HealthCheck)

	api := app.Group("/api")

	// Public endpoints
	api.Post("/register", authHandler.RegisterUser)
	api.Post("/login", authHandler.LoginUser)
	api.Post("/refresh", authHandler.RefreshToken)

	// Everything below requires a valid bearer token.
	authMiddleware := middleware.NewAuthMiddleware(authService)
	protected := api.Use(authMiddleware.Handler)

	protected.Post("/logout", authHandler.LogoutUser)
	protected.Post("/change-password", authHandler.ChangePassword)

	setupAccountRoutes(protected, accountHandler, transferHandler)
	setupTransferRoutes(protected, transferHandler)
	setupBeneficiaryRoutes(protected, beneficiaryHandler)

	protected.Post("/otp/resend", otpHandler.ResendOTP)
}

func setupAccountRoutes(router fiber.Router, h *handlers.AccountHandler, th *handlers.TransferHandler) {
	accounts := router.Group("/accounts")

	accounts.Post("/", h.OpenAccount)
	accounts.Get("/", h.ListAccounts)
	accounts.Get("/:id", h.GetAccount)
	accounts.Get("/:id/balance", h.GetBalance)
	accounts.Get("/:id/statement", h.GetStatement)

	accounts.Post("/:id/deposit", h.Deposit)
	accounts.Post("/:id/withdraw", h.Withdraw)
	accounts.Post("/:id/transfer", th.DirectTransfer)
	accounts.Get("/:id/transfers", th.ListTransfers)

	accounts.Post("/:id/block", h.BlockAccount)
	accounts.Post("/:id/unblock", h.UnblockAccount)
	accounts.Post("/:id/close", h.CloseAccount)
}

func setupTransferRoutes(router fiber.Router, h *handlers.TransferHandler) {
	transfers := router.Group("/transfers")

	transfers.Post("/initiate", h.InitiateTransfer)
	transfers.Post("/confirm", h.ConfirmTransfer)
	transfers.Get("/:id", h.GetTransfer)
}

func setupBeneficiaryRoutes(router fiber.Router, h *handlers.BeneficiaryHandler) {
	beneficiaries := router.Group("/beneficiaries")

	beneficiaries.Post("/", h.CreateBeneficiary)
	beneficiaries.Get("/", h.ListBeneficiaries)
	beneficiaries.Get("/:id", h.GetBeneficiary)
	beneficiaries.Put("/:id", h.UpdateBeneficiary)
	beneficiaries.Post("/:id/verify", h.VerifyBeneficiary)
	beneficiaries.Delete("/:id", h.DeleteBeneficiary)
}
