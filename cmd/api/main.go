package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/recivo/recivo-api/internal/auth"
	"github.com/recivo/recivo-api/internal/constants"
	"github.com/recivo/recivo-api/internal/db"
	"github.com/recivo/recivo-api/internal/handlers"
	"github.com/recivo/recivo-api/internal/logger"
	"github.com/recivo/recivo-api/internal/server"
	"github.com/recivo/recivo-api/internal/services"
)

// @title           Recivo API
// @version         1.0
// @description     Receivables and invoicing API for GST-registered businesses

// @host      localhost:8000
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and an ID token.
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	stage := os.Getenv("STAGE")
	if stage == "" {
		stage = constants.DevEnvironment
	}
	logger.InitLogger(stage)
	defer logger.Sync()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}
	appID := os.Getenv("APP_ID")
	if appID == "" {
		logger.Fatal("APP_ID environment variable is required")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dbURL)
	if err != nil {
		logger.Fatal("Unable to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	feed := db.NewChangeFeed()
	store := db.NewStore(pool, appID, feed)

	// Service construction
	audit := services.NewAuditService(store)
	tax := services.NewTaxService()
	entities := services.NewEntityService(store, audit)
	customers := services.NewCustomerService(store, audit)
	products := services.NewProductService(store, audit)
	partners := services.NewPartnerService(store, audit)
	users := services.NewUserService(store, audit)
	pdf := services.NewPDFService()
	reports := services.NewReportService(store, feed)
	defer reports.Close()

	var email services.EmailSender
	if apiKey := os.Getenv("RESEND_API_KEY"); apiKey != "" {
		email = services.NewEmailService(apiKey, os.Getenv("EMAIL_FROM_ADDRESS"), os.Getenv("EMAIL_FROM_NAME"), logger.Log)
	} else {
		logger.Warn("RESEND_API_KEY not set, invoice emails are disabled")
	}

	invoices := services.NewInvoiceService(store, tax, audit, pdf, email)
	spreadsheets := services.NewSpreadsheetService(store, entities, customers, invoices)

	authClient, err := auth.NewClient(auth.Config{
		JWKSURL:  os.Getenv("AUTH_JWKS_URL"),
		Issuer:   os.Getenv("AUTH_ISSUER"),
		Audience: os.Getenv("AUTH_AUDIENCE"),
	}, users)
	if err != nil {
		logger.Fatal("Unable to create auth client", zap.Error(err))
	}

	common := handlers.NewCommonServices(
		entities, customers, products, partners,
		invoices, audit, reports, users, spreadsheets,
	)

	if stage == constants.ProdEnvironment {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	server.InitializeHandlers(common, authClient)
	server.InitializeRoutes(router)

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8000"
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
