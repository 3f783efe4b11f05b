package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/recivo/recivo-api/internal/auth"
	"github.com/recivo/recivo-api/internal/constants"
	"github.com/recivo/recivo-api/internal/handlers"
	"github.com/recivo/recivo-api/internal/middleware"
)

// Handler definitions
var (
	healthHandler   *handlers.HealthHandler
	entityHandler   *handlers.EntityHandler
	customerHandler *handlers.CustomerHandler
	productHandler  *handlers.ProductHandler
	partnerHandler  *handlers.PartnerHandler
	invoiceHandler  *handlers.InvoiceHandler
	auditHandler    *handlers.AuditHandler
	reportHandler   *handlers.ReportHandler
	userHandler     *handlers.UserHandler

	authClient *auth.Client
)

// InitializeHandlers builds every handler on top of the shared services.
func InitializeHandlers(common *handlers.CommonServices, client *auth.Client) {
	authClient = client

	healthHandler = handlers.NewHealthHandler()
	entityHandler = handlers.NewEntityHandler(common)
	customerHandler = handlers.NewCustomerHandler(common)
	productHandler = handlers.NewProductHandler(common)
	partnerHandler = handlers.NewPartnerHandler(common)
	invoiceHandler = handlers.NewInvoiceHandler(common)
	auditHandler = handlers.NewAuditHandler(common)
	reportHandler = handlers.NewReportHandler(common)
	userHandler = handlers.NewUserHandler(common)
}

// InitializeRoutes wires the middleware stack and the API route tree.
// Viewers get read access only; accountants additionally get every
// write operation except user management, which is admin-only.
func InitializeRoutes(router *gin.Engine) {
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(configureCORS())

	// Swagger endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("/")
		protected.Use(authClient.Middleware())
		{
			protected.GET("/me", userHandler.Me)

			// Read routes, available to every role
			protected.GET("/entities", entityHandler.ListEntities)
			protected.GET("/entities/:id", entityHandler.GetEntity)
			protected.GET("/customers", customerHandler.ListCustomers)
			protected.GET("/customers/export", customerHandler.ExportCustomers)
			protected.GET("/customers/:id", customerHandler.GetCustomer)
			protected.GET("/products", productHandler.ListProducts)
			protected.GET("/products/:id", productHandler.GetProduct)
			protected.GET("/partners", partnerHandler.ListPartners)
			protected.GET("/partners/:id", partnerHandler.GetPartner)
			protected.GET("/invoices", invoiceHandler.ListInvoices)
			protected.GET("/invoices/export", invoiceHandler.ExportInvoices)
			protected.GET("/invoices/:id", invoiceHandler.GetInvoice)
			protected.GET("/invoices/:id/history", invoiceHandler.InvoiceHistory)
			protected.GET("/invoices/:id/pdf", invoiceHandler.DownloadInvoicePDF)
			protected.GET("/payments", invoiceHandler.ListPayments)
			protected.GET("/audit-logs", auditHandler.ListAuditLogs)
			protected.GET("/reports/aging", reportHandler.AgingReport)
			protected.GET("/reports/dashboard", reportHandler.Dashboard)

			// Write routes, admins and accountants only
			write := protected.Group("/")
			write.Use(auth.RequireRoles(constants.AdminRole, constants.AccountantRole))
			{
				write.POST("/entities", entityHandler.CreateEntity)
				write.PUT("/entities/:id", entityHandler.UpdateEntity)
				write.DELETE("/entities/:id", entityHandler.DeleteEntity)
				write.POST("/entities/import", entityHandler.ImportEntities)

				write.POST("/customers", customerHandler.CreateCustomer)
				write.PUT("/customers/:id", customerHandler.UpdateCustomer)
				write.DELETE("/customers/:id", customerHandler.DeleteCustomer)
				write.POST("/customers/import", customerHandler.ImportCustomers)

				write.POST("/products", productHandler.CreateProduct)
				write.PUT("/products/:id", productHandler.UpdateProduct)
				write.DELETE("/products/:id", productHandler.DeleteProduct)

				write.POST("/partners", partnerHandler.CreatePartner)
				write.PUT("/partners/:id", partnerHandler.UpdatePartner)
				write.DELETE("/partners/:id", partnerHandler.DeletePartner)

				write.POST("/invoices", invoiceHandler.CreateInvoice)
				write.PUT("/invoices/:id", invoiceHandler.UpdateInvoice)
				write.DELETE("/invoices/:id", invoiceHandler.DeleteInvoice)
				write.POST("/invoices/import", invoiceHandler.ImportInvoices)
				write.POST("/invoices/:id/convert", invoiceHandler.ConvertToInvoice)
				write.POST("/invoices/:id/send", invoiceHandler.SendInvoice)
				write.POST("/invoices/:id/pay", invoiceHandler.MarkInvoicePaid)
			}

			// User management, admins only
			admin := protected.Group("/")
			admin.Use(auth.RequireRoles(constants.AdminRole))
			{
				admin.GET("/users", userHandler.ListUsers)
				admin.PUT("/users/:id/role", userHandler.UpdateUserRole)
				admin.DELETE("/users/:id", userHandler.DeleteUser)

				admin.GET("/invitations", userHandler.ListInvitations)
				admin.POST("/invitations", userHandler.InviteUser)
				admin.DELETE("/invitations/:email", userHandler.RevokeInvitation)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}

// configureCORS returns a configured CORS middleware
func configureCORS() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	// Get allowed origins from environment variable
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv == "" {
		// Default to localhost if not set
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		origins := strings.Split(originsEnv, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		corsConfig.AllowOrigins = origins
	}

	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	corsConfig.AllowCredentials = true

	return cors.New(corsConfig)
}
