package router

import (
	"net/http"

	"github.com/construct/backend/internal/interfaces/http/handler"
	"github.com/construct/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers bundles the handlers mounted by the router
type Handlers struct {
	Account     *handler.AccountHandler
	Transaction *handler.TransactionHandler
	Invoice     *handler.InvoiceHandler
	Payment     *handler.PaymentHandler

	// Ping reports database reachability for the health endpoint.
	// Nil means the check is skipped.
	Ping func() error
}

// Setup builds the gin engine with middleware and all accounting routes
// mounted under /api/v1/accounting
func Setup(logger *zap.Logger, corsOrigins []string, h Handlers) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(corsOrigins),
	)

	engine.GET("/health", func(c *gin.Context) {
		if h.Ping != nil {
			if err := h.Ping(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api/v1/accounting")

	accounts := api.Group("/accounts")
	{
		accounts.POST("", h.Account.Create)
		accounts.GET("", h.Account.List)
		accounts.GET("/tree", h.Account.Tree)
		accounts.GET("/:id", h.Account.Get)
		accounts.PUT("/:id", h.Account.Update)
		accounts.DELETE("/:id", h.Account.Delete)
	}

	transactions := api.Group("/transactions")
	{
		transactions.POST("", h.Transaction.Create)
		transactions.GET("", h.Transaction.List)
		transactions.GET("/:id", h.Transaction.Get)
		transactions.PUT("/:id", h.Transaction.Update)
		transactions.DELETE("/:id", h.Transaction.Delete)
		transactions.POST("/:id/approve", h.Transaction.Approve)
		transactions.POST("/:id/reject", h.Transaction.Reject)
	}

	invoices := api.Group("/invoices")
	{
		invoices.POST("", h.Invoice.Create)
		invoices.GET("", h.Invoice.List)
		invoices.GET("/:id", h.Invoice.Get)
		invoices.PUT("/:id", h.Invoice.Update)
		invoices.PATCH("/:id/status", h.Invoice.UpdateStatus)
		invoices.DELETE("/:id", h.Invoice.Delete)
	}

	payments := api.Group("/payments")
	{
		payments.POST("", h.Payment.Create)
		payments.GET("", h.Payment.List)
		payments.GET("/:id", h.Payment.Get)
		payments.PUT("/:id", h.Payment.Update)
		payments.PATCH("/:id/status", h.Payment.UpdateStatus)
		payments.POST("/:id/verify", h.Payment.Verify)
		payments.DELETE("/:id", h.Payment.Delete)
	}

	return engine
}
