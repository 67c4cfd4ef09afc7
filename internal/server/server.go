// Package server assembles the services, handlers, and routes shared by
// the API binary and the command line tool.
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"finledger/internal/config"
	"finledger/internal/events"
	"finledger/internal/handlers"
	"finledger/internal/logger"
	"finledger/internal/middleware"
	"finledger/internal/provider"
	"finledger/internal/services"
)

// Dependencies are the external collaborators of the services.
type Dependencies struct {
	DB              *gorm.DB
	Quotes          provider.QuoteProvider
	Rates           provider.RateProvider
	Publisher       events.Publisher
	DefaultCurrency string
}

// NewDependencies builds the HTTP providers and the event publisher from
// configuration. The caller owns Publisher and must close it.
func NewDependencies(cfg *config.Config, db *gorm.DB) (Dependencies, error) {
	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}

	publisher, err := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return Dependencies{}, fmt.Errorf("failed to create event publisher: %w", err)
	}

	return Dependencies{
		DB:              db,
		Quotes:          provider.NewYahooQuotes(httpClient, cfg.QuotesBaseURL, cfg.QuoteRequestsPerSecond),
		Rates:           provider.NewRatesClient(httpClient, cfg.RatesBaseURL, cfg.RatesCacheTTL),
		Publisher:       publisher,
		DefaultCurrency: cfg.DefaultCurrency,
	}, nil
}

// Services is the wired service graph.
type Services struct {
	Ledger       services.LedgerServicer
	Accounts     services.AccountServicer
	Transactions services.TransactionServicer
	Investments  services.InvestmentServicer
	Schedules    services.ScheduleServicer
	Recurring    services.RecurringProcessor
	Estimates    services.EstimateServicer
	Audit        services.AuditServicer
}

// NewServices wires every service against one database handle.
func NewServices(deps Dependencies) *Services {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	ledger := services.NewLedgerService(deps.DB, deps.Quotes)
	schedules := services.NewScheduleService(deps.DB)

	return &Services{
		Ledger:       ledger,
		Accounts:     services.NewAccountService(deps.DB, ledger),
		Transactions: services.NewTransactionService(deps.DB),
		Investments:  services.NewInvestmentService(deps.DB),
		Schedules:    schedules,
		Recurring:    services.NewRecurringEngine(deps.DB, schedules, ledger, publisher),
		Estimates:    services.NewEstimateService(deps.DB, schedules, deps.Rates, deps.DefaultCurrency),
		Audit:        services.NewAuditService(deps.DB),
	}
}

// NewRouter registers every route on a fresh gin engine. An empty
// pipelineAPIKey leaves the pipeline endpoints answering 503.
func NewRouter(svc *Services, db *gorm.DB, pipelineAPIKey string) *gin.Engine {
	accountHandler := handlers.NewAccountHandler(svc.Accounts, svc.Ledger, svc.Transactions, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Ledger, svc.Transactions, svc.Audit)
	investmentHandler := handlers.NewInvestmentHandler(svc.Investments, svc.Ledger, svc.Audit)
	transferHandler := handlers.NewTransferHandler(svc.Ledger, svc.Investments, svc.Audit)
	scheduleHandler := handlers.NewScheduleHandler(svc.Schedules, svc.Audit)
	estimateHandler := handlers.NewEstimateHandler(svc.Estimates)
	pipelineHandler := handlers.NewPipelineHandler(svc.Recurring, svc.Audit)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			logger.Named("health").Warnw("database ping failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	accounts := v1.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.ListAccounts)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.PUT("/:id/balance", accountHandler.SetBalance)
	accounts.POST("/:id/reconcile", accountHandler.ReconcileAccount)
	accounts.GET("/:id/transactions", accountHandler.ListAccountTransactions)
	accounts.GET("/:id/investment-transactions", investmentHandler.ListInvestmentTransactions)

	transactions := v1.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	investments := v1.Group("/investment-transactions")
	investments.GET("/:id", investmentHandler.GetInvestmentTransaction)
	investments.DELETE("/:id", investmentHandler.DeleteInvestmentTransaction)

	transfers := v1.Group("/transfers")
	transfers.POST("", transferHandler.CreateTransfer)
	transfers.GET("/:id", transferHandler.GetTransfer)
	transfers.DELETE("/:id", transferHandler.DeleteTransfer)

	schedules := v1.Group("/schedules")
	schedules.POST("", scheduleHandler.CreateSchedule)
	schedules.GET("", scheduleHandler.ListSchedules)
	schedules.GET("/:id", scheduleHandler.GetSchedule)
	schedules.PUT("/:id", scheduleHandler.UpdateSchedule)
	schedules.DELETE("/:id", scheduleHandler.DeleteSchedule)

	v1.GET("/estimates", estimateHandler.GetEstimate)

	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(pipelineAPIKey))
	pipeline.POST("/recurring/process", pipelineHandler.ProcessRecurring)

	return router
}
