package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/prasetya/credit-ledger/internal/config"
	"github.com/prasetya/credit-ledger/internal/handler"
	"github.com/prasetya/credit-ledger/internal/repository"
	"github.com/prasetya/credit-ledger/internal/service"
	"github.com/prasetya/credit-ledger/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	obligationRepo := repository.NewObligationRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	reconciler := repository.NewReconciler(db, cfg.GetLockTimeout())

	// Initialize services
	ledgerService := service.NewLedgerService(accountRepo, obligationRepo, reconciler, cfg)
	paymentService := service.NewPaymentService(accountRepo, paymentRepo, reconciler, redisClient, cfg)

	ledgerHandler := handler.NewLedgerHandler(ledgerService, paymentService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	// Setup routes
	router := setupRoutes(ledgerHandler, healthHandler)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(ledgerHandler *handler.LedgerHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/accounts", ledgerHandler.CreateAccount).Methods("POST")
	api.HandleFunc("/accounts/{customerId}", ledgerHandler.GetAccount).Methods("GET")
	api.HandleFunc("/accounts/{customerId}", ledgerHandler.DeleteAccount).Methods("DELETE")
	api.HandleFunc("/accounts/{customerId}/limit", ledgerHandler.SetLimit).Methods("PUT")
	api.HandleFunc("/accounts/{customerId}/obligations", ledgerHandler.ExtendCredit).Methods("POST")
	api.HandleFunc("/accounts/{customerId}/obligations", ledgerHandler.ListObligations).Methods("GET")
	api.HandleFunc("/accounts/{customerId}/payments", ledgerHandler.RecordPayment).Methods("POST")
	api.HandleFunc("/accounts/{customerId}/payments", ledgerHandler.ListPayments).Methods("GET")
	api.HandleFunc("/accounts/{customerId}/aging", ledgerHandler.AgingReport).Methods("GET")
	api.HandleFunc("/payments/{paymentId}/allocations", ledgerHandler.ListPaymentAllocations).Methods("GET")
	api.HandleFunc("/obligations/{obligationId}/cancel", ledgerHandler.CancelObligation).Methods("POST")
	api.HandleFunc("/obligations/{obligationId}/settle", ledgerHandler.SettleObligation).Methods("POST")

	return router
}
