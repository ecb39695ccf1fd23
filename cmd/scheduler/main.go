package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/prasetya/credit-ledger/internal/config"
	"github.com/prasetya/credit-ledger/internal/notifier"
	"github.com/prasetya/credit-ledger/internal/repository"
	"github.com/prasetya/credit-ledger/internal/scheduler"
	"github.com/prasetya/credit-ledger/internal/service"
)

func main() {
	log.Println("Starting reminder sweep scheduler...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	accountRepo := repository.NewAccountRepository(db)
	obligationRepo := repository.NewObligationRepository(db)

	sink := notifier.NewRedisSink(redisClient, cfg.Redis.IntentChannel)
	sweepService := service.NewSweepService(accountRepo, obligationRepo, sink)

	c, err := scheduler.New(cfg, sweepService)
	if err != nil {
		log.Fatalf("Failed to schedule sweep job: %v", err)
	}

	c.Start()
	log.Printf("Scheduler started, sweep spec %q (%s)", cfg.Scheduler.SweepSpec, cfg.Scheduler.Timezone)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Println("Scheduler stopped")
}
