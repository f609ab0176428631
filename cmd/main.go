/**
 * @description
 * This is the main entry point for the payments-service. It is responsible for
 * initializing all components of the service, including configuration, database
 * connection, the message broker producer, repositories, the core application
 * services, and the HTTP server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/finflow/payments-service/internal/api"
	"github.com/finflow/payments-service/internal/app"
	"github.com/finflow/payments-service/internal/config"
	"github.com/finflow/payments-service/internal/store"
	"github.com/finflow/payments-service/pkg/rabbitmq"
)

func main() {
	// Load .env for local development; in containers envs come from the runtime.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}

	log.Printf("level=info component=bootstrap msg=\"starting payments-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	// Configure connection pool for high-traffic scenarios
	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Ensure required tables exist (idempotent)
	if err := store.EnsureSchema(context.Background(), dbpool); err != nil {
		log.Printf("level=warn component=bootstrap msg=\"schema ensure failed (may already exist)\" err=%v", err)
	}

	// Initialize the RabbitMQ producer to publish lifecycle events. A missing
	// broker degrades to the fallback producer rather than blocking boot.
	var producer rabbitmq.Publisher
	eventProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rabbitmq.EventProducerFallback{}
	} else {
		defer eventProducer.Close()
		producer = eventProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the data access layer (repositories).
	bankLinkRepo := store.NewPostgresBankLinkRepository(dbpool)
	payoutRepo := store.NewPostgresPayoutRepository(dbpool)
	customerRepo := store.NewPostgresCustomerRepository(dbpool)
	disbursementRepo := store.NewPostgresDisbursementRepository(dbpool)

	// Initialize the core application services.
	bankLinkService := app.NewBankLinkService(bankLinkRepo, producer)
	payoutService := app.NewPayoutService(payoutRepo, producer)
	customerService := app.NewCustomerService(customerRepo)
	disbursementService := app.NewDisbursementService(disbursementRepo, bankLinkRepo)

	// Initialize the API handlers and router.
	router := api.NewRouter(api.Handlers{
		Customers:     api.NewCustomerHandler(customerService),
		BankLinks:     api.NewBankLinkHandler(bankLinkService),
		Payouts:       api.NewPayoutHandler(payoutService),
		Disbursements: api.NewDisbursementHandler(disbursementService),
	}, cfg.JWKSURL)

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
