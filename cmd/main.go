/**
 * @description
 * This is the main entry point for the payment-service. It is responsible
 * for initializing all components of the service, including configuration,
 * database connection, the payment gateway client, the message broker
 * producer, repositories, the application services, and the HTTP server. It
 * wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/stripeclient: Client for the Stripe charge API.
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
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/cardway/payment-service/internal/api"
	"github.com/cardway/payment-service/internal/app"
	"github.com/cardway/payment-service/internal/auth"
	"github.com/cardway/payment-service/internal/config"
	"github.com/cardway/payment-service/internal/metrics"
	"github.com/cardway/payment-service/internal/store"
	rmrabbit "github.com/cardway/payment-service/pkg/rabbitmq"
	"github.com/cardway/payment-service/pkg/stripeclient"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}

	log.Printf("level=info component=bootstrap msg=\"starting payment-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

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
	if _, err := dbpool.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            email TEXT NOT NULL,
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            phone_number TEXT NOT NULL DEFAULT '',
            user_role TEXT NOT NULL DEFAULT 'CUSTOMER',
            password_hash TEXT NOT NULL,
            reset_token TEXT,
            failed_login_attempts INT NOT NULL DEFAULT 0,
            is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE UNIQUE INDEX IF NOT EXISTS users_email_unique ON users (LOWER(email));
        CREATE TABLE IF NOT EXISTS payment_transactions (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL REFERENCES users (id),
            description TEXT NOT NULL,
            amount BIGINT NOT NULL,
            currency TEXT NOT NULL,
            gateway_token TEXT NOT NULL UNIQUE,
            gateway_email TEXT NOT NULL DEFAULT '',
            gateway_id TEXT,
            gateway_status TEXT,
            fee BIGINT,
            status TEXT NOT NULL DEFAULT 'NEW',
            error_message TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS payment_transactions_user_created ON payment_transactions (user_id, created_at DESC);
    `); err != nil {
		log.Printf("level=warn component=bootstrap msg=\"failed ensuring tables (may already exist)\" err=%v", err)
	}

	// Initialize the RabbitMQ producer for the recovery mail events. A
	// missing broker degrades to a no-op publisher instead of blocking boot.
	var producer rmrabbit.Publisher
	eventProducer, err := rmrabbit.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rmrabbit.EventProducerFallback{}
	} else {
		defer eventProducer.Close()
		producer = eventProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the charge gateway client.
	gateway := stripeclient.NewClient(cfg.StripeAPIBaseURL, cfg.StripeSecretKey)

	// Optional Redis client for login throttling. A missing or unreachable
	// Redis disables throttling; the lockout counter still protects accounts.
	var redisClient *redis.Client
	if cfg.LoginRateLimitPerMinute > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; login rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; login rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; login rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Metrics collector with its own registry, exposed on /metrics.
	collector := metrics.NewCollector()

	// Token codec and the application services.
	codec := auth.NewCodec(cfg.JWTSecret, time.Duration(cfg.JWTTTLMinutes)*time.Minute)

	authService := app.NewAuthService(repository, codec, collector, cfg.LoginMaxFailedAttempts)
	if redisClient != nil {
		authService.SetLoginRateLimiter(
			app.NewRedisLoginRateLimiter(redisClient, cfg.RedisRateLimitPrefix),
			cfg.LoginRateLimitPerMinute,
		)
	}
	userService := app.NewUserService(repository, producer, cfg.MailEventExchange, cfg.WebAppDomainURL)
	transactionService := app.NewService(repository, gateway, collector)

	// Initialize the API handlers and the router.
	authConfig := api.AuthConfig{
		HeaderName:  cfg.AuthHeaderName,
		TokenPrefix: cfg.AuthTokenPrefix,
	}
	userHandlers := api.NewUserHandlers(authService, userService, authConfig)
	transactionHandlers := api.NewTransactionHandlers(transactionService)
	router := api.Routes(userHandlers, transactionHandlers, authService, authConfig, collector.Handler())

	// Start the HTTP server.
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
