package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-backoffice/internal/auth"
	"pos-backoffice/internal/catalog"
	"pos-backoffice/internal/config"
	"pos-backoffice/internal/database"
	"pos-backoffice/internal/events"
	"pos-backoffice/internal/handlers"
	"pos-backoffice/internal/idempotency"
	"pos-backoffice/internal/logger"
	"pos-backoffice/internal/sales"
	"pos-backoffice/internal/telemetry"
	"pos-backoffice/internal/tickets"
	"pos-backoffice/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LogLevel)
	if envErr != nil {
		log.Warn().Msg("no .env file found, using process environment")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Telemetry
	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}

	// 2. Storage, owned here and injected below
	db, err := database.Connect(cfg.DBDSN, database.Options{MaxOpenConns: cfg.DBMaxOpenConns}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// 3. Optional infrastructure
	var idem idempotency.Store = idempotency.Nop{}
	if cfg.RedisAddr != "" {
		rdb, err := idempotency.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		idem = idempotency.NewRedisStore(rdb)
	} else {
		log.Info().Msg("REDIS_ADDR not set, Idempotency-Key is ignored")
	}

	var publisher events.Publisher = events.Nop{}
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.SalesTopic, 1024, log)
		producer.Start(context.Background())
		publisher = producer
	} else {
		log.Info().Msg("KAFKA_BROKERS not set, sale events are dropped")
	}

	var tokens *auth.Tokens
	if cfg.JWTSecret != "" {
		tokens = auth.NewTokens(cfg.JWTSecret, 24*time.Hour)
	}

	// 4. Domain services
	terminalID := utils.TerminalID()
	cat := catalog.New(db)
	ticketStore := tickets.NewStore(db, cat)
	saleService := sales.NewService(db, ticketStore, sales.Options{
		CommitTimeout: cfg.CommitTimeout,
		Producer:      terminalID,
		Publisher:     publisher,
		Logger:        log,
	})
	if _, err := ticketStore.EnsureActive(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to open the first ticket")
	}

	// 5. HTTP
	gin.SetMode(gin.ReleaseMode)
	router := handlers.NewRouter(handlers.RouterConfig{
		ServiceName: cfg.ServiceName,
		CORSOrigins: cfg.CORSOrigins,
		Tokens:      tokens,
		Logger:      log,
	}, handlers.Routes{
		Sales:    handlers.NewSaleHandler(saleService, ticketStore, idem, time.Local, log),
		Tickets:  handlers.NewTicketHandler(ticketStore, log),
		Ledger:   handlers.NewLedgerHandler(saleService.Ledger(), log),
		Products: handlers.NewProductHandler(cat, log),
		System:   handlers.NewSystemHandler(db, terminalID),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("terminal_id", terminalID).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if producer != nil {
		producer.Close()
		producer.WaitClosed()
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("telemetry shutdown")
	}
	if err := database.Close(db); err != nil {
		log.Error().Err(err).Msg("close database")
	}
}
