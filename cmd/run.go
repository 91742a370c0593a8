package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"croupier/api"
	"croupier/application"
	"croupier/config"
	"croupier/database"
	"croupier/domain/interfaces"
	"croupier/domain/services"
	"croupier/infrastructure"
	"croupier/infrastructure/observability"
	"croupier/infrastructure/toncenter"
	"croupier/infrastructure/walletd"
	"croupier/repository"
)

// Run initializes and starts the settlement engine
func Run(ctx context.Context) error {
	log.Println("Starting croupier...")

	// Load configuration
	cfg := config.Get()

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, observability.Config{
		Enabled:              cfg.OTelEnabled,
		ServiceName:          cfg.OTelServiceName,
		ExporterType:         cfg.OTelExporterType,
		OTLPEndpoint:         cfg.OTelOTLPEndpoint,
		ExportIntervalMillis: cfg.OTelExportIntervalMillis,
		Environment:          cfg.Environment,
	}); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event publishing
	var publisher interfaces.EventPublisher
	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		log.Println("Connecting to NATS...")
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		natsPublisher := infrastructure.NewNATSEventPublisher(natsClient)
		if err := natsClient.EnsureWagerEventStream(); err != nil {
			return fmt.Errorf("failed to ensure event stream: %w", err)
		}
		publisher = natsPublisher
	} else {
		log.Println("NATS_SERVERS not set, event publishing disabled")
		publisher = infrastructure.NewNoopEventPublisher()
	}

	// Initialize external clients
	chain := toncenter.New(cfg.ToncenterBaseURL, cfg.ToncenterAPIKey)
	wallet := walletd.New(cfg.WalletdBaseURL)

	// Initialize rate limiting
	limiter := infrastructure.NewMemoryRateLimiter(
		cfg.RateLimitWindow,
		cfg.RateLimitBlock,
		cfg.RateLimitMaxAttempts,
		cfg.RateLimitFailureWeight,
	)
	stopSweeper := limiter.StartSweeper(ctx, cfg.RateLimitWindow)

	// Initialize repositories
	consumedRepo := repository.NewConsumedTransactionRepository(db)
	jackpotRepo := repository.NewJackpotRepository(db)

	// Initialize domain services
	bankroll := services.NewBankrollService(chain, cfg.HouseWalletAddress, services.RiskConfig{
		MinBet:              cfg.MinBet,
		MinBankroll:         cfg.MinBankroll,
		MaxBetPercent:       cfg.MaxBetPercent,
		MaxPayoutMultiplier: cfg.MaxPayoutMultiplier(),
	})
	verifier := services.NewPaymentVerifier(chain, consumedRepo, services.VerifierConfig{
		TolerancePercent: cfg.PaymentTolerancePercent,
		MaxPaymentAge:    cfg.MaxPaymentAge,
		PollInterval:     cfg.PollInterval,
		MaxAttempts:      cfg.PollMaxAttempts,
		TxScanLimit:      cfg.TxScanLimit,
	})
	wagers := services.NewWagerService(bankroll, limiter, verifier, wallet, jackpotRepo, publisher, services.WagerConfig{
		MinBet:             cfg.MinBet,
		HouseEdgePercent:   cfg.HouseEdgePercent,
		HouseWalletAddress: cfg.HouseWalletAddress,
		Games:              cfg.Games,
	})
	// Start the HTTP surface
	server := api.NewServer(wagers, bankroll, jackpotRepo)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Listen(cfg.HTTPListenAddr)
	}()

	// Start background workers
	retention := application.NewRetentionWorker(
		consumedRepo,
		time.Duration(cfg.RetentionDays)*24*time.Hour,
		time.Hour,
	)
	stopRetention := retention.Start(ctx)

	// Wait for context cancellation or a server failure
	log.Printf("Croupier is running in %s mode...", cfg.Environment)
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	// Cleanup resources
	log.Println("Shutting down...")

	if err := server.Shutdown(); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}
	stopRetention()
	stopSweeper()

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.Printf("Error shutting down metrics: %v", err)
	}

	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}
