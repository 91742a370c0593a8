package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"croupier/database"
	"croupier/domain/entities"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Wallet configuration
	HouseWalletAddress string // receiving wallet players pay into

	// Toncenter configuration
	ToncenterBaseURL string
	ToncenterAPIKey  string

	// Wallet daemon configuration
	WalletdBaseURL string // address of the signing wallet daemon

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated), empty disables publishing

	// HTTP API
	HTTPListenAddr string

	// Casino limits (amounts in nanotons)
	MinBet           int64
	MinBankroll      int64
	MaxBetPercent    float64
	HouseEdgePercent int64 // share of losing bets diverted to the jackpot pool

	// Payment verification
	PaymentTolerancePercent int64 // accept transfers down to this percent of the bet
	MaxPaymentAge           time.Duration
	PollInterval            time.Duration
	PollMaxAttempts         int
	TxScanLimit             int

	// Rate limiting
	RateLimitWindow        time.Duration
	RateLimitMaxAttempts   int
	RateLimitBlock         time.Duration
	RateLimitFailureWeight int

	// Retention
	RetentionDays int // consumed transactions older than this are deleted

	// Games
	Games map[entities.GameType]*entities.GameConfig

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// MaxPayoutMultiplier returns the highest multiplier across all configured
// games. The risk calculator uses it to keep the bankroll able to cover the
// worst-case payout of any single bet.
func (c *Config) MaxPayoutMultiplier() float64 {
	var max float64
	for _, game := range c.Games {
		if m := game.MaxMultiplier(); m > max {
			max = m
		}
	}
	return max
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// Wallets
		HouseWalletAddress: os.Getenv("HOUSE_WALLET_ADDRESS"),

		// External services
		ToncenterBaseURL: getEnvWithDefault("TONCENTER_BASE_URL", "https://toncenter.com"),
		ToncenterAPIKey:  os.Getenv("TONCENTER_API_KEY"),
		WalletdBaseURL:   getEnvWithDefault("WALLETD_BASE_URL", "http://walletd:8800"),

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// HTTP API
		HTTPListenAddr: getEnvWithDefault("HTTP_LISTEN_ADDR", ":8080"),

		// Casino limits
		MinBet:           getEnvNanotons("MIN_BET_TON", 100_000_000),       // 0.1 TON
		MinBankroll:      getEnvNanotons("MIN_BANKROLL_TON", 50_000_000_000), // 50 TON
		MaxBetPercent:    getEnvFloat("MAX_BET_PERCENT", 5),
		HouseEdgePercent: getEnvInt64("HOUSE_EDGE_PERCENT", 10),

		// Payment verification
		PaymentTolerancePercent: getEnvInt64("PAYMENT_TOLERANCE_PERCENT", 99),
		MaxPaymentAge:           getEnvDuration("MAX_PAYMENT_AGE", 15*time.Minute),
		PollInterval:            getEnvDuration("POLL_INTERVAL", 5*time.Second),
		PollMaxAttempts:         int(getEnvInt64("POLL_MAX_ATTEMPTS", 12)),
		TxScanLimit:             int(getEnvInt64("TX_SCAN_LIMIT", 20)),

		// Rate limiting
		RateLimitWindow:        getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitMaxAttempts:   int(getEnvInt64("RATE_LIMIT_MAX_ATTEMPTS", 5)),
		RateLimitBlock:         getEnvDuration("RATE_LIMIT_BLOCK", 5*time.Minute),
		RateLimitFailureWeight: int(getEnvInt64("RATE_LIMIT_FAILURE_WEIGHT", 2)),

		// Retention
		RetentionDays: int(getEnvInt64("RETENTION_DAYS", 30)),

		// Games
		Games: entities.DefaultGames(),

		// OpenTelemetry
		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "croupier"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "none"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_OTLP_ENDPOINT", "localhost:4317"),
		OTelExportIntervalMillis: int(getEnvInt64("OTEL_EXPORT_INTERVAL_MILLIS", 60000)),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	for _, game := range config.Games {
		if err := game.Validate(); err != nil {
			return nil, fmt.Errorf("invalid game configuration: %w", err)
		}
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.HouseWalletAddress == "" {
			return nil, fmt.Errorf("HOUSE_WALLET_ADDRESS is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvNanotons parses a TON amount from the environment into nanotons
func getEnvNanotons(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return int64(parsed * 1_000_000_000)
		}
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:             "test",
		HouseWalletAddress:      "EQtest-house-wallet",
		MinBet:                  100_000_000,
		MinBankroll:             50_000_000_000,
		MaxBetPercent:           5,
		HouseEdgePercent:        10,
		PaymentTolerancePercent: 99,
		MaxPaymentAge:           15 * time.Minute,
		PollInterval:            time.Millisecond,
		PollMaxAttempts:         2,
		TxScanLimit:             20,
		RateLimitWindow:         time.Minute,
		RateLimitMaxAttempts:    5,
		RateLimitBlock:          5 * time.Minute,
		RateLimitFailureWeight:  2,
		RetentionDays:           30,
		Games:                   entities.DefaultGames(),
	}
}
