package observability

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Config carries the metrics settings so this package does not depend on the
// application config package
type Config struct {
	Enabled              bool
	ServiceName          string
	ExporterType         string // "console", "otlp" or "none"
	OTLPEndpoint         string
	ExportIntervalMillis int
	Environment          string
}

// MetricsProvider manages OpenTelemetry metrics for the settlement engine
type MetricsProvider struct {
	config        Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	wagersSettledCounter      metric.Int64Counter
	wagersRejectedCounter     metric.Int64Counter
	paymentsVerifiedCounter   metric.Int64Counter
	replayRejectionsCounter   metric.Int64Counter
	settlementFailuresCounter metric.Int64Counter
	verificationDurationHist  metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	if !mp.config.Enabled {
		log.Println("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.ServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.ExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}

	case "none":
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.ExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.ExportIntervalMillis)*time.Millisecond),
			),
		),
	)

	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("croupier")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Println("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.wagersSettledCounter, err = mp.meter.Int64Counter(
		WagersSettledTotal,
		metric.WithDescription("Total number of wagers settled"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create wagers settled counter: %w", err)
	}

	mp.wagersRejectedCounter, err = mp.meter.Int64Counter(
		WagersRejectedTotal,
		metric.WithDescription("Total number of wagers rejected before settlement"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create wagers rejected counter: %w", err)
	}

	mp.paymentsVerifiedCounter, err = mp.meter.Int64Counter(
		PaymentsVerifiedTotal,
		metric.WithDescription("Total number of inbound payments verified and claimed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create payments verified counter: %w", err)
	}

	mp.replayRejectionsCounter, err = mp.meter.Int64Counter(
		ReplayRejectionsTotal,
		metric.WithDescription("Total number of already-consumed transactions skipped during scans"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create replay rejections counter: %w", err)
	}

	mp.settlementFailuresCounter, err = mp.meter.Int64Counter(
		SettlementFailuresTotal,
		metric.WithDescription("Total number of payout transfers that failed after outcome resolution"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create settlement failures counter: %w", err)
	}

	mp.verificationDurationHist, err = mp.meter.Float64Histogram(
		PaymentVerificationDuration,
		metric.WithDescription("Duration of payment verification in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 20, 30, 45, 60, 90, 120),
	)
	if err != nil {
		return fmt.Errorf("failed to create verification duration histogram: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordWagerSettled records a completed wager with its result ("won"/"lost")
func (mp *MetricsProvider) RecordWagerSettled(game, result string) {
	if !mp.isEnabled() {
		return
	}

	mp.wagersSettledCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelGame, game),
			attribute.String(LabelResult, result),
		),
	)
}

// RecordWagerRejected records a wager rejected before settlement
func (mp *MetricsProvider) RecordWagerRejected(game, reason string) {
	if !mp.isEnabled() {
		return
	}

	mp.wagersRejectedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelGame, game),
			attribute.String(LabelReason, reason),
		),
	)
}

// RecordPaymentVerified records a verified and claimed inbound payment
func (mp *MetricsProvider) RecordPaymentVerified(game string) {
	if !mp.isEnabled() {
		return
	}

	mp.paymentsVerifiedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelGame, game),
		),
	)
}

// RecordReplayRejection records a scan candidate skipped because its hash
// was already consumed
func (mp *MetricsProvider) RecordReplayRejection(game string) {
	if !mp.isEnabled() {
		return
	}

	mp.replayRejectionsCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelGame, game),
		),
	)
}

// RecordSettlementFailure records a payout transfer failure
func (mp *MetricsProvider) RecordSettlementFailure(game string) {
	if !mp.isEnabled() {
		return
	}

	mp.settlementFailuresCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelGame, game),
		),
	)
}

// RecordVerificationDuration records how long payment verification took
func (mp *MetricsProvider) RecordVerificationDuration(game string, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	mp.verificationDurationHist.Record(context.Background(), duration.Seconds(),
		metric.WithAttributes(
			attribute.String(LabelGame, game),
		),
	)
}

// isEnabled checks if metrics are enabled and initialized
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.config.Enabled && mp.config.ExporterType != "none"
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider. Safe to call before
// initialization: recording on a nil provider is a no-op.
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
