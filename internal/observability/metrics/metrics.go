package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	votesRecorded    metric.Int64Counter
	abuseFlagged     metric.Int64Counter
	snapshotRows     metric.Int64Counter
	snapshotsPurged  metric.Int64Counter
	rateLimitAllowed metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
	ratingDelta      metric.Float64Histogram
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "versus"
	}
	meter := provider.Meter(name)

	votesRecorded, err := meter.Int64Counter("versus_votes_recorded_total")
	if err != nil {
		return nil, err
	}
	abuseFlagged, err := meter.Int64Counter("versus_abuse_flagged_total")
	if err != nil {
		return nil, err
	}
	snapshotRows, err := meter.Int64Counter("versus_snapshot_rows_total")
	if err != nil {
		return nil, err
	}
	snapshotsPurged, err := meter.Int64Counter("versus_snapshots_purged_total")
	if err != nil {
		return nil, err
	}
	rateLimitAllowed, err := meter.Int64Counter("versus_rate_limit_allowed_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("versus_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}
	ratingDelta, err := meter.Float64Histogram("versus_rating_delta")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		votesRecorded:    votesRecorded,
		abuseFlagged:     abuseFlagged,
		snapshotRows:     snapshotRows,
		snapshotsPurged:  snapshotsPurged,
		rateLimitAllowed: rateLimitAllowed,
		rateLimitDenied:  rateLimitDenied,
		ratingDelta:      ratingDelta,
	}, nil
}

// RecordVote increments recorded vote counts and observes the rating movement.
func (m *Metrics) RecordVote(ctx context.Context, categoryID string, delta float64) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("category_id", strings.TrimSpace(categoryID)))
	m.votesRecorded.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.ratingDelta.Record(ctx, delta, metric.WithAttributes(attrs...))
}

// RecordAbuseFlagged increments abuse detection counts.
func (m *Metrics) RecordAbuseFlagged(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.abuseFlagged.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSnapshotRows increments snapshot rows written per capture.
func (m *Metrics) RecordSnapshotRows(ctx context.Context, categoryID string, rows int64) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("category_id", strings.TrimSpace(categoryID)))
	m.snapshotRows.Add(ctx, rows, metric.WithAttributes(attrs...))
}

// RecordSnapshotsPurged increments snapshot retention purge counts.
func (m *Metrics) RecordSnapshotsPurged(ctx context.Context, rows int64) {
	if m == nil {
		return
	}
	m.snapshotsPurged.Add(ctx, rows)
}

// RecordRateLimitAllowed increments rate limit allow counts.
func (m *Metrics) RecordRateLimitAllowed(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("endpoint", strings.TrimSpace(endpoint)))
	m.rateLimitAllowed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied increments rate limit deny counts.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"category_id": {},
	"endpoint":    {},
	"reason":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
