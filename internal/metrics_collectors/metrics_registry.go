package metrics_collectors

import (
	"context"
	"sync"

	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/rs/zerolog"
)

// MetricsRegistry holds the collectors enabled by configuration and samples them on demand.
type MetricsRegistry struct {
	mu         sync.RWMutex
	config     models.MetricsConfig
	collectors []MetricCollector
	logger     zerolog.Logger
}

// NewMetricsRegistry creates an empty registry for config.
func NewMetricsRegistry(config models.MetricsConfig, logger zerolog.Logger) *MetricsRegistry {
	return &MetricsRegistry{
		config: config,
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// NewDefaultRegistry registers every built-in collector.
func NewDefaultRegistry(config models.MetricsConfig, logger zerolog.Logger) *MetricsRegistry {
	r := NewMetricsRegistry(config, logger)
	r.Register(&CPUMetricCollector{})
	r.Register(&MemoryMetricCollector{})
	r.Register(&DiskMetricCollector{Path: config.DiskPath})
	r.Register(&GoroutineMetricCollector{})
	return r
}

// Register adds collector if the configuration enables it. A collector with
// an already registered name replaces the earlier one.
func (r *MetricsRegistry) Register(collector MetricCollector) {
	if !collector.IsEnabled(&r.config) {
		r.logger.Debug().Str("metric", collector.Name()).Msg("Metric disabled in configuration")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.collectors {
		if existing.Name() == collector.Name() {
			r.collectors[i] = collector
			return
		}
	}
	r.collectors = append(r.collectors, collector)
}

// GetCollectors returns the registered collectors in registration order.
func (r *MetricsRegistry) GetCollectors() []MetricCollector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MetricCollector, len(r.collectors))
	copy(out, r.collectors)
	return out
}

// Collect samples every collector. Failed samples are logged and left out.
func (r *MetricsRegistry) Collect(ctx context.Context) map[string]models.Metric {
	metrics := make(map[string]models.Metric)
	for _, collector := range r.GetCollectors() {
		value, err := collector.Collect(ctx)
		if err != nil {
			r.logger.Warn().Err(err).Str("metric", collector.Name()).Msg("Failed to collect metric")
			continue
		}
		metrics[collector.Name()] = models.Metric{Value: value, Unit: collector.Unit()}
	}
	return metrics
}
