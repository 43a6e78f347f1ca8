package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benmeehan/hydro-controller/internal/constants"
	"github.com/benmeehan/hydro-controller/internal/metrics_collectors"
	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/rs/zerolog"
)

// MetricsService samples host metrics on an interval and keeps the latest
// sample for the system status panel.
type MetricsService struct {
	interval time.Duration
	timeout  time.Duration
	registry *metrics_collectors.MetricsRegistry
	logger   zerolog.Logger

	mu        sync.RWMutex
	latest    map[string]models.Metric
	sampledAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMetricsService initializes and returns a new instance of MetricsService.
func NewMetricsService(interval time.Duration, registry *metrics_collectors.MetricsRegistry, logger zerolog.Logger) *MetricsService {
	if interval <= 0 {
		interval = constants.DefaultMetricsInterval
	}
	return &MetricsService{
		interval: interval,
		timeout:  interval / 2,
		registry: registry,
		logger:   logger.With().Str("service", "metrics").Logger(),
		latest:   make(map[string]models.Metric),
	}
}

// Start takes a first sample and then keeps sampling in the background.
func (m *MetricsService) Start() error {
	if m.ctx != nil {
		m.logger.Warn().Msg("MetricsService is already running")
		return errors.New("metrics service is already running")
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.sample()

	m.wg.Add(1)
	go m.runMetricsCollectionLoop()

	m.logger.Info().Int("collectors", len(m.registry.GetCollectors())).Msg("MetricsService started successfully")
	return nil
}

func (m *MetricsService) runMetricsCollectionLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-m.ctx.Done():
			m.logger.Info().Msg("Stopping metrics collection")
			return
		}
	}
}

func (m *MetricsService) sample() {
	ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
	defer cancel()

	metrics := m.registry.Collect(ctx)

	m.mu.Lock()
	m.latest = metrics
	m.sampledAt = time.Now().UTC()
	m.mu.Unlock()

	m.logger.Debug().Interface("metrics", metrics).Msg("Metrics collected successfully")
}

// Latest returns a copy of the most recent sample and when it was taken.
func (m *MetricsService) Latest() (map[string]models.Metric, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]models.Metric, len(m.latest))
	for k, v := range m.latest {
		out[k] = v
	}
	return out, m.sampledAt
}

// Stop gracefully stops the metrics service.
func (m *MetricsService) Stop() error {
	if m.ctx == nil {
		m.logger.Warn().Msg("MetricsService is not running")
		return errors.New("metrics service is not running")
	}

	m.cancel()
	m.wg.Wait()
	m.ctx = nil
	m.cancel = nil

	m.logger.Info().Msg("MetricsService stopped successfully")
	return nil
}
