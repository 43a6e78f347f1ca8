package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benmeehan/hydro-controller/internal/constants"
	"github.com/benmeehan/hydro-controller/internal/gateway"
	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/rs/zerolog"
)

// StatusSink receives the device status gathered by polling.
type StatusSink interface {
	Broadcast(snapshot models.DeviceStatusSnapshot)
	SetConnected(connected bool)
}

// StatusPollService periodically fetches the device status for transports
// that do not push it, and hands the result to the sink.
type StatusPollService struct {
	Interval time.Duration
	Gateway  gateway.Gateway
	Sink     StatusSink
	Logger   zerolog.Logger

	connected *bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStatusPollService initializes a new StatusPollService.
func NewStatusPollService(interval time.Duration, gw gateway.Gateway, sink StatusSink, logger zerolog.Logger) *StatusPollService {
	if interval <= 0 {
		interval = constants.DefaultPollInterval
	}
	return &StatusPollService{
		Interval: interval,
		Gateway:  gw,
		Sink:     sink,
		Logger:   logger.With().Str("service", "status_poll").Logger(),
	}
}

// Start launches the polling loop in a separate goroutine.
func (p *StatusPollService) Start() error {
	if p.ctx != nil {
		p.Logger.Warn().Msg("StatusPollService is already running")
		return errors.New("status poll service is already running")
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runPollLoop()
	}()

	p.Logger.Info().Dur("interval", p.Interval).Str("transport", p.Gateway.Kind()).Msg("StatusPollService started successfully")
	return nil
}

// Stop gracefully stops the polling loop, waiting for an in-flight request.
func (p *StatusPollService) Stop() error {
	if p.ctx == nil {
		p.Logger.Warn().Msg("StatusPollService is not running")
		return errors.New("status poll service is not running")
	}

	p.cancel()
	p.wg.Wait()

	p.ctx = nil
	p.cancel = nil

	p.Logger.Info().Msg("StatusPollService stopped successfully")
	return nil
}

func (p *StatusPollService) runPollLoop() {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	p.poll()
	for {
		select {
		case <-ticker.C:
			p.poll()
		case <-p.ctx.Done():
			p.Logger.Info().Msg("StatusPollService stopping gracefully")
			return
		}
	}
}

// poll performs one fetch. Failures are logged and leave session state alone.
func (p *StatusPollService) poll() {
	snapshot, err := p.Gateway.FetchStatus(p.ctx)
	p.reportConnectivity(p.Gateway.Connected())

	if err != nil {
		if p.ctx.Err() != nil {
			return
		}
		p.Logger.Warn().Err(err).Str("kind", gateway.KindName(err)).Msg("Failed to poll device status")
		return
	}

	p.Logger.Debug().Int("moisture", snapshot.MoisturePercent).Str("pump", snapshot.PumpState.String()).Msg("Device status polled")
	p.Sink.Broadcast(snapshot)
}

// reportConnectivity forwards connectivity transitions only.
func (p *StatusPollService) reportConnectivity(connected bool) {
	if p.connected != nil && *p.connected == connected {
		return
	}
	p.connected = &connected
	p.Sink.SetConnected(connected)
}
