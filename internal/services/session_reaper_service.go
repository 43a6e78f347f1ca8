package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benmeehan/hydro-controller/internal/constants"
	"github.com/rs/zerolog"
)

// Expirer drops idle sessions.
type Expirer interface {
	Expire() int
}

// SessionReaperService tears down idle dashboard sessions on a fixed interval.
type SessionReaperService struct {
	Interval time.Duration
	Sessions Expirer
	Logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSessionReaperService(interval time.Duration, sessions Expirer, logger zerolog.Logger) *SessionReaperService {
	if interval <= 0 {
		interval = constants.DefaultReapInterval
	}
	return &SessionReaperService{
		Interval: interval,
		Sessions: sessions,
		Logger:   logger.With().Str("service", "session_reaper").Logger(),
	}
}

func (r *SessionReaperService) Start() error {
	if r.ctx != nil {
		return errors.New("session reaper is already running")
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := r.Sessions.Expire(); n > 0 {
					r.Logger.Info().Int("expired", n).Msg("Idle sessions removed")
				}
			case <-r.ctx.Done():
				return
			}
		}
	}()

	r.Logger.Info().Dur("interval", r.Interval).Msg("SessionReaperService started successfully")
	return nil
}

func (r *SessionReaperService) Stop() error {
	if r.ctx == nil {
		return errors.New("session reaper is not running")
	}
	r.cancel()
	r.wg.Wait()
	r.ctx = nil
	r.cancel = nil

	r.Logger.Info().Msg("SessionReaperService stopped successfully")
	return nil
}
