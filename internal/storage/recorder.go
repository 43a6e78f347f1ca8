package storage

import (
	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/benmeehan/hydro-controller/internal/utils"
	"github.com/rs/zerolog"
)

// AsyncRecorder hands writes to a worker pool so that device and dashboard
// paths never wait on the database. Write failures are logged and dropped.
type AsyncRecorder struct {
	store  *Store
	pool   *utils.WorkerPool
	logger zerolog.Logger
}

// NewAsyncRecorder creates a recorder writing to store with the given number of workers.
func NewAsyncRecorder(store *Store, workers int, logger zerolog.Logger) *AsyncRecorder {
	return &AsyncRecorder{
		store:  store,
		pool:   utils.NewWorkerPool(workers, workers*64),
		logger: logger.With().Str("component", "recorder").Logger(),
	}
}

func (r *AsyncRecorder) RecordReading(snapshot models.DeviceStatusSnapshot) {
	r.submit("save_reading", func() error { return r.store.SaveReading(snapshot) })
}

func (r *AsyncRecorder) RecordPumpAction(action models.PumpState, trigger string, moisture int) {
	r.submit("log_pump_action", func() error { return r.store.LogPumpAction(action, trigger, moisture) })
}

func (r *AsyncRecorder) RecordSchedule(entry models.ScheduleEntry) {
	r.submitKeyed(entry.ID, "save_schedule", func() error { return r.store.SaveSchedule(entry) })
}

func (r *AsyncRecorder) ForgetSchedule(entryID string) {
	r.submitKeyed(entryID, "delete_schedule", func() error { return r.store.DeleteSchedule(entryID) })
}

func (r *AsyncRecorder) submit(op string, write func() error) {
	r.report(op, r.pool.Submit(r.job(op, write)))
}

// submitKeyed serializes writes touching the same schedule entry.
func (r *AsyncRecorder) submitKeyed(key, op string, write func() error) {
	r.report(op, r.pool.SubmitKeyed(key, r.job(op, write)))
}

func (r *AsyncRecorder) job(op string, write func() error) func() {
	return func() {
		if err := write(); err != nil {
			r.logger.Error().Err(err).Str("op", op).Msg("Storage write failed")
		}
	}
}

func (r *AsyncRecorder) report(op string, ok bool) {
	if !ok {
		r.logger.Warn().Str("op", op).Msg("Recorder stopped, write dropped")
	}
}

// Start migrates the schema.
func (r *AsyncRecorder) Start() error {
	if err := r.store.Migrate(); err != nil {
		return err
	}
	r.logger.Info().Msg("Storage ready")
	return nil
}

// Stop drains pending writes and closes the database.
func (r *AsyncRecorder) Stop() error {
	r.pool.Shutdown()
	if err := r.store.Close(); err != nil {
		r.logger.Error().Err(err).Msg("Failed to close storage")
		return err
	}
	r.logger.Info().Msg("Storage closed")
	return nil
}
