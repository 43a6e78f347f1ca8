// Package storage persists readings, schedules and pump actions with gorm.
package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/hydro-controller/internal/constants"
	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/benmeehan/hydro-controller/internal/schedule"
	"github.com/benmeehan/hydro-controller/internal/status"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

var ErrUnsupportedDriver = errors.New("unsupported storage driver")

// maxQueryLimit caps list queries coming from the dashboard.
const maxQueryLimit = 1000

// Open connects to the database named by driver and dsn.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case constants.StorageDriverSQLite:
		dialector = sqlite.Open(dsn)
	case constants.StorageDriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == constants.StorageDriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sqlite pool: %w", err)
		}
		// a single connection keeps in-memory databases shared and serializes writers
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Store reads and writes the persisted records of one device.
type Store struct {
	db       *gorm.DB
	deviceID string
	logger   zerolog.Logger
	now      func() time.Time
}

// NewStore wraps db. Records written by this store are tagged with deviceID.
func NewStore(db *gorm.DB, deviceID string, logger zerolog.Logger) *Store {
	return &Store{
		db:       db,
		deviceID: deviceID,
		logger:   logger.With().Str("component", "storage").Logger(),
		now:      time.Now,
	}
}

// Migrate creates or updates the tables.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&models.SensorReadingRecord{}, &models.ScheduleRecord{}, &models.PumpActionLog{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// SaveReading stores one device status.
func (s *Store) SaveReading(snapshot models.DeviceStatusSnapshot) error {
	at := snapshot.ReceivedAt
	if at.IsZero() {
		at = s.now()
	}
	record := models.SensorReadingRecord{
		DeviceID:        s.deviceID,
		Timestamp:       at.UTC(),
		MoisturePercent: snapshot.MoisturePercent,
		MoistureRaw:     snapshot.MoistureRaw,
		PumpState:       snapshot.PumpState.String(),
		ThresholdLow:    status.LowThreshold,
		ThresholdHigh:   status.HighThreshold,
		SignalStrength:  snapshot.WifiSignal,
		FreeMemory:      snapshot.FreeMemory,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save reading: %w", err)
	}
	return nil
}

// SaveSchedule inserts or updates the schedule keyed by its entry id.
func (s *Store) SaveSchedule(entry models.ScheduleEntry) error {
	start, err := schedule.ParseClock(entry.StartTime)
	if err != nil {
		return fmt.Errorf("failed to save schedule %s: %w", entry.ID, err)
	}
	created := entry.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	record := models.ScheduleRecord{
		EntryID:   entry.ID,
		Name:      fmt.Sprintf("%s %s-%s", entry.Day, entry.StartTime, entry.EndTime),
		Hour:      start.Hour(),
		Minute:    start.Minute(),
		Duration:  entry.DurationMinutes,
		Enabled:   entry.Enabled,
		CreatedAt: created.UTC(),
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "hour", "minute", "duration", "enabled"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to save schedule %s: %w", entry.ID, err)
	}
	return nil
}

// DeleteSchedule removes the schedule with entryID. Deleting a missing schedule is not an error.
func (s *Store) DeleteSchedule(entryID string) error {
	if err := s.db.Where("entry_id = ?", entryID).Delete(&models.ScheduleRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete schedule %s: %w", entryID, err)
	}
	return nil
}

// Schedules returns every persisted schedule, oldest first.
func (s *Store) Schedules() ([]models.ScheduleRecord, error) {
	var records []models.ScheduleRecord
	if err := s.db.Order("created_at asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return records, nil
}

// LogPumpAction appends an entry to the pump log.
func (s *Store) LogPumpAction(action models.PumpState, trigger string, moisture int) error {
	record := models.PumpActionLog{
		Action:        action.String(),
		TriggerType:   trigger,
		MoistureLevel: moisture,
		Timestamp:     s.now().UTC(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to log pump action: %w", err)
	}
	return nil
}

// RecentReadings returns up to limit readings of this device, newest first.
func (s *Store) RecentReadings(limit int) ([]models.SensorReadingRecord, error) {
	var records []models.SensorReadingRecord
	err := s.db.Where("device_id = ?", s.deviceID).
		Order("timestamp desc").
		Limit(clampLimit(limit)).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	return records, nil
}

// PumpActions returns up to limit pump log entries, newest first.
func (s *Store) PumpActions(limit int) ([]models.PumpActionLog, error) {
	var records []models.PumpActionLog
	err := s.db.Order("timestamp desc").Order("id desc").Limit(clampLimit(limit)).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pump actions: %w", err)
	}
	return records, nil
}

// Close releases the database connections.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return constants.ReadingBufferCapacity
	}
	if limit > maxQueryLimit {
		return maxQueryLimit
	}
	return limit
}
