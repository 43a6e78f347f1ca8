package models

import "time"

// SensorReadingRecord is a persisted device reading.
type SensorReadingRecord struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	DeviceID        string    `json:"device_id" gorm:"column:device_id;index"`
	Timestamp       time.Time `json:"timestamp" gorm:"column:timestamp;index"`
	MoisturePercent int       `json:"moisture_percent" gorm:"column:moisture_percent"`
	MoistureRaw     *int      `json:"moisture_raw,omitempty" gorm:"column:moisture_raw"`
	PumpState       string    `json:"pump_state" gorm:"column:pump_state;type:varchar(3)"`
	ThresholdLow    int       `json:"threshold_low" gorm:"column:threshold_low"`
	ThresholdHigh   int       `json:"threshold_high" gorm:"column:threshold_high"`
	SignalStrength  *int      `json:"signal_strength,omitempty" gorm:"column:signal_strength"`
	FreeMemory      *int64    `json:"free_memory,omitempty" gorm:"column:free_memory"`
}

func (SensorReadingRecord) TableName() string {
	return "sensor_readings"
}

// ScheduleRecord is a persisted watering schedule.
type ScheduleRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	EntryID   string    `json:"entry_id" gorm:"column:entry_id;uniqueIndex"`
	Name      string    `json:"name" gorm:"column:name"`
	Hour      int       `json:"hour" gorm:"column:hour"`
	Minute    int       `json:"minute" gorm:"column:minute"`
	Duration  int       `json:"duration" gorm:"column:duration"`
	Enabled   bool      `json:"enabled" gorm:"column:enabled"`
	CreatedAt time.Time `json:"created_at"`
}

func (ScheduleRecord) TableName() string {
	return "schedules"
}

// PumpActionLog records every pump command and device-reported pump change.
type PumpActionLog struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Action        string    `json:"action" gorm:"column:action;type:varchar(3)"`
	TriggerType   string    `json:"trigger_type" gorm:"column:trigger_type"`
	MoistureLevel int       `json:"moisture_level" gorm:"column:moisture_level"`
	Timestamp     time.Time `json:"timestamp" gorm:"column:timestamp;index"`
}

func (PumpActionLog) TableName() string {
	return "pump_logs"
}
