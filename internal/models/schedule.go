package models

import "time"

// ScheduleEntry is a declared watering window. It is display-only: nothing fires it.
type ScheduleEntry struct {
	ID              string    `json:"id"`
	Day             string    `json:"day"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Overnight       bool      `json:"overnight"`
	Enabled         bool      `json:"enabled"`
	CreatedAt       time.Time `json:"created_at"`
}

// AlarmEntry is a wall-clock alarm time set by the user.
type AlarmEntry struct {
	ID        string    `json:"id"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"created_at"`
}
