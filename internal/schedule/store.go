// Package schedule keeps the user's watering windows and alarm times.
// Entries are records only; nothing in this package acts on them.
package schedule

import (
	"fmt"
	"sync"
	"time"

	"github.com/benmeehan/hydro-controller/internal/models"
	"github.com/google/uuid"
)

// Store is an ordered list of schedules and alarms. Entries are addressable
// both by their current position and by the stable id assigned on creation.
type Store struct {
	mu        sync.RWMutex
	schedules []models.ScheduleEntry
	alarms    []models.AlarmEntry
	now       func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// AddSchedule appends a watering window. Start and end are HH:MM clocks; an end
// earlier than start wraps to the next day.
func (s *Store) AddSchedule(day, start, end string, enabled bool) (models.ScheduleEntry, error) {
	canonicalDay, err := NormalizeDay(day)
	if err != nil {
		return models.ScheduleEntry{}, err
	}
	startAt, err := ParseClock(start)
	if err != nil {
		return models.ScheduleEntry{}, fmt.Errorf("start: %w", err)
	}
	endAt, err := ParseClock(end)
	if err != nil {
		return models.ScheduleEntry{}, fmt.Errorf("end: %w", err)
	}

	minutes, overnight := WindowMinutes(startAt, endAt)
	entry := models.ScheduleEntry{
		ID:              uuid.New().String(),
		Day:             canonicalDay,
		StartTime:       FormatClock(startAt),
		EndTime:         FormatClock(endAt),
		DurationMinutes: minutes,
		Overnight:       overnight,
		Enabled:         enabled,
		CreatedAt:       s.now(),
	}

	s.mu.Lock()
	s.schedules = append(s.schedules, entry)
	s.mu.Unlock()

	return entry, nil
}

// DeleteSchedule removes the entry at index; later entries shift down by one.
func (s *Store) DeleteSchedule(index int) (models.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.schedules) {
		return models.ScheduleEntry{}, fmt.Errorf("schedule %d: %w", index, ErrIndexOutOfRange)
	}
	removed := s.schedules[index]
	s.schedules = append(s.schedules[:index], s.schedules[index+1:]...)
	return removed, nil
}

// DeleteScheduleByID removes the entry carrying id.
func (s *Store) DeleteScheduleByID(id string) (models.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.schedules {
		if e.ID == id {
			s.schedules = append(s.schedules[:i], s.schedules[i+1:]...)
			return e, nil
		}
	}
	return models.ScheduleEntry{}, fmt.Errorf("schedule %s: %w", id, ErrNotFound)
}

// SetScheduleEnabled toggles the enabled flag of the entry carrying id.
func (s *Store) SetScheduleEnabled(id string, enabled bool) (models.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.schedules {
		if s.schedules[i].ID == id {
			s.schedules[i].Enabled = enabled
			return s.schedules[i], nil
		}
	}
	return models.ScheduleEntry{}, fmt.Errorf("schedule %s: %w", id, ErrNotFound)
}

// Schedules returns a copy of the schedule list in insertion order.
func (s *Store) Schedules() []models.ScheduleEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ScheduleEntry, len(s.schedules))
	copy(out, s.schedules)
	return out
}

// AddAlarm appends an alarm at the given HH:MM clock.
func (s *Store) AddAlarm(at string) (models.AlarmEntry, error) {
	t, err := ParseClock(at)
	if err != nil {
		return models.AlarmEntry{}, err
	}

	alarm := models.AlarmEntry{
		ID:        uuid.New().String(),
		Time:      FormatClock(t),
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.alarms = append(s.alarms, alarm)
	s.mu.Unlock()

	return alarm, nil
}

// DeleteAlarm removes the alarm at index; later alarms shift down by one.
func (s *Store) DeleteAlarm(index int) (models.AlarmEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.alarms) {
		return models.AlarmEntry{}, fmt.Errorf("alarm %d: %w", index, ErrIndexOutOfRange)
	}
	removed := s.alarms[index]
	s.alarms = append(s.alarms[:index], s.alarms[index+1:]...)
	return removed, nil
}

// DeleteAlarmByID removes the alarm carrying id.
func (s *Store) DeleteAlarmByID(id string) (models.AlarmEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.alarms {
		if a.ID == id {
			s.alarms = append(s.alarms[:i], s.alarms[i+1:]...)
			return a, nil
		}
	}
	return models.AlarmEntry{}, fmt.Errorf("alarm %s: %w", id, ErrNotFound)
}

// Alarms returns a copy of the alarm list in insertion order.
func (s *Store) Alarms() []models.AlarmEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AlarmEntry, len(s.alarms))
	copy(out, s.alarms)
	return out
}
