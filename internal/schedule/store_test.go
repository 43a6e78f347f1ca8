package schedule_test

import (
	"testing"

	"github.com/benmeehan/hydro-controller/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStore_AddSchedule_Duration computes whole minutes between start and end.
func TestStore_AddSchedule_Duration(t *testing.T) {
	s := schedule.NewStore()

	entry, err := s.AddSchedule("Monday", "07:00", "07:05", true)

	require.NoError(t, err)
	assert.Equal(t, "Monday", entry.Day)
	assert.Equal(t, "07:00", entry.StartTime)
	assert.Equal(t, "07:05", entry.EndTime)
	assert.Equal(t, 5, entry.DurationMinutes)
	assert.False(t, entry.Overnight)
	assert.True(t, entry.Enabled)
	assert.NotEmpty(t, entry.ID)
}

// TestStore_AddSchedule_OvernightWraps treats an end before start as the next day.
func TestStore_AddSchedule_OvernightWraps(t *testing.T) {
	s := schedule.NewStore()

	entry, err := s.AddSchedule("Everyday", "23:30", "00:15", false)

	require.NoError(t, err)
	assert.Equal(t, 45, entry.DurationMinutes)
	assert.True(t, entry.Overnight)
}

// TestStore_AddSchedule_SecondsDropped keeps the stored times and duration consistent.
func TestStore_AddSchedule_SecondsDropped(t *testing.T) {
	s := schedule.NewStore()

	entry, err := s.AddSchedule("Monday", "07:00:30", "07:05:00", true)

	require.NoError(t, err)
	assert.Equal(t, "07:00", entry.StartTime)
	assert.Equal(t, "07:05", entry.EndTime)
	assert.Equal(t, 5, entry.DurationMinutes)

	entry, err = s.AddSchedule("Monday", "07:00:59", "07:00:10", true)
	require.NoError(t, err)
	assert.Zero(t, entry.DurationMinutes)
	assert.False(t, entry.Overnight)
}

func TestStore_AddSchedule_SameStartAndEnd(t *testing.T) {
	s := schedule.NewStore()

	entry, err := s.AddSchedule("sunday", "06:00", "06:00", true)

	require.NoError(t, err)
	assert.Equal(t, "Sunday", entry.Day)
	assert.Zero(t, entry.DurationMinutes)
	assert.False(t, entry.Overnight)
}

func TestStore_AddSchedule_Invalid(t *testing.T) {
	s := schedule.NewStore()

	_, err := s.AddSchedule("Funday", "07:00", "08:00", true)
	assert.ErrorIs(t, err, schedule.ErrInvalidDay)

	_, err = s.AddSchedule("Monday", "7am", "08:00", true)
	assert.ErrorIs(t, err, schedule.ErrInvalidTime)

	_, err = s.AddSchedule("Monday", "07:00", "25:00", true)
	assert.ErrorIs(t, err, schedule.ErrInvalidTime)

	assert.Empty(t, s.Schedules())
}

// TestStore_DeleteSchedule_TwiceAtSameIndex removes two distinct entries.
func TestStore_DeleteSchedule_TwiceAtSameIndex(t *testing.T) {
	s := schedule.NewStore()
	a, _ := s.AddSchedule("Monday", "06:00", "06:10", true)
	b, _ := s.AddSchedule("Tuesday", "06:00", "06:20", true)
	c, _ := s.AddSchedule("Wednesday", "06:00", "06:30", true)

	first, err := s.DeleteSchedule(0)
	require.NoError(t, err)
	second, err := s.DeleteSchedule(0)
	require.NoError(t, err)

	assert.Equal(t, a.ID, first.ID)
	assert.Equal(t, b.ID, second.ID)
	assert.NotEqual(t, first.ID, second.ID)

	remaining := s.Schedules()
	require.Len(t, remaining, 1)
	assert.Equal(t, c.ID, remaining[0].ID)
}

func TestStore_DeleteSchedule_OutOfRange(t *testing.T) {
	s := schedule.NewStore()
	_, _ = s.AddSchedule("Monday", "06:00", "06:10", true)

	for _, idx := range []int{-1, 1, 42} {
		_, err := s.DeleteSchedule(idx)
		assert.ErrorIs(t, err, schedule.ErrIndexOutOfRange, "index %d", idx)
	}
	assert.Len(t, s.Schedules(), 1)
}

func TestStore_DeleteScheduleByID(t *testing.T) {
	s := schedule.NewStore()
	a, _ := s.AddSchedule("Monday", "06:00", "06:10", true)
	b, _ := s.AddSchedule("Friday", "18:00", "18:30", true)

	removed, err := s.DeleteScheduleByID(b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, removed)

	_, err = s.DeleteScheduleByID(b.ID)
	assert.ErrorIs(t, err, schedule.ErrNotFound)

	remaining := s.Schedules()
	require.Len(t, remaining, 1)
	assert.Equal(t, a.ID, remaining[0].ID)
}

func TestStore_SetScheduleEnabled(t *testing.T) {
	s := schedule.NewStore()
	a, _ := s.AddSchedule("Monday", "06:00", "06:10", true)

	updated, err := s.SetScheduleEnabled(a.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Enabled)
	assert.False(t, s.Schedules()[0].Enabled)

	_, err = s.SetScheduleEnabled("missing", true)
	assert.ErrorIs(t, err, schedule.ErrNotFound)
}

func TestStore_Alarms(t *testing.T) {
	s := schedule.NewStore()

	first, err := s.AddAlarm("06:30")
	require.NoError(t, err)
	second, err := s.AddAlarm("21:00:00")
	require.NoError(t, err)
	assert.Equal(t, "21:00", second.Time)

	_, err = s.AddAlarm("noon")
	assert.ErrorIs(t, err, schedule.ErrInvalidTime)

	_, err = s.DeleteAlarm(2)
	assert.ErrorIs(t, err, schedule.ErrIndexOutOfRange)

	removed, err := s.DeleteAlarm(0)
	require.NoError(t, err)
	assert.Equal(t, first.ID, removed.ID)

	_, err = s.DeleteAlarmByID(second.ID)
	require.NoError(t, err)
	assert.Empty(t, s.Alarms())

	_, err = s.DeleteAlarmByID(second.ID)
	assert.ErrorIs(t, err, schedule.ErrNotFound)
}

// TestStore_Schedules_ReturnsCopy keeps the list safe from caller mutation.
func TestStore_Schedules_ReturnsCopy(t *testing.T) {
	s := schedule.NewStore()
	_, _ = s.AddSchedule("Monday", "06:00", "06:10", true)

	list := s.Schedules()
	list[0].Day = "Sunday"

	assert.Equal(t, "Monday", s.Schedules()[0].Day)
}
