// Package readings holds the bounded moisture history of a dashboard session.
package readings

import (
	"sync"

	"github.com/benmeehan/hydro-controller/internal/constants"
	"github.com/benmeehan/hydro-controller/internal/models"
)

// Buffer is an insertion-ordered, fixed-capacity sequence of readings.
// When full, appending evicts the oldest entries first.
type Buffer struct {
	mu       sync.RWMutex
	capacity int
	items    []models.Reading
}

// NewBuffer creates a buffer with the given capacity. A non-positive
// capacity falls back to constants.ReadingBufferCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = constants.ReadingBufferCapacity
	}
	return &Buffer{
		capacity: capacity,
		items:    make([]models.Reading, 0, capacity),
	}
}

// Append adds a reading to the end of the buffer.
func (b *Buffer) Append(r models.Reading) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append(b.items, r)
	if over := len(b.items) - b.capacity; over > 0 {
		// shift in place so the backing array does not grow without bound
		n := copy(b.items, b.items[over:])
		b.items = b.items[:n]
	}
}

// Readings returns a copy of the buffered readings, oldest first.
func (b *Buffer) Readings() []models.Reading {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]models.Reading, len(b.items))
	copy(out, b.items)
	return out
}

// Latest returns the most recent reading, if any.
func (b *Buffer) Latest() (models.Reading, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.items) == 0 {
		return models.Reading{}, false
	}
	return b.items[len(b.items)-1], true
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

func (b *Buffer) Capacity() int {
	return b.capacity
}
