package indicator

import (
	"errors"
	"time"

	"go.uber.org/atomic"
)

// ATRSnapshot represents a snapshot of atr data.
type ATRSnapshot struct {
	data  []*ATR
	start atomic.Int32
	count atomic.Int32
	size  atomic.Int32
}

// NewATRSnapshot initializes a new atr snapshot.
func NewATRSnapshot(size int32) (*ATRSnapshot, error) {
	if size < 0 {
		return nil, errors.New("snapshot size cannot be negative")
	}
	if size == 0 {
		return nil, errors.New("snapshot size cannot be zero")
	}

	snapshot := &ATRSnapshot{
		data: make([]*ATR, size),
	}
	snapshot.size.Store(int32(size))

	return snapshot, nil
}

// Update adds the provided atr to the snapshot.
func (s *ATRSnapshot) Update(atr *ATR) {
	start := s.start.Load()
	count := s.count.Load()
	size := s.size.Load()
	end := (start + count) % size
	s.data[end] = atr

	if count == size {
		// Overwrite the oldest entry when the snapshot is at capacity.
		s.start.Store((start + 1) % size)
	} else {
		s.count.Add(1)
	}
}

// Last returns the last added entry for the snapshot.
func (s *ATRSnapshot) Last() *ATR {
	start := s.start.Load()
	count := s.count.Load()
	size := s.size.Load()
	if count == 0 {
		return nil
	}

	end := (start + count - 1) % size
	return s.data[end]
}

// LastN fetches the last n number of elements from the snapshot.
func (s *ATRSnapshot) LastN(n int32) []*ATR {
	if n <= 0 {
		return nil
	}

	start := s.start.Load()
	count := s.count.Load()
	size := s.size.Load()

	// Clamp the number of elements expected if it is greater than the snapshot count.
	if n > count {
		n = count
	}

	set := make([]*ATR, n)
	start = (start + count - n + size) % size

	for i := range n {
		idx := (start + i) % size
		set[i] = s.data[idx]
	}

	return set
}

// At fetches the snapshot entry with the provided date, nil when absent.
func (s *ATRSnapshot) At(date time.Time) *ATR {
	start := s.start.Load()
	count := s.count.Load()
	size := s.size.Load()

	for i := range count {
		idx := (start + i) % size
		if s.data[idx] != nil && s.data[idx].Date.Equal(date) {
			return s.data[idx]
		}
	}

	return nil
}
