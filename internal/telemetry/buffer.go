// Package telemetry holds the latency samples delivered by the probe: one
// bounded, time-ordered series per command plus a global sample offset from
// which the rolling time axis is derived.
package telemetry

import "sync"

// DefaultCapacity is the number of samples retained per command.
const DefaultCapacity = 60

// Buffer is safe for concurrent use. Push is the only sample mutator; Reset
// is the only other transition.
type Buffer struct {
	mu       sync.RWMutex
	capacity int
	offset   uint64
	keys     []string
	series   map[string]*ring
}

// NewBuffer creates a buffer keeping capacity samples per command.
// capacity <= 0 means DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		series:   make(map[string]*ring),
	}
}

// Push records one sample for command and advances the offset by one.
// Once a series holds capacity samples the oldest is evicted.
func (b *Buffer) Push(command string, latencyMicroseconds float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.offset++
	r, ok := b.series[command]
	if !ok {
		r = newRing(b.capacity)
		b.series[command] = r
		b.keys = append(b.keys, command)
	}
	r.push(latencyMicroseconds)
}

// Reset zeroes the offset and drops every series.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.offset = 0
	b.keys = nil
	b.series = make(map[string]*ring)
}

// Resize changes the per-command capacity, keeping the newest samples of
// every series. The offset is unchanged.
func (b *Buffer) Resize(capacity int) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if capacity == b.capacity {
		return
	}
	b.capacity = capacity
	for k, r := range b.series {
		b.series[k] = r.resized(capacity)
	}
}

// Capacity returns the per-command sample capacity.
func (b *Buffer) Capacity() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.capacity
}

// Offset returns the number of samples pushed since creation or the last Reset.
func (b *Buffer) Offset() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.offset
}

// Snapshot returns a deep copy of the buffer.
func (b *Buffer) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := Snapshot{
		Offset:   b.offset,
		Capacity: b.capacity,
		Keys:     append([]string(nil), b.keys...),
		Series:   make(map[string][]float64, len(b.series)),
	}
	for k, r := range b.series {
		s.Series[k] = r.all()
	}
	return s
}

// Snapshot is a point-in-time copy of a Buffer. Keys lists commands in the
// order their first sample arrived.
type Snapshot struct {
	Offset   uint64
	Capacity int
	Keys     []string
	Series   map[string][]float64
}

// Point is one stored sample placed on the time axis.
type Point struct {
	Seconds float64
	Value   float64
}

// Points places the samples of key on the time axis. Sample j sits at
// (offset*interval + j*interval) / 1000 seconds.
func (s Snapshot) Points(key string, intervalMilliseconds int64) []Point {
	values := s.Series[key]
	if len(values) == 0 {
		return nil
	}

	interval := float64(intervalMilliseconds)
	base := float64(s.Offset) * interval
	points := make([]Point, len(values))
	for j, v := range values {
		points[j] = Point{
			Seconds: (base + float64(j)*interval) / 1000,
			Value:   v,
		}
	}
	return points
}

// Len returns the number of samples held across all series.
func (s Snapshot) Len() int {
	n := 0
	for _, v := range s.Series {
		n += len(v)
	}
	return n
}

// Latest returns the newest sample of key.
func (s Snapshot) Latest(key string) (float64, bool) {
	values := s.Series[key]
	if len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}
