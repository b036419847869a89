package telemetry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuffer(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		expected int
	}{
		{"default capacity", 0, DefaultCapacity},
		{"negative capacity", -1, DefaultCapacity},
		{"custom capacity", 100, 100},
		{"small capacity", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(tt.capacity)
			assert.Equal(t, tt.expected, b.Capacity())
			assert.Zero(t, b.Offset())
			assert.Empty(t, b.Snapshot().Keys)
		})
	}
}

func TestBuffer_ScenarioA(t *testing.T) {
	b := NewBuffer(DefaultCapacity)

	b.Push("get test", 1200)
	b.Push("get test", 1200)
	b.Push("set test 0", 900)

	s := b.Snapshot()
	assert.Equal(t, uint64(3), s.Offset)
	assert.Equal(t, []float64{1200, 1200}, s.Series["get test"])
	assert.Equal(t, []float64{900}, s.Series["set test 0"])
	assert.Equal(t, []string{"get test", "set test 0"}, s.Keys)

	points := s.Points("get test", 500)
	require.Len(t, points, 2)
	assert.Equal(t, Point{Seconds: 1.5, Value: 1200}, points[0])
	assert.Equal(t, Point{Seconds: 2.0, Value: 1200}, points[1])
}

func TestBuffer_ScenarioB(t *testing.T) {
	b := NewBuffer(2)

	for _, v := range []float64{1, 2, 3} {
		b.Push("x", v)
	}

	assert.Equal(t, []float64{2, 3}, b.Snapshot().Series["x"])
}

func TestBuffer_CapKeepsMostRecent(t *testing.T) {
	const capacity = 7
	b := NewBuffer(capacity)

	var pushed []float64
	for i := 0; i < 50; i++ {
		v := float64(i*3 + 1)
		b.Push("get test", v)
		pushed = append(pushed, v)

		got := b.Snapshot().Series["get test"]
		require.LessOrEqual(t, len(got), capacity)

		start := len(pushed) - capacity
		if start < 0 {
			start = 0
		}
		require.Equal(t, pushed[start:], got, "after push %d", i)
	}
}

func TestBuffer_OffsetCountsAllKeys(t *testing.T) {
	b := NewBuffer(3)

	keys := []string{"a", "b", "c"}
	for k := 1; k <= 40; k++ {
		b.Push(keys[k%len(keys)], float64(k))
		assert.Equal(t, uint64(k), b.Offset())
	}
}

func TestBuffer_Reset(t *testing.T) {
	b := NewBuffer(5)
	b.Push("a", 1)
	b.Push("b", 2)

	b.Reset()

	s := b.Snapshot()
	assert.Zero(t, s.Offset)
	assert.Empty(t, s.Keys)
	assert.Empty(t, s.Series)

	b.Push("b", 3)
	s = b.Snapshot()
	assert.Equal(t, uint64(1), s.Offset)
	assert.Equal(t, []string{"b"}, s.Keys)
}

func TestBuffer_Resize(t *testing.T) {
	b := NewBuffer(5)
	for i := 1; i <= 5; i++ {
		b.Push("a", float64(i))
	}

	b.Resize(2)
	s := b.Snapshot()
	assert.Equal(t, 2, s.Capacity)
	assert.Equal(t, []float64{4, 5}, s.Series["a"])
	assert.Equal(t, uint64(5), s.Offset, "resize keeps the offset")

	b.Push("a", 6)
	assert.Equal(t, []float64{5, 6}, b.Snapshot().Series["a"])

	b.Resize(4)
	b.Push("a", 7)
	b.Push("a", 8)
	assert.Equal(t, []float64{5, 6, 7, 8}, b.Snapshot().Series["a"])

	b.Resize(0)
	assert.Equal(t, DefaultCapacity, b.Capacity())
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	b := NewBuffer(3)
	b.Push("a", 1)

	s := b.Snapshot()
	s.Series["a"][0] = 99
	s.Keys[0] = "mutated"

	fresh := b.Snapshot()
	assert.Equal(t, []float64{1}, fresh.Series["a"])
	assert.Equal(t, []string{"a"}, fresh.Keys)
}

func TestSnapshot_Helpers(t *testing.T) {
	b := NewBuffer(3)
	b.Push("a", 1)
	b.Push("a", 2)
	b.Push("b", 10)

	s := b.Snapshot()
	assert.Equal(t, 3, s.Len())

	v, ok := s.Latest("a")
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)

	_, ok = s.Latest("missing")
	assert.False(t, ok)
	assert.Nil(t, s.Points("missing", 500))
}

func TestBuffer_Concurrent(t *testing.T) {
	b := NewBuffer(10)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Push(fmt.Sprintf("cmd-%d", i%3), float64(j))
				_ = b.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	s := b.Snapshot()
	assert.Equal(t, uint64(1000), s.Offset)
	for _, k := range s.Keys {
		assert.Len(t, s.Series[k], 10)
	}
}

func TestRing(t *testing.T) {
	r := newRing(3)
	assert.Nil(t, r.all())

	r.push(1)
	r.push(2)
	assert.Equal(t, []float64{1, 2}, r.all())
	assert.Equal(t, []float64{2}, r.last(1))

	r.push(3)
	r.push(4)
	assert.Equal(t, []float64{2, 3, 4}, r.all())
	assert.Equal(t, []float64{2, 3, 4}, r.last(10))
	assert.Nil(t, r.last(0))

	grown := r.resized(5)
	grown.push(5)
	assert.Equal(t, []float64{2, 3, 4, 5}, grown.all())
}
