package telemetry

// ring is a fixed-size circular buffer for float64 values.
type ring struct {
	data  []float64
	head  int
	count int
	size  int
}

func newRing(size int) *ring {
	return &ring{
		data: make([]float64, size),
		size: size,
	}
}

// push appends value, overwriting the oldest value once full.
func (r *ring) push(value float64) {
	r.data[r.head] = value
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// last returns up to n of the newest values, oldest first.
func (r *ring) last(n int) []float64 {
	if n <= 0 || r.count == 0 {
		return nil
	}
	if n > r.count {
		n = r.count
	}

	out := make([]float64, n)
	// head is the next write position, so the newest value is at head-1.
	start := (r.head - n + r.size) % r.size
	for i := 0; i < n; i++ {
		out[i] = r.data[(start+i)%r.size]
	}
	return out
}

func (r *ring) all() []float64 {
	return r.last(r.count)
}

// resized returns a ring of the new size holding the newest values of r.
func (r *ring) resized(size int) *ring {
	next := newRing(size)
	for _, v := range r.last(size) {
		next.push(v)
	}
	return next
}
