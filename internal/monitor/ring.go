package monitor

// ring is a fixed-capacity circular buffer of samples. Once full, pushing a
// new sample silently overwrites the oldest one.
type ring struct {
	buf  []Sample
	head int // index of the oldest sample
	n    int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]Sample, capacity)}
}

func (r *ring) push(s Sample) {
	if r.n < len(r.buf) {
		r.buf[(r.head+r.n)%len(r.buf)] = s
		r.n++
		return
	}
	r.buf[r.head] = s
	r.head = (r.head + 1) % len(r.buf)
}

func (r *ring) len() int { return r.n }

// tail returns a copy of the most recent min(max, len) samples in
// chronological order (oldest first).
func (r *ring) tail(max int) []Sample {
	n := r.n
	if max < n {
		n = max
	}
	if n < 0 {
		n = 0
	}
	out := make([]Sample, n)
	start := r.head + r.n - n
	for i := 0; i < n; i++ {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}

// countLosses scans the buffer and returns the number of samples flagged as
// losses. O(len), which is bounded by the ring capacity.
func (r *ring) countLosses() int {
	lost := 0
	for i := 0; i < r.n; i++ {
		if r.buf[(r.head+i)%len(r.buf)].IsLoss {
			lost++
		}
	}
	return lost
}
