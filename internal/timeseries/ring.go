package timeseries

// PriceRingSize is the number of live price ticks retained per asset.
const PriceRingSize = 20

// PriceRing is a fixed-capacity circular buffer of live prices. The zero
// value is ready to use. Writes wrap around once the buffer is full.
type PriceRing struct {
	prices [PriceRingSize]float64
	count  int
	index  int
}

// Push appends a price, overwriting the oldest entry when full.
func (r *PriceRing) Push(price float64) {
	r.prices[r.index] = price
	r.index = (r.index + 1) % PriceRingSize
	if r.count < PriceRingSize {
		r.count++
	}
}

// Len returns the number of prices currently held.
func (r *PriceRing) Len() int {
	return r.count
}

// Snapshot returns the held prices in chronological order (oldest first).
func (r *PriceRing) Snapshot() []float64 {
	out := make([]float64, r.count)
	if r.count < PriceRingSize {
		copy(out, r.prices[:r.count])
		return out
	}
	for i := 0; i < r.count; i++ {
		out[i] = r.prices[(r.index+i)%PriceRingSize]
	}
	return out
}

// Recent returns up to n of the most recent prices in chronological order.
func (r *PriceRing) Recent(n int) []float64 {
	if n > r.count {
		n = r.count
	}
	out := make([]float64, n)
	start := (r.index - n + PriceRingSize) % PriceRingSize
	for i := 0; i < n; i++ {
		out[i] = r.prices[(start+i)%PriceRingSize]
	}
	return out
}

// Reset clears the ring.
func (r *PriceRing) Reset() {
	r.count = 0
	r.index = 0
}
