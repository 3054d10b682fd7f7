// Package score smooths noisy per-frame analysis scores into stable live
// metrics using fixed-size sliding windows.
package score

import "math"

// DefaultWindowSize is the number of recent samples each metric averages over.
const DefaultWindowSize = 20

// Window is a fixed-capacity FIFO of recent values. The zero value is not
// usable; construct with NewWindow.
type Window struct {
	size   int
	values []float64
}

// NewWindow returns an empty window holding at most size values.
// A non-positive size falls back to DefaultWindowSize.
func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Window{size: size, values: make([]float64, 0, size+1)}
}

// Push appends v, evicts the oldest value once the window is over capacity,
// and returns the recomputed rounded average.
func (w *Window) Push(v float64) int {
	w.values = append(w.values, v)
	if len(w.values) > w.size {
		// Shift in place so the backing array does not grow.
		copy(w.values, w.values[1:])
		w.values = w.values[:w.size]
	}
	return w.Average()
}

// Average recomputes the mean over the whole window and rounds half up.
// An empty window averages to 0.
func (w *Window) Average() int {
	if len(w.values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range w.values {
		sum += v
	}
	return Round(sum / float64(len(w.values)))
}

// Values returns a copy of the window contents, oldest first.
func (w *Window) Values() []float64 {
	out := make([]float64, len(w.values))
	copy(out, w.values)
	return out
}

// Len reports how many values the window currently holds.
func (w *Window) Len() int { return len(w.values) }

// Reset empties the window.
func (w *Window) Reset() { w.values = w.values[:0] }

// Round rounds x to the nearest integer with halves rounding up
// (70.5 → 71, -0.5 → 0).
func Round(x float64) int {
	return int(math.Floor(x + 0.5))
}
