package score

// DefaultHistorySize caps the raw analysis log.
const DefaultHistorySize = 100

// History is a bounded FIFO log; once full, the oldest entry is dropped.
type History[T any] struct {
	limit int
	items []T
}

// NewHistory returns an empty log holding at most limit entries.
func NewHistory[T any](limit int) *History[T] {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &History[T]{limit: limit}
}

// Append adds item, dropping the oldest entry if the log is full.
func (h *History[T]) Append(item T) {
	h.items = append(h.items, item)
	if over := len(h.items) - h.limit; over > 0 {
		h.items = append(h.items[:0], h.items[over:]...)
	}
}

// Items returns a copy of the log, oldest first.
func (h *History[T]) Items() []T {
	out := make([]T, len(h.items))
	copy(out, h.items)
	return out
}

// Len reports the number of entries held.
func (h *History[T]) Len() int { return len(h.items) }

// Reset empties the log.
func (h *History[T]) Reset() { h.items = h.items[:0] }
