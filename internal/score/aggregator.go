package score

// Metric names one analysis category reported per frame.
type Metric int

const (
	Posture Metric = iota
	Eye
	Gesture
	metricCount
)

// Metrics lists every metric in display order.
var Metrics = [metricCount]Metric{Posture, Eye, Gesture}

func (m Metric) String() string {
	switch m {
	case Posture:
		return "posture"
	case Eye:
		return "eye"
	case Gesture:
		return "gesture"
	default:
		return "unknown"
	}
}

// Aggregator keeps one sliding window per metric. It is pure and
// synchronous; callers serialize access.
type Aggregator struct {
	windows [metricCount]*Window
}

// NewAggregator returns an aggregator whose windows hold size values each.
func NewAggregator(size int) *Aggregator {
	a := &Aggregator{}
	for i := range a.windows {
		a.windows[i] = NewWindow(size)
	}
	return a
}

// Push appends value to metric's window and returns the new rolling average.
// Unknown metrics are ignored and report 0.
func (a *Aggregator) Push(metric Metric, value float64) int {
	if metric < 0 || metric >= metricCount {
		return 0
	}
	return a.windows[metric].Push(value)
}

// Average returns the current rolling average for metric.
func (a *Aggregator) Average(metric Metric) int {
	if metric < 0 || metric >= metricCount {
		return 0
	}
	return a.windows[metric].Average()
}

// Window exposes the underlying window for metric, or nil when unknown.
func (a *Aggregator) Window(metric Metric) *Window {
	if metric < 0 || metric >= metricCount {
		return nil
	}
	return a.windows[metric]
}

// Reset clears every window.
func (a *Aggregator) Reset() {
	for _, w := range a.windows {
		w.Reset()
	}
}
