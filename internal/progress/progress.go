// Package progress carries incremental status events out of long-running
// discovery and backtest cycles so a caller (CLI, websocket hub) can stay
// responsive without the core ever blocking on a slow consumer.
package progress

// Event is one step update. Percent is 0-100 across the whole cycle.
type Event struct {
	Step    string  `json:"step"`
	Percent float64 `json:"percent"`
}

// Reporter is a bounded, drop-on-full event stream. A nil *Reporter is valid
// and discards everything, so core code never branches on "is anyone
// listening".
type Reporter struct {
	ch chan Event
}

// NewReporter allocates a reporter with the given buffer.
func NewReporter(buffer int) *Reporter {
	if buffer <= 0 {
		buffer = 64
	}
	return &Reporter{ch: make(chan Event, buffer)}
}

// Events exposes the stream for consumers.
func (r *Reporter) Events() <-chan Event {
	return r.ch
}

// Report publishes one event. Non-blocking: if the consumer lags, the event
// is dropped rather than stalling a solve loop.
func (r *Reporter) Report(step string, percent float64) {
	if r == nil {
		return
	}
	select {
	case r.ch <- Event{Step: step, Percent: percent}:
	default:
	}
}

// Close ends the stream. Callers stop reporting before closing.
func (r *Reporter) Close() {
	if r == nil {
		return
	}
	close(r.ch)
}
