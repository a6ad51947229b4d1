package util

import "time"

// Timer is a lightweight helper to measure elapsed durations.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer starting at current time.
func StartTimer() Timer {
	return Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed milliseconds since start.
func (t Timer) ElapsedMs() int64 {
	if t.start.IsZero() {
		return 0
	}
	return time.Since(t.start).Milliseconds()
}

// Latency is an artificial delay applied before a response is written.
type Latency time.Duration

// Wait parks the calling goroutine until the delay elapses. It is not tied to
// any context, so an accepted request always completes.
func (l Latency) Wait() {
	if l <= 0 {
		return
	}
	timer := time.NewTimer(time.Duration(l))
	<-timer.C
}

// Milliseconds reports the delay in whole milliseconds.
func (l Latency) Milliseconds() int64 {
	return time.Duration(l).Milliseconds()
}
