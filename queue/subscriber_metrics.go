package queue

import (
	"sync/atomic"
	"time"
)

// subscriberMetrics tracks operational metrics for a subscriber.
type subscriberMetrics struct {
	activeMessages atomic.Int64 // messages currently being handled
	lastActivity   atomic.Int64 // UnixNano
	processingTime atomic.Int64 // total, in nanoseconds
	messageCount   atomic.Int64
	errorCount     atomic.Int64
}

// IsIdle reports whether the subscriber is waiting with nothing in flight.
func (m *subscriberMetrics) IsIdle(state SubscriberState) bool {
	return state == SubscriberStateWaiting && m.activeMessages.Load() <= 0
}

// IdleTime returns the duration since last activity if the subscriber is idle.
func (m *subscriberMetrics) IdleTime(state SubscriberState) time.Duration {
	if !m.IsIdle(state) {
		return 0
	}

	lastActivity := m.lastActivity.Load()
	if lastActivity == 0 {
		return 0
	}

	return time.Since(time.Unix(0, lastActivity))
}

// AverageProcessingTime returns the average time spent processing messages.
func (m *subscriberMetrics) AverageProcessingTime() time.Duration {
	count := m.messageCount.Load()
	if count == 0 {
		return 0
	}

	return time.Duration(m.processingTime.Load() / count)
}

func (m *subscriberMetrics) MessageCount() int64 {
	return m.messageCount.Load()
}

func (m *subscriberMetrics) ErrorCount() int64 {
	return m.errorCount.Load()
}

func (m *subscriberMetrics) closeMessage(startTime time.Time, err error) {
	if err != nil {
		m.errorCount.Add(1)
	}

	m.processingTime.Add(time.Since(startTime).Nanoseconds())
	m.messageCount.Add(1)
	m.activeMessages.Add(-1)
	m.lastActivity.Store(time.Now().UnixNano())
}
