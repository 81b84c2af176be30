package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu              sync.Mutex
	requestsCreated int
	joins           int
	matchesMade     int
	sweepRuns       int
	sweepExpired    []float64
	notifSent       int
	notifFailed     int
	startupTime     float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		sweepExpired: make([]float64, 0),
	}
}

func (m *Mock) IncRequestsCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsCreated++
}

func (m *Mock) IncJoins() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joins++
}

func (m *Mock) IncMatchesMade() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesMade++
}

func (m *Mock) IncSweepRuns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepRuns++
}

func (m *Mock) ObserveSweepExpired(count float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepExpired = append(m.sweepExpired, count)
}

func (m *Mock) IncNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifSent++
}

func (m *Mock) IncNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// RequestsCreated returns the number of times IncRequestsCreated was called.
func (m *Mock) RequestsCreated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestsCreated
}

// Joins returns the number of times IncJoins was called.
func (m *Mock) Joins() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.joins
}

// MatchesMade returns the number of times IncMatchesMade was called.
func (m *Mock) MatchesMade() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesMade
}

// NotifSent returns the number of times IncNotifSent was called.
func (m *Mock) NotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifSent
}

// NotifFailed returns the number of times IncNotifFailed was called.
func (m *Mock) NotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifFailed
}
