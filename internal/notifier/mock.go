package notifier

import (
	"context"
	"sync"

	"github.com/opencourt/rally/internal/matching"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spy
	NotifyFunc func(ctx context.Context, n matching.Notification, dryRun bool) error

	// Call records
	NotifyCalls []matching.Notification
}

var _ Notifier = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifyCalls = nil
}

func (m *Mock) Notify(ctx context.Context, n matching.Notification, dryRun bool) error {
	m.mu.Lock()
	m.NotifyCalls = append(m.NotifyCalls, n)
	m.mu.Unlock()
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, n, dryRun)
	}
	return nil
}
