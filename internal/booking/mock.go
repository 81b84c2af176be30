package booking

import (
	"context"
	"sync"
)

// Mock is an in-memory BookingStore for testing.
type Mock struct {
	mu       sync.Mutex
	bookings map[string]Booking

	// Spy overrides
	ResolveSlotFunc func(ctx context.Context, bookingID string) (string, string, error)
}

var _ BookingStore = (*Mock)(nil)

// NewMock creates a new mock booking store.
func NewMock() *Mock {
	return &Mock{bookings: make(map[string]Booking)}
}

func (m *Mock) CreateBooking(ctx context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = *b
	return nil
}

func (m *Mock) GetBooking(ctx context.Context, bookingID string) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return &b, nil
}

func (m *Mock) ListBookings(ctx context.Context) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Booking
	for _, b := range m.bookings {
		out = append(out, b)
	}
	return out, nil
}

func (m *Mock) ResolveSlot(ctx context.Context, bookingID string) (string, string, error) {
	if m.ResolveSlotFunc != nil {
		return m.ResolveSlotFunc(ctx, bookingID)
	}
	b, err := m.GetBooking(ctx, bookingID)
	if err != nil {
		return "", "", err
	}
	return b.PlayDate, b.SlotID, nil
}
