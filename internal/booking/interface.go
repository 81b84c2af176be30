package booking

import "context"

// BookingStore defines the interface for interacting with booking data.
// ResolveSlot is the narrow query the matching engine depends on; the engine
// never navigates the booking object graph.
type BookingStore interface {
	CreateBooking(ctx context.Context, b *Booking) error
	GetBooking(ctx context.Context, bookingID string) (*Booking, error)
	ListBookings(ctx context.Context) ([]Booking, error)
	ResolveSlot(ctx context.Context, bookingID string) (date string, slotID string, err error)
}
