package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// ErrBookingNotFound is returned when a booking ID resolves to nothing.
var ErrBookingNotFound = errors.New("booking not found")

// New creates a new BookingStore.
func New(db *sql.DB) BookingStore {
	return &store{
		db: db,
	}
}

func (s *store) CreateBooking(ctx context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (id, owner_id, field_id, play_date, slot_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, b.ID, b.OwnerID, b.FieldID, b.PlayDate, b.SlotID, b.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	log.Info("Created booking", "bookingID", b.ID, "ownerID", b.OwnerID, "date", b.PlayDate, "slot", b.SlotID)
	return nil
}

func (s *store) GetBooking(ctx context.Context, bookingID string) (*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b Booking
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, field_id, play_date, slot_id, created_at
		FROM bookings WHERE id = ?
	`, bookingID).Scan(&b.ID, &b.OwnerID, &b.FieldID, &b.PlayDate, &b.SlotID, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	b.CreatedAt = time.Unix(createdAt, 0)
	return &b, nil
}

func (s *store) ListBookings(ctx context.Context) ([]Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, field_id, play_date, slot_id, created_at
		FROM bookings ORDER BY play_date, slot_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		var b Booking
		var createdAt int64
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.FieldID, &b.PlayDate, &b.SlotID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking row: %w", err)
		}
		b.CreatedAt = time.Unix(createdAt, 0)
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (s *store) ResolveSlot(ctx context.Context, bookingID string) (string, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var date, slotID string
	err := s.db.QueryRowContext(ctx, `
		SELECT play_date, slot_id FROM bookings WHERE id = ?
	`, bookingID).Scan(&date, &slotID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", "", ErrBookingNotFound
		}
		return "", "", fmt.Errorf("failed to resolve slot: %w", err)
	}
	return date, slotID, nil
}
