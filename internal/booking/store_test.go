package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/opencourt/rally/internal/booking"
	"github.com/opencourt/rally/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (booking.BookingStore, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)
	return booking.New(db), dbTeardown
}

func TestCreateAndGetBooking(t *testing.T) {
	store, teardown := setupTestStore(t)
	defer teardown()
	ctx := context.Background()

	b := &booking.Booking{
		ID:        "b1",
		OwnerID:   "alice",
		FieldID:   "field-3",
		PlayDate:  "2025-06-01",
		SlotID:    "slot-18-19",
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateBooking(ctx, b))

	got, err := store.GetBooking(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.OwnerID)
	assert.Equal(t, "field-3", got.FieldID)
	assert.Equal(t, "2025-06-01", got.PlayDate)
	assert.Equal(t, "slot-18-19", got.SlotID)
}

func TestGetBooking_NotFound(t *testing.T) {
	store, teardown := setupTestStore(t)
	defer teardown()

	_, err := store.GetBooking(context.Background(), "missing")
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
}

func TestResolveSlot(t *testing.T) {
	store, teardown := setupTestStore(t)
	defer teardown()
	ctx := context.Background()

	require.NoError(t, store.CreateBooking(ctx, &booking.Booking{
		ID:        "b1",
		OwnerID:   "alice",
		FieldID:   "field-1",
		PlayDate:  "2025-06-02",
		SlotID:    "slot-09-10",
		CreatedAt: time.Now(),
	}))

	date, slotID, err := store.ResolveSlot(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-02", date)
	assert.Equal(t, "slot-09-10", slotID)

	_, _, err = store.ResolveSlot(ctx, "missing")
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
}

func TestListBookings(t *testing.T) {
	store, teardown := setupTestStore(t)
	defer teardown()
	ctx := context.Background()

	for _, id := range []string{"b1", "b2", "b3"} {
		require.NoError(t, store.CreateBooking(ctx, &booking.Booking{
			ID:        id,
			OwnerID:   "alice",
			FieldID:   "field-1",
			PlayDate:  "2025-06-01",
			SlotID:    "slot-" + id,
			CreatedAt: time.Now(),
		}))
	}

	bookings, err := store.ListBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, bookings, 3)
}
