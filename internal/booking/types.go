package booking

import (
	"database/sql"
	"sync"
	"time"
)

// store handles all database operations for bookings.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Booking is a confirmed field reservation owned by a single user. The
// matching engine only ever consumes its (play_date, slot_id) pair.
type Booking struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	FieldID   string    `json:"field_id"`
	PlayDate  string    `json:"play_date"` // YYYY-MM-DD
	SlotID    string    `json:"slot_id"`
	CreatedAt time.Time `json:"created_at"`
}
