package matching

import (
	"database/sql"
	"sync"
	"time"
)

// Status represents the lifecycle state of a match request.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusPending   Status = "PENDING"
	StatusMatched   Status = "MATCHED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// IsTerminal reports whether no transition leaves this status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusMatched, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// MaxDescriptionLen caps the free-text description on a match request.
const MaxDescriptionLen = 500

// MatchRequest advertises an open slot on a booking, seeking an opponent.
type MatchRequest struct {
	ID          string     `json:"id"`
	BookingID   string     `json:"booking_id"`
	CreatorID   string     `json:"creator_id"`
	Status      Status     `json:"status"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"` // nil means the request never auto-expires
}

// Participant is a user's attachment to a match request, either the
// creator or a joiner.
type Participant struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	UserID    string    `json:"user_id"`
	IsCreator bool      `json:"is_creator"`
	JoinedAt  time.Time `json:"joined_at"`
}

// MatchResult is returned when a creator accepts a joiner and the request
// reaches MATCHED.
type MatchResult struct {
	Request  *MatchRequest `json:"request"`
	Accepted *Participant  `json:"accepted"`
	Rejected []Participant `json:"rejected"`
}

// NotificationKind classifies a notification effect.
type NotificationKind string

const (
	NotifyParticipantJoined NotificationKind = "participant_joined"
	NotifyRequestAccepted   NotificationKind = "request_accepted"
	NotifyRequestMatched    NotificationKind = "request_matched"
	NotifyRequestRejected   NotificationKind = "request_rejected"
	NotifyRequestCancelled  NotificationKind = "request_cancelled"
	NotifyRequestExpired    NotificationKind = "request_expired"
)

// Notification is a fire-and-forget effect produced by an engine operation.
// The engine never delivers these itself; a dispatcher outside the core does.
type Notification struct {
	UserID    string           `json:"user_id" msgpack:"user_id"`
	Kind      NotificationKind `json:"kind" msgpack:"kind"`
	RequestID string           `json:"request_id" msgpack:"request_id"`
	Message   string           `json:"message" msgpack:"message"`
}

// store handles all database operations for matching.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}
