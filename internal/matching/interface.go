package matching

import (
	"context"
	"time"
)

// RequestStore defines the match request operations the engine needs. The
// guarded mutations must be atomic: concurrent callers racing on the same
// request or booking must not both succeed.
type RequestStore interface {
	// CreateRequest inserts a request together with its creator participant.
	// Fails with ErrDuplicateActiveRequest if an OPEN or PENDING request
	// already exists for the booking.
	CreateRequest(ctx context.Context, req *MatchRequest, creator *Participant) error

	// GetRequest retrieves a request by ID. Fails with ErrRequestNotFound.
	GetRequest(ctx context.Context, requestID string) (*MatchRequest, error)

	// ListActiveRequests returns all OPEN and PENDING requests, newest first.
	ListActiveRequests(ctx context.Context) ([]MatchRequest, error)

	// TransitionStatus moves a request from one of the given statuses to the
	// target status. Fails with ErrInvalidTransition if the request is not in
	// any of the from statuses at commit time.
	TransitionStatus(ctx context.Context, requestID string, from []Status, to Status) error

	// AcceptParticipant atomically sets the request to MATCHED, keeps the
	// accepted participant and removes every other non-creator participant,
	// returning the removed ones. A concurrent join or second accept must not
	// interleave.
	AcceptParticipant(ctx context.Context, requestID, participantID string) (*Participant, []Participant, error)

	// RemoveParticipantAndReopen atomically removes a participant and, when no
	// non-creator participants remain, bounces the request back to OPEN.
	// Returns the remaining non-creator count and whether the request reopened.
	RemoveParticipantAndReopen(ctx context.Context, requestID, participantID string) (int, bool, error)

	// ExpireStale transitions every OPEN or PENDING request whose expires_at
	// has passed, or whose age exceeds horizon, to EXPIRED. Returns the
	// expired requests with their surviving participants.
	ExpireStale(ctx context.Context, now time.Time, horizon time.Duration) ([]ExpiredRequest, error)
}

// ParticipantLedger manages join-attempt uniqueness and membership queries.
type ParticipantLedger interface {
	// HasJoined reports whether the user already has a participant row on the
	// request.
	HasJoined(ctx context.Context, requestID, userID string) (bool, error)

	// AddJoiner inserts a non-creator participant and moves the request from
	// OPEN to PENDING in the same transaction. Fails with ErrAlreadyJoined or
	// ErrRequestNotOpen.
	AddJoiner(ctx context.Context, p *Participant) error

	// ListParticipants returns the request's participants ordered by joined_at.
	ListParticipants(ctx context.Context, requestID string) ([]Participant, error)

	// GetParticipant retrieves a participant belonging to the request. Fails
	// with ErrParticipantNotFound.
	GetParticipant(ctx context.Context, requestID, participantID string) (*Participant, error)

	// CountJoiners returns the number of non-creator participants.
	CountJoiners(ctx context.Context, requestID string) (int, error)
}

// ConflictChecker decides whether a user already holds a conflicting active
// match at a given date and time slot.
type ConflictChecker interface {
	// HasConflict is true iff the user participates in some MATCHED or
	// PENDING request whose booking falls on the same date and slot. It is
	// recomputed on every call; caching here would permit double-booking.
	HasConflict(ctx context.Context, userID, date, slotID string) (bool, error)
}

// Store is the full storage surface consumed by the engine.
type Store interface {
	RequestStore
	ParticipantLedger
	ConflictChecker
}

// SlotResolver resolves a booking to the two fields the engine needs. The
// engine deliberately does not depend on the full booking object graph.
type SlotResolver interface {
	ResolveSlot(ctx context.Context, bookingID string) (date string, slotID string, err error)
}

// ExpiredRequest pairs an expired request with the participants it had when
// the sweep caught it, so each of them can be notified.
type ExpiredRequest struct {
	Request      MatchRequest
	Participants []Participant
}
