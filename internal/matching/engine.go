package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Engine orchestrates the match request lifecycle. All mutation of requests
// and participants goes through here; callers never touch the store directly.
// Every operation validates its guards before mutating, so a guard failure
// leaves zero state changes behind. Operations return notification effects
// instead of delivering them, keeping the core free of notification plumbing.
type Engine struct {
	store    Store
	resolver SlotResolver
}

// NewEngine creates a new matching engine.
func NewEngine(store Store, resolver SlotResolver) *Engine {
	return &Engine{
		store:    store,
		resolver: resolver,
	}
}

// CreateRequest opens a new match request on a booking, with the creator as
// its first participant. At most one OPEN/PENDING request may exist per
// booking; a second create fails with ErrDuplicateActiveRequest.
func (e *Engine) CreateRequest(ctx context.Context, bookingID, creatorID, description string, expiresAt *time.Time) (*MatchRequest, []Notification, error) {
	if len(description) > MaxDescriptionLen {
		description = description[:MaxDescriptionLen]
	}
	// The slot must resolve up front, otherwise the request would be
	// unjoinable forever.
	if _, _, err := e.resolver.ResolveSlot(ctx, bookingID); err != nil {
		return nil, nil, fmt.Errorf("%w: booking %s: %v", ErrInvalidSlot, bookingID, err)
	}

	now := time.Now()
	req := &MatchRequest{
		ID:          uuid.New().String(),
		BookingID:   bookingID,
		CreatorID:   creatorID,
		Status:      StatusOpen,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   expiresAt,
	}
	creator := &Participant{
		ID:        uuid.New().String(),
		RequestID: req.ID,
		UserID:    creatorID,
		IsCreator: true,
		JoinedAt:  now,
	}

	if err := e.store.CreateRequest(ctx, req, creator); err != nil {
		return nil, nil, err
	}

	// No other party yet, so nothing to notify.
	return req, nil, nil
}

// Join attaches a user to an OPEN request as a prospective opponent. The
// user's other active commitments are conflict-checked against the request's
// booking slot before any write happens.
func (e *Engine) Join(ctx context.Context, requestID, userID string) (*Participant, []Notification, error) {
	req, err := e.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if req.Status != StatusOpen && req.Status != StatusPending {
		return nil, nil, ErrRequestNotOpen
	}

	joined, err := e.store.HasJoined(ctx, requestID, userID)
	if err != nil {
		return nil, nil, err
	}
	if joined {
		return nil, nil, ErrAlreadyJoined
	}

	date, slotID, err := e.resolver.ResolveSlot(ctx, req.BookingID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: booking %s: %v", ErrInvalidSlot, req.BookingID, err)
	}

	conflict, err := e.store.HasConflict(ctx, userID, date, slotID)
	if err != nil {
		return nil, nil, err
	}
	if conflict {
		return nil, nil, ErrTimeConflict
	}

	p := &Participant{
		ID:        uuid.New().String(),
		RequestID: requestID,
		UserID:    userID,
		IsCreator: false,
		JoinedAt:  time.Now(),
	}
	if err := e.store.AddJoiner(ctx, p); err != nil {
		return nil, nil, err
	}

	notifs := []Notification{{
		UserID:    req.CreatorID,
		Kind:      NotifyParticipantJoined,
		RequestID: requestID,
		Message:   fmt.Sprintf("A player asked to join your match for booking %s.", req.BookingID),
	}}
	return p, notifs, nil
}

// AcceptParticipant finalizes the match: the selected joiner stays, every
// other joiner is removed and notified, and the request reaches MATCHED. The
// removal and the status change happen as one atomic unit so a concurrent
// join or second accept cannot produce two accepted opponents.
func (e *Engine) AcceptParticipant(ctx context.Context, requestID, participantID, creatorID string) (*MatchResult, []Notification, error) {
	req, err := e.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if req.CreatorID != creatorID {
		return nil, nil, ErrNotOwner
	}
	if _, err := Next(req.Status, EventAccept); err != nil {
		return nil, nil, err
	}

	accepted, rejected, err := e.store.AcceptParticipant(ctx, requestID, participantID)
	if err != nil {
		return nil, nil, err
	}
	req.Status = StatusMatched

	notifs := []Notification{{
		UserID:    accepted.UserID,
		Kind:      NotifyRequestAccepted,
		RequestID: requestID,
		Message:   "You are in! The match creator accepted your request.",
	}, {
		UserID:    req.CreatorID,
		Kind:      NotifyRequestMatched,
		RequestID: requestID,
		Message:   "Your match request is settled. Opponent confirmed.",
	}}
	for _, p := range rejected {
		notifs = append(notifs, Notification{
			UserID:    p.UserID,
			Kind:      NotifyRequestRejected,
			RequestID: requestID,
			Message:   "The match creator went with another player this time.",
		})
	}

	log.Info("Match settled", "requestID", requestID, "acceptedUserID", accepted.UserID, "rejected", len(rejected))
	return &MatchResult{Request: req, Accepted: accepted, Rejected: rejected}, notifs, nil
}

// RejectOrWithdraw removes a joiner from a PENDING request. Permitted for the
// request creator (rejecting) and for the participant's own user
// (withdrawing). When the last joiner goes, the request bounces back to OPEN.
func (e *Engine) RejectOrWithdraw(ctx context.Context, requestID, participantID, actingUserID string) ([]Notification, error) {
	req, err := e.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	p, err := e.store.GetParticipant(ctx, requestID, participantID)
	if err != nil {
		return nil, err
	}
	if p.IsCreator {
		return nil, ErrParticipantNotFound
	}
	if actingUserID != req.CreatorID && actingUserID != p.UserID {
		return nil, ErrNotOwner
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("%w: cannot remove participant from %s request", ErrInvalidTransition, req.Status)
	}

	if _, _, err := e.store.RemoveParticipantAndReopen(ctx, requestID, participantID); err != nil {
		return nil, err
	}

	message := "You were removed from the match request."
	if actingUserID == p.UserID {
		message = "You withdrew from the match request."
	}
	return []Notification{{
		UserID:    p.UserID,
		Kind:      NotifyRequestRejected,
		RequestID: requestID,
		Message:   message,
	}}, nil
}

// CancelRequest cancels an OPEN or PENDING request. Only the creator may
// cancel, and a MATCHED request can no longer be cancelled.
func (e *Engine) CancelRequest(ctx context.Context, requestID, creatorID string) ([]Notification, error) {
	req, err := e.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CreatorID != creatorID {
		return nil, ErrNotOwner
	}
	if _, err := Next(req.Status, EventCancel); err != nil {
		return nil, err
	}

	participants, err := e.store.ListParticipants(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if err := e.store.TransitionStatus(ctx, requestID, []Status{StatusOpen, StatusPending}, StatusCancelled); err != nil {
		return nil, err
	}

	var notifs []Notification
	for _, p := range participants {
		if p.IsCreator {
			continue
		}
		notifs = append(notifs, Notification{
			UserID:    p.UserID,
			Kind:      NotifyRequestCancelled,
			RequestID: requestID,
			Message:   "The match request you joined was cancelled by its creator.",
		})
	}
	return notifs, nil
}

// SweepExpire expires every OPEN or PENDING request whose expires_at has
// passed or whose age exceeds horizon, and returns how many it processed.
// It is idempotent and safe to run concurrently with user-initiated
// transitions: a request that settled moments earlier simply falls out of
// the sweep's status filter.
func (e *Engine) SweepExpire(ctx context.Context, now time.Time, horizon time.Duration) (int, []Notification, error) {
	expired, err := e.store.ExpireStale(ctx, now, horizon)
	if err != nil {
		return 0, nil, err
	}

	var notifs []Notification
	for _, ex := range expired {
		for _, p := range ex.Participants {
			notifs = append(notifs, Notification{
				UserID:    p.UserID,
				Kind:      NotifyRequestExpired,
				RequestID: ex.Request.ID,
				Message:   "The match request expired before an opponent was confirmed.",
			})
		}
	}
	return len(expired), notifs, nil
}

// GetRequest returns a request with its participants, for read-only callers.
func (e *Engine) GetRequest(ctx context.Context, requestID string) (*MatchRequest, []Participant, error) {
	req, err := e.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	participants, err := e.store.ListParticipants(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	return req, participants, nil
}

// ListActiveRequests returns all OPEN and PENDING requests.
func (e *Engine) ListActiveRequests(ctx context.Context) ([]MatchRequest, error) {
	return e.store.ListActiveRequests(ctx)
}
