package matching

import (
	"context"
	"sync"
	"time"
)

// MockStore is a mock implementation of Store for testing. It is safe for
// concurrent use.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	CreateRequestFunc              func(ctx context.Context, req *MatchRequest, creator *Participant) error
	GetRequestFunc                 func(ctx context.Context, requestID string) (*MatchRequest, error)
	ListActiveRequestsFunc         func(ctx context.Context) ([]MatchRequest, error)
	TransitionStatusFunc           func(ctx context.Context, requestID string, from []Status, to Status) error
	AcceptParticipantFunc          func(ctx context.Context, requestID, participantID string) (*Participant, []Participant, error)
	RemoveParticipantAndReopenFunc func(ctx context.Context, requestID, participantID string) (int, bool, error)
	ExpireStaleFunc                func(ctx context.Context, now time.Time, horizon time.Duration) ([]ExpiredRequest, error)
	HasJoinedFunc                  func(ctx context.Context, requestID, userID string) (bool, error)
	AddJoinerFunc                  func(ctx context.Context, p *Participant) error
	ListParticipantsFunc           func(ctx context.Context, requestID string) ([]Participant, error)
	GetParticipantFunc             func(ctx context.Context, requestID, participantID string) (*Participant, error)
	CountJoinersFunc               func(ctx context.Context, requestID string) (int, error)
	HasConflictFunc                func(ctx context.Context, userID, date, slotID string) (bool, error)

	// Call records
	CreateRequestCalls     []*MatchRequest
	AddJoinerCalls         []*Participant
	AcceptParticipantCalls []struct{ RequestID, ParticipantID string }
	TransitionStatusCalls  []struct {
		RequestID string
		To        Status
	}
}

var _ Store = (*MockStore)(nil)

// NewMockStore creates a new mock store.
func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) CreateRequest(ctx context.Context, req *MatchRequest, creator *Participant) error {
	m.mu.Lock()
	m.CreateRequestCalls = append(m.CreateRequestCalls, req)
	m.mu.Unlock()
	if m.CreateRequestFunc != nil {
		return m.CreateRequestFunc(ctx, req, creator)
	}
	return nil
}

func (m *MockStore) GetRequest(ctx context.Context, requestID string) (*MatchRequest, error) {
	if m.GetRequestFunc != nil {
		return m.GetRequestFunc(ctx, requestID)
	}
	return nil, ErrRequestNotFound
}

func (m *MockStore) ListActiveRequests(ctx context.Context) ([]MatchRequest, error) {
	if m.ListActiveRequestsFunc != nil {
		return m.ListActiveRequestsFunc(ctx)
	}
	return nil, nil
}

func (m *MockStore) TransitionStatus(ctx context.Context, requestID string, from []Status, to Status) error {
	m.mu.Lock()
	m.TransitionStatusCalls = append(m.TransitionStatusCalls, struct {
		RequestID string
		To        Status
	}{requestID, to})
	m.mu.Unlock()
	if m.TransitionStatusFunc != nil {
		return m.TransitionStatusFunc(ctx, requestID, from, to)
	}
	return nil
}

func (m *MockStore) AcceptParticipant(ctx context.Context, requestID, participantID string) (*Participant, []Participant, error) {
	m.mu.Lock()
	m.AcceptParticipantCalls = append(m.AcceptParticipantCalls, struct{ RequestID, ParticipantID string }{requestID, participantID})
	m.mu.Unlock()
	if m.AcceptParticipantFunc != nil {
		return m.AcceptParticipantFunc(ctx, requestID, participantID)
	}
	return nil, nil, ErrParticipantNotFound
}

func (m *MockStore) RemoveParticipantAndReopen(ctx context.Context, requestID, participantID string) (int, bool, error) {
	if m.RemoveParticipantAndReopenFunc != nil {
		return m.RemoveParticipantAndReopenFunc(ctx, requestID, participantID)
	}
	return 0, false, ErrParticipantNotFound
}

func (m *MockStore) ExpireStale(ctx context.Context, now time.Time, horizon time.Duration) ([]ExpiredRequest, error) {
	if m.ExpireStaleFunc != nil {
		return m.ExpireStaleFunc(ctx, now, horizon)
	}
	return nil, nil
}

func (m *MockStore) HasJoined(ctx context.Context, requestID, userID string) (bool, error) {
	if m.HasJoinedFunc != nil {
		return m.HasJoinedFunc(ctx, requestID, userID)
	}
	return false, nil
}

func (m *MockStore) AddJoiner(ctx context.Context, p *Participant) error {
	m.mu.Lock()
	m.AddJoinerCalls = append(m.AddJoinerCalls, p)
	m.mu.Unlock()
	if m.AddJoinerFunc != nil {
		return m.AddJoinerFunc(ctx, p)
	}
	return nil
}

func (m *MockStore) ListParticipants(ctx context.Context, requestID string) ([]Participant, error) {
	if m.ListParticipantsFunc != nil {
		return m.ListParticipantsFunc(ctx, requestID)
	}
	return nil, nil
}

func (m *MockStore) GetParticipant(ctx context.Context, requestID, participantID string) (*Participant, error) {
	if m.GetParticipantFunc != nil {
		return m.GetParticipantFunc(ctx, requestID, participantID)
	}
	return nil, ErrParticipantNotFound
}

func (m *MockStore) CountJoiners(ctx context.Context, requestID string) (int, error) {
	if m.CountJoinersFunc != nil {
		return m.CountJoinersFunc(ctx, requestID)
	}
	return 0, nil
}

func (m *MockStore) HasConflict(ctx context.Context, userID, date, slotID string) (bool, error) {
	if m.HasConflictFunc != nil {
		return m.HasConflictFunc(ctx, userID, date, slotID)
	}
	return false, nil
}

// MockResolver is a mock SlotResolver for testing.
type MockResolver struct {
	ResolveSlotFunc func(ctx context.Context, bookingID string) (string, string, error)
}

var _ SlotResolver = (*MockResolver)(nil)

func (m *MockResolver) ResolveSlot(ctx context.Context, bookingID string) (string, string, error) {
	if m.ResolveSlotFunc != nil {
		return m.ResolveSlotFunc(ctx, bookingID)
	}
	return "2025-01-01", "slot-1", nil
}
