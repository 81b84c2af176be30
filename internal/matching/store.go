package matching

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// NewStore creates a new matching store backed by the given database.
func NewStore(db *sql.DB) Store {
	return &store{
		db: db,
	}
}

const requestColumns = `id, booking_id, creator_id, status, description, created_at, updated_at, expires_at`

func (s *store) CreateRequest(ctx context.Context, req *MatchRequest, creator *Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin create request transaction", err)
	}
	defer tx.Rollback()

	var expiresAt *int64
	if req.ExpiresAt != nil {
		v := req.ExpiresAt.Unix()
		expiresAt = &v
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO match_requests (id, booking_id, creator_id, status, description, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, req.ID, req.BookingID, req.CreatorID, string(req.Status), req.Description, req.CreatedAt.Unix(), req.UpdatedAt.Unix(), expiresAt)
	if err != nil {
		// The partial unique index on (booking_id) over OPEN/PENDING rows is
		// what makes the duplicate check race-free across concurrent creates.
		if isUniqueViolation(err) {
			return ErrDuplicateActiveRequest
		}
		return storageErr("insert match request", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO match_participants (id, request_id, user_id, is_creator, joined_at)
		VALUES (?, ?, ?, 1, ?)
	`, creator.ID, creator.RequestID, creator.UserID, creator.JoinedAt.Unix())
	if err != nil {
		return storageErr("insert creator participant", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit create request", err)
	}

	log.Info("Created match request", "requestID", req.ID, "bookingID", req.BookingID, "creatorID", req.CreatorID)
	return nil
}

func (s *store) GetRequest(ctx context.Context, requestID string) (*MatchRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM match_requests WHERE id = ?`, requestID)
	req, err := scanRequest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRequestNotFound
		}
		return nil, storageErr("get match request", err)
	}
	return req, nil
}

func (s *store) ListActiveRequests(ctx context.Context) ([]MatchRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM match_requests
		WHERE status IN (?, ?)
		ORDER BY created_at DESC
	`, string(StatusOpen), string(StatusPending))
	if err != nil {
		return nil, storageErr("query active match requests", err)
	}
	defer rows.Close()

	var requests []MatchRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, storageErr("scan match request row", err)
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

func (s *store) TransitionStatus(ctx context.Context, requestID string, from []Status, to Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.transitionStatusLocked(ctx, s.db, requestID, from, to)
}

// execer lets the guarded status update run either on the pool or inside an
// open transaction. Both *sql.DB and *sql.Tx satisfy it.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *store) transitionStatusLocked(ctx context.Context, ex execer, requestID string, from []Status, to Status) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(from)), ",")
	args := []any{string(to), time.Now().Unix(), requestID}
	for _, f := range from {
		args = append(args, string(f))
	}

	res, err := ex.ExecContext(ctx, `
		UPDATE match_requests SET status = ?, updated_at = ?
		WHERE id = ? AND status IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return storageErr("update match request status", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr("read rows affected", err)
	}
	if affected == 0 {
		// Either the request is gone or it moved out of the expected states
		// under a concurrent caller. The guard must fail, not silently pass.
		var exists bool
		if err := ex.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM match_requests WHERE id = ?)`, requestID).Scan(&exists); err != nil {
			return storageErr("check match request existence", err)
		}
		if !exists {
			return ErrRequestNotFound
		}
		return fmt.Errorf("%w: request %s not in %v", ErrInvalidTransition, requestID, from)
	}

	log.Info("Updated match request status", "requestID", requestID, "status", to)
	return nil
}

func (s *store) AcceptParticipant(ctx context.Context, requestID, participantID string) (*Participant, []Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, storageErr("begin accept transaction", err)
	}
	defer tx.Rollback()

	accepted, err := scanParticipant(tx.QueryRowContext(ctx, `
		SELECT id, request_id, user_id, is_creator, joined_at
		FROM match_participants WHERE id = ? AND request_id = ?
	`, participantID, requestID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, ErrParticipantNotFound
		}
		return nil, nil, storageErr("get participant for accept", err)
	}
	if accepted.IsCreator {
		return nil, nil, ErrParticipantNotFound
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, request_id, user_id, is_creator, joined_at
		FROM match_participants
		WHERE request_id = ? AND is_creator = 0 AND id != ?
		ORDER BY joined_at ASC
	`, requestID, participantID)
	if err != nil {
		return nil, nil, storageErr("query losing participants", err)
	}
	var removed []Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			rows.Close()
			return nil, nil, storageErr("scan losing participant", err)
		}
		removed = append(removed, *p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, storageErr("iterate losing participants", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM match_participants WHERE request_id = ? AND is_creator = 0 AND id != ?
	`, requestID, participantID)
	if err != nil {
		return nil, nil, storageErr("remove losing participants", err)
	}

	if err := s.transitionStatusLocked(ctx, tx, requestID, []Status{StatusPending}, StatusMatched); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, storageErr("commit accept", err)
	}

	log.Info("Accepted participant", "requestID", requestID, "participantID", participantID, "rejected", len(removed))
	return accepted, removed, nil
}

func (s *store) RemoveParticipantAndReopen(ctx context.Context, requestID, participantID string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, storageErr("begin remove transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM match_participants WHERE id = ? AND request_id = ? AND is_creator = 0
	`, participantID, requestID)
	if err != nil {
		return 0, false, storageErr("remove participant", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, storageErr("read rows affected", err)
	}
	if affected == 0 {
		return 0, false, ErrParticipantNotFound
	}

	var remaining int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM match_participants WHERE request_id = ? AND is_creator = 0
	`, requestID).Scan(&remaining)
	if err != nil {
		return 0, false, storageErr("count remaining joiners", err)
	}

	reopened := false
	if remaining == 0 {
		// Bounce back so the request is open for new joiners again.
		if err := s.transitionStatusLocked(ctx, tx, requestID, []Status{StatusPending}, StatusOpen); err != nil {
			return 0, false, err
		}
		reopened = true
	}

	if err := tx.Commit(); err != nil {
		return 0, false, storageErr("commit remove", err)
	}

	log.Info("Removed participant", "requestID", requestID, "participantID", participantID, "remaining", remaining, "reopened", reopened)
	return remaining, reopened, nil
}

func (s *store) ExpireStale(ctx context.Context, now time.Time, horizon time.Duration) ([]ExpiredRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-horizon)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin expire transaction", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM match_requests
		WHERE status IN (?, ?)
		  AND ((expires_at IS NOT NULL AND expires_at <= ?) OR created_at <= ?)
	`, string(StatusOpen), string(StatusPending), now.Unix(), cutoff.Unix())
	if err != nil {
		return nil, storageErr("query stale requests", err)
	}
	var stale []MatchRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			rows.Close()
			return nil, storageErr("scan stale request", err)
		}
		stale = append(stale, *req)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate stale requests", err)
	}

	var expired []ExpiredRequest
	for _, req := range stale {
		participants, err := listParticipantsTx(ctx, tx, req.ID)
		if err != nil {
			return nil, err
		}
		if err := s.transitionStatusLocked(ctx, tx, req.ID, []Status{StatusOpen, StatusPending}, StatusExpired); err != nil {
			return nil, err
		}
		req.Status = StatusExpired
		expired = append(expired, ExpiredRequest{Request: req, Participants: participants})
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("commit expire", err)
	}

	if len(expired) > 0 {
		log.Info("Expired stale match requests", "count", len(expired))
	}
	return expired, nil
}

func (s *store) HasJoined(ctx context.Context, requestID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM match_participants WHERE request_id = ? AND user_id = ?)
	`, requestID, userID).Scan(&exists)
	if err != nil {
		return false, storageErr("check joined", err)
	}
	return exists, nil
}

func (s *store) AddJoiner(ctx context.Context, p *Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin join transaction", err)
	}
	defer tx.Rollback()

	// Re-read the status inside the transaction. The engine already checked
	// it, but the request may have settled between that read and this write.
	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM match_requests WHERE id = ?`, p.RequestID).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrRequestNotFound
		}
		return storageErr("read request status for join", err)
	}
	if Status(status) != StatusOpen && Status(status) != StatusPending {
		return ErrRequestNotOpen
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO match_participants (id, request_id, user_id, is_creator, joined_at)
		VALUES (?, ?, ?, 0, ?)
	`, p.ID, p.RequestID, p.UserID, p.JoinedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyJoined
		}
		return storageErr("insert joiner", err)
	}

	// The first joiner flips the request to PENDING; later joiners pile onto
	// an already pending request.
	if Status(status) == StatusOpen {
		if err := s.transitionStatusLocked(ctx, tx, p.RequestID, []Status{StatusOpen}, StatusPending); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit join", err)
	}

	log.Info("Added joiner", "requestID", p.RequestID, "userID", p.UserID)
	return nil
}

func (s *store) ListParticipants(ctx context.Context, requestID string) ([]Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return listParticipantsTx(ctx, s.db, requestID)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listParticipantsTx(ctx context.Context, q queryer, requestID string) ([]Participant, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, request_id, user_id, is_creator, joined_at
		FROM match_participants
		WHERE request_id = ?
		ORDER BY joined_at ASC, id ASC
	`, requestID)
	if err != nil {
		return nil, storageErr("query participants", err)
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, storageErr("scan participant row", err)
		}
		participants = append(participants, *p)
	}
	return participants, rows.Err()
}

func (s *store) GetParticipant(ctx context.Context, requestID, participantID string) (*Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := scanParticipant(s.db.QueryRowContext(ctx, `
		SELECT id, request_id, user_id, is_creator, joined_at
		FROM match_participants WHERE id = ? AND request_id = ?
	`, participantID, requestID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrParticipantNotFound
		}
		return nil, storageErr("get participant", err)
	}
	return p, nil
}

func (s *store) CountJoiners(ctx context.Context, requestID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM match_participants WHERE request_id = ? AND is_creator = 0
	`, requestID).Scan(&count)
	if err != nil {
		return 0, storageErr("count joiners", err)
	}
	return count, nil
}

func (s *store) HasConflict(ctx context.Context, userID, date, slotID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1
			FROM match_participants p
			JOIN match_requests r ON r.id = p.request_id
			JOIN bookings b ON b.id = r.booking_id
			WHERE p.user_id = ?
			  AND r.status IN (?, ?)
			  AND b.play_date = ?
			  AND b.slot_id = ?
		)
	`, userID, string(StatusPending), string(StatusMatched), date, slotID).Scan(&exists)
	if err != nil {
		return false, storageErr("check time conflict", err)
	}
	return exists, nil
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface{ Scan(...any) error }

func scanRequest(sc scanner) (*MatchRequest, error) {
	var req MatchRequest
	var status string
	var createdAt, updatedAt int64
	var expiresAt sql.NullInt64

	err := sc.Scan(&req.ID, &req.BookingID, &req.CreatorID, &status, &req.Description, &createdAt, &updatedAt, &expiresAt)
	if err != nil {
		return nil, err
	}
	req.Status = Status(status)
	req.CreatedAt = time.Unix(createdAt, 0)
	req.UpdatedAt = time.Unix(updatedAt, 0)
	if expiresAt.Valid {
		t := time.Unix(expiresAt.Int64, 0)
		req.ExpiresAt = &t
	}
	return &req, nil
}

func scanParticipant(sc scanner) (*Participant, error) {
	var p Participant
	var isCreator int
	var joinedAt int64

	err := sc.Scan(&p.ID, &p.RequestID, &p.UserID, &isCreator, &joinedAt)
	if err != nil {
		return nil, err
	}
	p.IsCreator = isCreator == 1
	p.JoinedAt = time.Unix(joinedAt, 0)
	return &p, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %v", ErrStorageUnavailable, op, err)
}
