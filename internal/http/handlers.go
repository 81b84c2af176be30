package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/opencourt/rally/internal/booking"
	"github.com/opencourt/rally/internal/matching"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// statusForError maps engine error kinds to HTTP statuses so callers see the
// specific failure, never a generic bad request.
func statusForError(err error) int {
	switch {
	case errors.Is(err, matching.ErrRequestNotFound),
		errors.Is(err, matching.ErrParticipantNotFound),
		errors.Is(err, booking.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, matching.ErrDuplicateActiveRequest),
		errors.Is(err, matching.ErrAlreadyJoined),
		errors.Is(err, matching.ErrTimeConflict),
		errors.Is(err, matching.ErrRequestNotOpen),
		errors.Is(err, matching.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, matching.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, matching.ErrInvalidSlot):
		return http.StatusUnprocessableEntity
	case errors.Is(err, matching.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) CreateRequestHandler() http.HandlerFunc {
	type request struct {
		BookingID   string     `json:"booking_id"`
		CreatorID   string     `json:"creator_id"`
		Description string     `json:"description"`
		ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body request
		if err := decodeBody(r, &body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if body.BookingID == "" || body.CreatorID == "" {
			http.Error(w, "booking_id and creator_id are required", http.StatusBadRequest)
			return
		}

		req, notifs, err := s.Engine.CreateRequest(r.Context(), body.BookingID, body.CreatorID, body.Description, body.ExpiresAt)
		if err != nil {
			log.Error("Failed to create match request", "error", err, "bookingID", body.BookingID)
			writeError(w, err)
			return
		}
		s.Metrics.IncRequestsCreated()
		s.Dispatcher.Dispatch(r.Context(), notifs, isDryRunFromContext(r))
		writeJSON(w, http.StatusCreated, req)
	}
}

func (s *Server) JoinHandler() http.HandlerFunc {
	type request struct {
		RequestID string `json:"request_id"`
		UserID    string `json:"user_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body request
		if err := decodeBody(r, &body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		p, notifs, err := s.Engine.Join(r.Context(), body.RequestID, body.UserID)
		if err != nil {
			log.Error("Failed to join match request", "error", err, "requestID", body.RequestID, "userID", body.UserID)
			writeError(w, err)
			return
		}
		s.Metrics.IncJoins()
		s.Dispatcher.Dispatch(r.Context(), notifs, isDryRunFromContext(r))
		writeJSON(w, http.StatusCreated, p)
	}
}

func (s *Server) AcceptHandler() http.HandlerFunc {
	type request struct {
		RequestID     string `json:"request_id"`
		ParticipantID string `json:"participant_id"`
		CreatorID     string `json:"creator_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body request
		if err := decodeBody(r, &body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		result, notifs, err := s.Engine.AcceptParticipant(r.Context(), body.RequestID, body.ParticipantID, body.CreatorID)
		if err != nil {
			log.Error("Failed to accept participant", "error", err, "requestID", body.RequestID, "participantID", body.ParticipantID)
			writeError(w, err)
			return
		}
		s.Metrics.IncMatchesMade()
		s.Dispatcher.Dispatch(r.Context(), notifs, isDryRunFromContext(r))
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) RejectHandler() http.HandlerFunc {
	type request struct {
		RequestID     string `json:"request_id"`
		ParticipantID string `json:"participant_id"`
		ActingUserID  string `json:"acting_user_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body request
		if err := decodeBody(r, &body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		notifs, err := s.Engine.RejectOrWithdraw(r.Context(), body.RequestID, body.ParticipantID, body.ActingUserID)
		if err != nil {
			log.Error("Failed to reject participant", "error", err, "requestID", body.RequestID, "participantID", body.ParticipantID)
			writeError(w, err)
			return
		}
		s.Dispatcher.Dispatch(r.Context(), notifs, isDryRunFromContext(r))
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) CancelHandler() http.HandlerFunc {
	type request struct {
		RequestID string `json:"request_id"`
		CreatorID string `json:"creator_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body request
		if err := decodeBody(r, &body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		notifs, err := s.Engine.CancelRequest(r.Context(), body.RequestID, body.CreatorID)
		if err != nil {
			log.Error("Failed to cancel match request", "error", err, "requestID", body.RequestID)
			writeError(w, err)
			return
		}
		s.Dispatcher.Dispatch(r.Context(), notifs, isDryRunFromContext(r))
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) ListRequestsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests, err := s.Engine.ListActiveRequests(r.Context())
		if err != nil {
			log.Error("Failed to list active match requests", "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, requests)
	}
}

func (s *Server) GetRequestHandler() http.HandlerFunc {
	type response struct {
		Request      *matching.MatchRequest `json:"request"`
		Participants []matching.Participant `json:"participants"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.URL.Query().Get("requestID")
		if requestID == "" {
			http.Error(w, "requestID is required", http.StatusBadRequest)
			return
		}
		req, participants, err := s.Engine.GetRequest(r.Context(), requestID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, response{Request: req, Participants: participants})
	}
}

func (s *Server) CreateBookingHandler() http.HandlerFunc {
	type request struct {
		OwnerID  string `json:"owner_id"`
		FieldID  string `json:"field_id"`
		PlayDate string `json:"play_date"`
		SlotID   string `json:"slot_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body request
		if err := decodeBody(r, &body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if body.OwnerID == "" || body.PlayDate == "" || body.SlotID == "" {
			http.Error(w, "owner_id, play_date and slot_id are required", http.StatusBadRequest)
			return
		}

		b := &booking.Booking{
			ID:        uuid.New().String(),
			OwnerID:   body.OwnerID,
			FieldID:   body.FieldID,
			PlayDate:  body.PlayDate,
			SlotID:    body.SlotID,
			CreatedAt: time.Now(),
		}
		if err := s.Bookings.CreateBooking(r.Context(), b); err != nil {
			log.Error("Failed to create booking", "error", err)
			http.Error(w, "Failed to create booking", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

func (s *Server) ListBookingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookings, err := s.Bookings.ListBookings(r.Context())
		if err != nil {
			log.Error("Failed to list bookings", "error", err)
			http.Error(w, "Failed to list bookings", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, bookings)
	}
}

// SweepHandler runs the expiry sweep. It is designed to be hit periodically
// by an external scheduler (Cloud Scheduler, cron).
func (s *Server) SweepHandler() http.HandlerFunc {
	type response struct {
		Expired int `json:"expired"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncSweepRuns()
		count, notifs, err := s.Engine.SweepExpire(r.Context(), s.now(), s.Cfg.ExpiryHorizon)
		if err != nil {
			log.Error("Expiry sweep failed", "error", err)
			writeError(w, err)
			return
		}
		s.Metrics.ObserveSweepExpired(float64(count))
		s.Dispatcher.Dispatch(r.Context(), notifs, isDryRunFromContext(r))
		log.Info("Expiry sweep finished", "expired", count)
		writeJSON(w, http.StatusOK, response{Expired: count})
	}
}

// NotifyPushHandler receives Pub/Sub push deliveries for the notify-user
// topic and hands the decoded notification to the provider.
func (s *Server) NotifyPushHandler() http.HandlerFunc {
	type pushMessage struct {
		Subscription string `json:"subscription"`
		Message      struct {
			Data string `json:"data"` // base64-encoded message payload
		} `json:"message"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error("Failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}
		log.Debug("Received notify push message", "body", string(bodyBytes))

		var msg pushMessage
		if err := json.Unmarshal(bodyBytes, &msg); err != nil {
			log.Error("Failed to unmarshal wrapper JSON", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		rawData, err := base64.StdEncoding.DecodeString(msg.Message.Data)
		if err != nil {
			log.Error("Failed to decode base64 data", "error", err)
			http.Error(w, "Invalid base64 data", http.StatusBadRequest)
			return
		}

		var n matching.Notification
		if err := s.pubsub.ProcessMessage(rawData, &n); err != nil {
			http.Error(w, "Invalid message payload", http.StatusBadRequest)
			return
		}

		// Delivery failures are acked anyway: notifications are best-effort
		// and a redelivery loop would spam users.
		if err := s.Notifier.Notify(r.Context(), n, isDryRunFromContext(r)); err != nil {
			log.Error("Failed to deliver notification", "error", err, "userID", n.UserID, "kind", n.Kind)
		}
		w.Write([]byte("OK"))
	}
}
