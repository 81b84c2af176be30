package matching

import "errors"

// Guard failures are reported as one of these sentinel kinds so callers can
// surface the specific reason instead of a generic bad request. Storage and
// transport failures are wrapped as ErrStorageUnavailable.
var (
	ErrRequestNotFound        = errors.New("match request not found")
	ErrDuplicateActiveRequest = errors.New("an active match request already exists for this booking")
	ErrRequestNotOpen         = errors.New("match request is not open for joining")
	ErrAlreadyJoined          = errors.New("user has already joined this match request")
	ErrTimeConflict           = errors.New("user already holds an active match at this date and slot")
	ErrInvalidSlot            = errors.New("booking slot could not be resolved")
	ErrNotOwner               = errors.New("only the request creator may perform this action")
	ErrParticipantNotFound    = errors.New("participant not found on this match request")
	ErrInvalidTransition      = errors.New("invalid match request transition")
	ErrStorageUnavailable     = errors.New("storage unavailable")
)
