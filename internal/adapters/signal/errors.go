package signal

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/DocRelay/internal/app"
	"github.com/dkeye/DocRelay/internal/app/orch"
	"github.com/dkeye/DocRelay/internal/domain"
)

const (
	codeBadPayload    = "bad_payload"
	codeUnknownEvent  = "unknown_event"
	codeAlreadyJoined = "already_joined"
	codeNotJoined     = "not_joined"
	codeRoomMismatch  = "room_mismatch"
	codeInvalidRoom   = "invalid_room"
	codeInvalidUser   = "invalid_user"
	codeRateLimited   = "rate_limited"
	codeInternal      = "internal"
)

func errorCode(err error) string {
	switch {
	case errors.Is(err, app.ErrAlreadyJoined):
		return codeAlreadyJoined
	case errors.Is(err, orch.ErrNotJoined), errors.Is(err, app.ErrUnknownSession):
		return codeNotJoined
	case errors.Is(err, orch.ErrRoomMismatch):
		return codeRoomMismatch
	case errors.Is(err, domain.ErrRoomNameEmpty), errors.Is(err, domain.ErrRoomNameTooLong):
		return codeInvalidRoom
	case errors.Is(err, domain.ErrDisplayNameTooLong):
		return codeInvalidUser
	default:
		return codeInternal
	}
}

// joinDecodeCode names the field a join payload got the wrong type for.
// Unlike the content events, join-room needs room and user as strings.
func joinDecodeCode(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		switch typeErr.Field {
		case "room":
			return codeInvalidRoom
		case "user":
			return codeInvalidUser
		}
	}
	return codeBadPayload
}
