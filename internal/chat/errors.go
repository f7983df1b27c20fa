package chat

import "errors"

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrNotAMember             = errors.New("not a member of room")
	ErrNotJoined              = errors.New("room not joined")
	ErrValidation             = errors.New("validation error")
	ErrStoreUnavailable       = errors.New("message store unavailable")
	ErrDisconnected           = errors.New("session disconnected")
)

// Validation failures. Each one also matches ErrValidation.
var (
	ErrEmptyBody    = validationError("message body is empty")
	ErrBodyTooLong  = validationError("message body exceeds maximum length")
	ErrInvalidRoom  = validationError("invalid room id")
	ErrTokenTooLong = validationError("client token exceeds maximum length")
)

type validation struct{ msg string }

func validationError(msg string) error { return &validation{msg: msg} }

func (v *validation) Error() string { return v.msg }

func (v *validation) Is(target error) bool { return target == ErrValidation }

// Wire codes reported in error frames.
const (
	CodeAuthenticationRequired = "authentication_required"
	CodeNotAMember             = "not_a_member"
	CodeNotJoined              = "not_joined"
	CodeValidation             = "validation_error"
	CodeStoreUnavailable       = "store_unavailable"
	CodeBadRequest             = "bad_request"
)

// ErrorCode maps a gateway error onto its wire code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		return CodeAuthenticationRequired
	case errors.Is(err, ErrNotAMember):
		return CodeNotAMember
	case errors.Is(err, ErrNotJoined):
		return CodeNotJoined
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrStoreUnavailable):
		return CodeStoreUnavailable
	default:
		return CodeBadRequest
	}
}
