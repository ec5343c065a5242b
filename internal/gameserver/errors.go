package gameserver

import "fmt"

// Error kinds carried by user-visible failures, so clients can render
// distinct UI without string-matching server logs.
const (
	KindNotFound          Kind = "not_found"
	KindAlreadyInState    Kind = "already_in_state"
	KindUnauthorized      Kind = "unauthorized"
	KindRoomsNotConnected Kind = "rooms_not_connected"
	KindTargetOffline     Kind = "target_offline"
	KindUnsupported       Kind = "unsupported"
	KindInternal          Kind = "internal"
)

// Kind classifies an expected, user-visible failure.
type Kind string

// Rejection is a typed expected failure: an error kind plus an optional
// display message. Expected failures travel as values; only store failures
// propagate as plain errors.
type Rejection struct {
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	if r.Message == "" {
		return string(r.Kind)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

func reject(kind Kind, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
