package assistant

import "fmt"

// RejectCode classifies why a candidate was turned down. The orchestrator
// picks its clarifying phrasing off this code, never off the raw reason text.
type RejectCode string

const (
	RejectNotFound     RejectCode = "not_found"
	RejectAmbiguous    RejectCode = "ambiguous"
	RejectInvalid      RejectCode = "invalid"
	RejectPastDate     RejectCode = "past_date"
	RejectPrerequisite RejectCode = "prerequisite_missing"
	RejectUnavailable  RejectCode = "unavailable"
	RejectBackend      RejectCode = "backend_error"
)

// FailureKind classifies a failed submission to the scheduling backend.
type FailureKind string

const (
	// FailureUnavailable means every attempted time combination was taken.
	FailureUnavailable FailureKind = "unavailable"
	// FailureBackend covers transport errors, timeouts and malformed
	// responses. It carries no information about real availability.
	FailureBackend FailureKind = "backend_error"
)

// SessionError signals a broken collaborator contract around session
// persistence. It propagates past the assistant as a hard failure.
type SessionError struct {
	Code    string
	Message string
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewSessionError(msg string) error {
	return &SessionError{
		Code:    "sessionError",
		Message: msg,
	}
}
