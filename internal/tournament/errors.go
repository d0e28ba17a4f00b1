package tournament

import "errors"

// ErrNotAuthenticated is returned by calls that require a session
// before Authenticate has succeeded.
var ErrNotAuthenticated = errors.New("not authenticated: call Authenticate first")

// AuthenticationError is returned when the service rejects the
// operator credentials. Message carries the server-supplied reason.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Message
}

// CabRegistrationError is returned when the service rejects a cabinet
// registration. Message carries the server-supplied reason.
type CabRegistrationError struct {
	Message string
}

func (e *CabRegistrationError) Error() string {
	return "cab registration failed: " + e.Message
}

// ScoreSubmissionError is returned when the service rejects a score
// upload. Message carries the server-supplied reason.
type ScoreSubmissionError struct {
	Message string
}

func (e *ScoreSubmissionError) Error() string {
	return "score submission failed: " + e.Message
}
