package auth

import "fmt"

// LoginErrorKind classifies terminal login failures.
type LoginErrorKind string

const (
	// ElementNotFound means a required control never appeared through any
	// strategy in the list.
	ElementNotFound LoginErrorKind = "element_not_found"

	// ManualVerificationTimeout means the challenge escalation window
	// elapsed without the home signal appearing.
	ManualVerificationTimeout LoginErrorKind = "manual_verification_timeout"

	// UnknownFailure covers everything else.
	UnknownFailure LoginErrorKind = "unknown_failure"
)

// LoginError is a terminal login failure. It carries the last-known URL and
// the path of a captured page snapshot so an operator can reconstruct what
// the flow was looking at; retry is the caller's responsibility.
type LoginError struct {
	Kind       LoginErrorKind
	URL        string
	Screenshot string
	Err        error
}

func (e *LoginError) Error() string {
	msg := fmt.Sprintf("login failed (%s) at %s", e.Kind, e.URL)
	if e.Screenshot != "" {
		msg += fmt.Sprintf(" [snapshot: %s]", e.Screenshot)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoginError) Unwrap() error { return e.Err }
