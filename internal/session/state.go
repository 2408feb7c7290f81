package session

import (
	"fmt"

	apperrors "github.com/alexjbarnes/farmdesk/internal/errors"
)

// State is where the controller is in the login flow.
type State int

const (
	LoggedOut State = iota
	AwaitingPassword
	AwaitingOTP
	LoggedIn
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged out"
	case AwaitingPassword:
		return "awaiting password"
	case AwaitingOTP:
		return "awaiting OTP"
	case LoggedIn:
		return "logged in"
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// event drives a transition between states.
type event int

const (
	evBegin event = iota
	evCodeSent
	evStepFailed
	evCancel
	evVerified
	evResumed
	evLogout
	evExpired
)

func (e event) String() string {
	switch e {
	case evBegin:
		return "begin"
	case evCodeSent:
		return "code sent"
	case evStepFailed:
		return "step failed"
	case evCancel:
		return "cancel"
	case evVerified:
		return "verified"
	case evResumed:
		return "resumed"
	case evLogout:
		return "logout"
	case evExpired:
		return "expired"
	}

	return fmt.Sprintf("event(%d)", int(e))
}

// next returns the state reached from s on e. Logout and expiry are
// accepted from every state.
func next(s State, e event) (State, error) {
	switch e {
	case evLogout, evExpired:
		return LoggedOut, nil
	}

	switch s {
	case LoggedOut:
		switch e {
		case evBegin:
			return AwaitingPassword, nil
		case evResumed:
			return LoggedIn, nil
		}
	case AwaitingPassword:
		switch e {
		case evBegin, evStepFailed, evCancel:
			return AwaitingPassword, nil
		case evCodeSent:
			return AwaitingOTP, nil
		}
	case AwaitingOTP:
		switch e {
		case evStepFailed:
			return AwaitingOTP, nil
		case evCancel:
			return AwaitingPassword, nil
		case evVerified:
			return LoggedIn, nil
		}
	case LoggedIn:
	}

	return s, fmt.Errorf("%w: %s while %s", apperrors.ErrInvalidTransition, e, s)
}
