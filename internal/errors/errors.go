package errors

import "errors"

// Input and flow errors, raised before any network call.
var (
	ErrValidation        = errors.New("invalid input")
	ErrLoginInProgress   = errors.New("login already in progress")
	ErrInvalidTransition = errors.New("action not allowed in current login state")
	ErrNotAuthenticated  = errors.New("not authenticated, please log in")
	ErrSessionExpired    = errors.New("session expired, please log in again")
)

// Login flow errors.
var (
	ErrInvalidCredentials         = errors.New("invalid username or password")
	ErrAuthenticationFailed       = errors.New("authentication failed")
	ErrProfileFetch               = errors.New("failed to get user details")
	ErrMissingNotificationAddress = errors.New("no email address registered for this account")
	ErrOTPRequest                 = errors.New("OTP request failed")
	ErrOTPVerificationFailed      = errors.New("OTP verification failed")
)

// Server/transport errors.
var (
	ErrRequestFailed = errors.New("request failed")
)
