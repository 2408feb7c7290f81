package session

import (
	"errors"
	"strings"

	apperrors "github.com/alexjbarnes/farmdesk/internal/errors"
	"github.com/alexjbarnes/farmdesk/internal/farmapi"
)

// UserMessage turns an error from the login flow or the gateway into a
// message for the operator. Server detail is used where the backend
// sent one.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *farmapi.APIError
	hasAPI := errors.As(err, &apiErr)

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		msg := err.Error()

		switch {
		case strings.HasSuffix(msg, ": otp"):
			return "Please enter the OTP"
		case strings.HasSuffix(msg, ": username"), strings.HasSuffix(msg, ": password"):
			return "Please enter both username and password"
		}

		return msg
	case errors.Is(err, apperrors.ErrLoginInProgress):
		return "A login attempt is already in progress."
	case errors.Is(err, apperrors.ErrInvalidTransition):
		return "That action is not available right now."
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return "Invalid username or password. Please try again."
	case errors.Is(err, apperrors.ErrMissingNotificationAddress):
		return "No email address registered for this account. Please contact your administrator."
	case errors.Is(err, apperrors.ErrOTPRequest):
		return "Failed to send OTP. Please try again later."
	case errors.Is(err, apperrors.ErrOTPVerificationFailed):
		if hasAPI {
			switch apiErr.Reason {
			case farmapi.OTPFailureInvalidCode:
				return "Invalid OTP. Please check and try again."
			case farmapi.OTPFailureExpired:
				return "Your OTP has expired. Please request a new one."
			case farmapi.OTPFailureNotFound:
				return "No valid OTP found. Please request a new one."
			case farmapi.OTPFailureUnknown:
			}

			return "OTP verification failed: " + apiErr.Detail
		}

		return "OTP verification failed. Please try again."
	case errors.Is(err, apperrors.ErrSessionExpired):
		return "Session expired. Please try logging in again."
	case errors.Is(err, apperrors.ErrNotAuthenticated):
		return "You are not logged in. Run 'farmdesk login' first."
	}

	if hasAPI {
		switch {
		case errors.Is(err, apperrors.ErrAuthenticationFailed):
			return "Authentication failed: " + apiErr.Detail
		case errors.Is(err, apperrors.ErrProfileFetch):
			return "Failed to get user details: " + apiErr.Detail
		}

		return apiErr.Detail
	}

	switch {
	case errors.Is(err, apperrors.ErrAuthenticationFailed):
		return "Authentication failed. Please try again."
	case errors.Is(err, apperrors.ErrProfileFetch):
		return "Failed to get user details. Please try again."
	case errors.Is(err, apperrors.ErrRequestFailed):
		return "Request failed. Check your connection and try again."
	}

	return err.Error()
}
