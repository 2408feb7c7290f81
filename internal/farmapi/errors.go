package farmapi

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// genericDetail is used when an error body is not JSON.
const genericDetail = "Request failed"

// detailPaths lists where the backend puts a human-readable error, in
// order of preference.
var detailPaths = []string{"detail", "error", "message", "non_field_errors.0"}

// APIError is a non-2xx response from the backend. Kind is one of the
// sentinels in internal/errors, so errors.Is matches on it.
type APIError struct {
	Kind     error
	Endpoint string
	Status   int
	Detail   string
	// Body holds the error body when it was valid JSON.
	Body   json.RawMessage
	Reason OTPFailureReason
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v: API %s (%d): %s", e.Kind, e.Endpoint, e.Status, e.Detail)
}

func (e *APIError) Unwrap() error { return e.Kind }

// newAPIError builds an APIError, extracting the detail best-effort.
func newAPIError(kind error, endpoint string, status int, body []byte) *APIError {
	apiErr := &APIError{
		Kind:     kind,
		Endpoint: endpoint,
		Status:   status,
	}

	if !gjson.ValidBytes(body) {
		apiErr.Detail = genericDetail
		return apiErr
	}

	apiErr.Body = json.RawMessage(body)

	parsed := gjson.ParseBytes(body)
	for _, path := range detailPaths {
		if v := parsed.Get(path); v.Exists() && v.String() != "" {
			apiErr.Detail = sanitizeDetail(v.String())
			return apiErr
		}
	}

	apiErr.Detail = fmt.Sprintf("HTTP %d", status)

	return apiErr
}

// OTPFailureReason classifies a failed OTP verification.
type OTPFailureReason int

const (
	OTPFailureUnknown OTPFailureReason = iota
	OTPFailureInvalidCode
	OTPFailureExpired
	OTPFailureNotFound
)

func (r OTPFailureReason) String() string {
	switch r {
	case OTPFailureInvalidCode:
		return "invalid code"
	case OTPFailureExpired:
		return "expired"
	case OTPFailureNotFound:
		return "not found"
	case OTPFailureUnknown:
		return "unknown"
	}

	return fmt.Sprintf("OTPFailureReason(%d)", int(r))
}

// classifyOTPFailure maps the server's detail text onto a reason. The
// backend only signals these through the message.
func classifyOTPFailure(detail string) OTPFailureReason {
	lower := strings.ToLower(detail)

	switch {
	case strings.Contains(lower, "no otp found") || strings.Contains(lower, "not found"):
		return OTPFailureNotFound
	case strings.Contains(lower, "expired"):
		return OTPFailureExpired
	case strings.Contains(lower, "invalid"):
		return OTPFailureInvalidCode
	}

	return OTPFailureUnknown
}

// sanitizeDetail truncates a server message and replaces control
// characters so it is safe to print or log.
func sanitizeDetail(s string) string {
	const maxLen = 256
	if len(s) > maxLen {
		s = s[:maxLen]
	}

	return strings.Map(func(r rune) rune {
		if r == utf8.RuneError || (r < 0x20 && r != '\t') || r == 0x7f {
			return '?'
		}

		return r
	}, s)
}
