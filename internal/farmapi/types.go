package farmapi

// TokenRequest is the payload for POST /token/.
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned from POST /token/. Only Access is used; it
// is the short-lived pre-OTP token.
type TokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// OTPRequest is the payload for POST /otp/.
type OTPRequest struct {
	Email string `json:"email"`
}

// VerifyOTPRequest is the payload for POST /verify-otp/.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyOTPResponse is returned from POST /verify-otp/.
type VerifyOTPResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
