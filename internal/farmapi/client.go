package farmapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/alexjbarnes/farmdesk/internal/errors"
	"github.com/alexjbarnes/farmdesk/internal/models"
)

const (
	// DefaultBaseURL is the API root used when none is configured.
	DefaultBaseURL = "http://localhost:8000/api"

	// maxRedirects is the maximum number of HTTP redirects to follow
	// before giving up, matching the default net/http limit.
	maxRedirects = 10

	// maxAPIResponseBytes caps response body reads to prevent a
	// misbehaving server from consuming unbounded memory.
	maxAPIResponseBytes = 8 * 1024 * 1024
)

// Endpoints used by the login flow.
const (
	tokenEndpoint     = "/token/"
	profileEndpoint   = "/users/me/"
	otpEndpoint       = "/otp/"
	verifyOTPEndpoint = "/verify-otp/"
)

// Client talks to the farm management REST API. The login endpoints are
// methods on Client; everything that needs the stored credentials goes
// through a Gateway.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// sameHostRedirectPolicy follows redirects only when the target host
// matches the original request host, so bearer tokens never leave the
// API host.
func sameHostRedirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errors.New("stopped after 10 redirects")
	}

	if len(via) > 0 {
		origHost := via[0].URL.Host
		if req.URL.Host != origHost {
			return fmt.Errorf("redirect to different host blocked: %s -> %s", origHost, req.URL.Host)
		}
	}

	return nil
}

// NewClient creates an API client rooted at baseURL. If httpClient is
// nil, a client with the same-host redirect policy is created. No
// client-side timeout is set; bound calls with the context instead.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			CheckRedirect: sameHostRedirectPolicy,
		}
	}

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r *response) decode(endpoint string, result interface{}) error {
	if err := json.Unmarshal(r.body, result); err != nil {
		return fmt.Errorf("decoding response from %s: %w", endpoint, err)
	}

	return nil
}

// do sends a request and reads the whole response. A non-empty token is
// sent as a bearer credential and always wins over header.
func (c *Client) do(ctx context.Context, method, endpoint, token string, body interface{}, header http.Header) (*response, error) {
	var reader io.Reader

	if body != nil {
		var payload []byte

		switch b := body.(type) {
		case json.RawMessage:
			payload = b
		case []byte:
			payload = b
		default:
			var err error

			payload, err = json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("marshalling request body: %w", err)
			}
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	for key, values := range header {
		if http.CanonicalHeaderKey(key) == "Authorization" {
			continue
		}

		req.Header.Del(key)

		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", endpoint, err)
	}

	return &response{status: resp.StatusCode, body: respBody}, nil
}

// ObtainToken exchanges a username and password for a short-lived
// pre-OTP access token. A 401 is reported as ErrInvalidCredentials, any
// other failure as ErrAuthenticationFailed.
func (c *Client) ObtainToken(ctx context.Context, username, password string) (*TokenResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, tokenEndpoint, "", TokenRequest{
		Username: username,
		Password: password,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrAuthenticationFailed, err)
	}

	if resp.status == http.StatusUnauthorized {
		return nil, newAPIError(apperrors.ErrInvalidCredentials, tokenEndpoint, resp.status, resp.body)
	}

	if !resp.ok() {
		return nil, newAPIError(apperrors.ErrAuthenticationFailed, tokenEndpoint, resp.status, resp.body)
	}

	var tr TokenResponse
	if err := resp.decode(tokenEndpoint, &tr); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrAuthenticationFailed, err)
	}

	if tr.Access == "" {
		return nil, fmt.Errorf("%w: response from %s has no access token", apperrors.ErrAuthenticationFailed, tokenEndpoint)
	}

	return &tr, nil
}

// FetchProfile returns the profile of the user owning token.
func (c *Client) FetchProfile(ctx context.Context, token string) (*models.Profile, error) {
	resp, err := c.do(ctx, http.MethodGet, profileEndpoint, token, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrProfileFetch, err)
	}

	if !resp.ok() {
		return nil, newAPIError(apperrors.ErrProfileFetch, profileEndpoint, resp.status, resp.body)
	}

	var p models.Profile
	if err := resp.decode(profileEndpoint, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrProfileFetch, err)
	}

	return &p, nil
}

// RequestOTP asks the backend to send a one-time passcode to email.
func (c *Client) RequestOTP(ctx context.Context, email string) error {
	resp, err := c.do(ctx, http.MethodPost, otpEndpoint, "", OTPRequest{Email: email}, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrOTPRequest, err)
	}

	if !resp.ok() {
		return newAPIError(apperrors.ErrOTPRequest, otpEndpoint, resp.status, resp.body)
	}

	return nil
}

// VerifyOTP exchanges a passcode for the long-lived credential pair.
// Failures carry an OTPFailureReason derived from the server detail.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (models.Credentials, error) {
	resp, err := c.do(ctx, http.MethodPost, verifyOTPEndpoint, "", VerifyOTPRequest{
		Email: email,
		OTP:   code,
	}, nil)
	if err != nil {
		return models.Credentials{}, fmt.Errorf("%w: %w", apperrors.ErrOTPVerificationFailed, err)
	}

	if !resp.ok() {
		apiErr := newAPIError(apperrors.ErrOTPVerificationFailed, verifyOTPEndpoint, resp.status, resp.body)
		apiErr.Reason = classifyOTPFailure(apiErr.Detail)

		return models.Credentials{}, apiErr
	}

	var vr VerifyOTPResponse
	if err := resp.decode(verifyOTPEndpoint, &vr); err != nil {
		return models.Credentials{}, fmt.Errorf("%w: %w", apperrors.ErrOTPVerificationFailed, err)
	}

	creds := models.Credentials{Access: vr.Access, Refresh: vr.Refresh}
	if !creds.Complete() {
		return models.Credentials{}, fmt.Errorf("%w: response from %s has an incomplete token pair", apperrors.ErrOTPVerificationFailed, verifyOTPEndpoint)
	}

	return creds, nil
}
