package farmapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	apperrors "github.com/alexjbarnes/farmdesk/internal/errors"
)

// Gateway is the only path for authenticated API calls. It attaches the
// stored access token, and on a 401 clears the store and tells the
// observer the session is over. Calls are never retried, cached or
// coalesced.
type Gateway struct {
	client   *Client
	store    TokenStore
	observer SessionObserver
	logger   *slog.Logger
}

// NewGateway creates a gateway. observer may be nil.
func NewGateway(client *Client, store TokenStore, observer SessionObserver, logger *slog.Logger) *Gateway {
	return &Gateway{
		client:   client,
		store:    store,
		observer: observer,
		logger:   logger,
	}
}

func allowedMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete:
		return true
	}

	return false
}

// Call sends an authenticated request to endpoint (a path relative to
// the API root, query string allowed) and returns the response body
// verbatim. An empty 2xx body yields nil. body may be nil, raw JSON, or
// any value json.Marshal accepts. Caller headers are merged but cannot
// replace Authorization.
func (g *Gateway) Call(ctx context.Context, method, endpoint string, body interface{}, header http.Header) (json.RawMessage, error) {
	if !allowedMethod(method) {
		return nil, fmt.Errorf("%w: unsupported method %q", apperrors.ErrValidation, method)
	}

	creds, err := g.store.Credentials()
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	if !creds.Complete() {
		return nil, apperrors.ErrNotAuthenticated
	}

	resp, err := g.client.do(ctx, method, endpoint, creds.Access, body, header)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrRequestFailed, err)
	}

	if resp.status == http.StatusUnauthorized {
		g.expire(method, endpoint)
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, apperrors.ErrSessionExpired)
	}

	if !resp.ok() {
		return nil, newAPIError(apperrors.ErrRequestFailed, endpoint, resp.status, resp.body)
	}

	if len(bytes.TrimSpace(resp.body)) == 0 {
		return nil, nil
	}

	if !json.Valid(resp.body) {
		return nil, fmt.Errorf("%w: decoding response from %s: invalid JSON", apperrors.ErrRequestFailed, endpoint)
	}

	return json.RawMessage(resp.body), nil
}

// expire drops the stored credentials after a 401.
func (g *Gateway) expire(method, endpoint string) {
	g.logger.Info("session expired, clearing credentials",
		slog.String("method", method),
		slog.String("endpoint", endpoint),
	)

	if err := g.store.ClearCredentials(); err != nil {
		g.logger.Warn("failed to clear credentials", slog.String("error", err.Error()))
	}

	if g.observer != nil {
		g.observer.SessionExpired()
	}
}

// Get is Call with GET and no body.
func (g *Gateway) Get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return g.Call(ctx, http.MethodGet, endpoint, nil, nil)
}

// Post is Call with POST.
func (g *Gateway) Post(ctx context.Context, endpoint string, body interface{}) (json.RawMessage, error) {
	return g.Call(ctx, http.MethodPost, endpoint, body, nil)
}

// Patch is Call with PATCH.
func (g *Gateway) Patch(ctx context.Context, endpoint string, body interface{}) (json.RawMessage, error) {
	return g.Call(ctx, http.MethodPatch, endpoint, body, nil)
}

// Delete is Call with DELETE and no body.
func (g *Gateway) Delete(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return g.Call(ctx, http.MethodDelete, endpoint, nil, nil)
}
