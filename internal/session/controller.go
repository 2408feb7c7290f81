// Package session drives the two-step login (password, then emailed
// one-time passcode) and owns the in-memory state of the signed-in user.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	apperrors "github.com/alexjbarnes/farmdesk/internal/errors"
	"github.com/alexjbarnes/farmdesk/internal/models"
)

// PendingAuth is the half-finished login between a successful password
// step and OTP verification.
type PendingAuth struct {
	Username string
	Email    string

	preOTPToken string
	profile     *models.Profile
}

// Controller is the login state machine. It is safe for concurrent use,
// but only one login step runs at a time; an overlapping step fails with
// ErrLoginInProgress.
type Controller struct {
	api    AuthAPI
	store  CredentialStore
	logger *slog.Logger

	// busy is held for the duration of a networked step.
	busy sync.Mutex

	mu      sync.Mutex
	state   State
	pending *PendingAuth
	profile *models.Profile
}

// NewController creates a controller in the LoggedOut state.
func NewController(api AuthAPI, store CredentialStore, logger *slog.Logger) *Controller {
	return &Controller{
		api:    api,
		store:  store,
		logger: logger,
		state:  LoggedOut,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Profile returns a copy of the signed-in user's profile, or nil.
func (c *Controller) Profile() *models.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.profile == nil {
		return nil
	}

	p := *c.profile

	return &p
}

// Pending returns the pending login, if the controller is waiting for
// a passcode.
func (c *Controller) Pending() (PendingAuth, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return PendingAuth{}, false
	}

	return PendingAuth{Username: c.pending.Username, Email: c.pending.Email}, true
}

// transition applies e under c.mu.
func (c *Controller) transition(e event) error {
	to, err := next(c.state, e)
	if err != nil {
		return err
	}

	if to != c.state {
		c.logger.Debug("login state changed",
			slog.String("from", c.state.String()),
			slog.String("to", to.String()),
			slog.String("event", e.String()),
		)
	}

	c.state = to

	return nil
}

func (c *Controller) fire(e event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.transition(e)
}

// SubmitCredentials runs the password step: exchange credentials for a
// pre-OTP token, look up the account's email, and have a passcode sent
// there. The controller moves to AwaitingOTP only when all of that
// succeeds; any failure leaves it in AwaitingPassword with nothing
// pending.
func (c *Controller) SubmitCredentials(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	switch {
	case username == "":
		return fmt.Errorf("%w: username", apperrors.ErrValidation)
	case password == "":
		return fmt.Errorf("%w: password", apperrors.ErrValidation)
	}

	if !c.busy.TryLock() {
		return apperrors.ErrLoginInProgress
	}
	defer c.busy.Unlock()

	if err := c.fire(evBegin); err != nil {
		return err
	}

	pending, err := c.sendCode(ctx, username, password)
	if err != nil {
		c.logger.Info("password step failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		_ = c.fire(evStepFailed)

		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.transition(evCodeSent); err != nil {
		return err
	}

	c.pending = pending

	c.logger.Info("passcode sent", slog.String("username", username))

	return nil
}

// sendCode performs the four password-step calls.
func (c *Controller) sendCode(ctx context.Context, username, password string) (*PendingAuth, error) {
	token, err := c.api.ObtainToken(ctx, username, password)
	if err != nil {
		return nil, err
	}

	profile, err := c.api.FetchProfile(ctx, token.Access)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(profile.Email)
	if email == "" {
		return nil, apperrors.ErrMissingNotificationAddress
	}

	if err := c.api.RequestOTP(ctx, email); err != nil {
		return nil, err
	}

	return &PendingAuth{
		Username:    username,
		Email:       email,
		preOTPToken: token.Access,
		profile:     profile,
	}, nil
}

// CancelOTP abandons the pending login and returns to the password step.
// The server is not told; the emailed code simply goes unused.
func (c *Controller) CancelOTP() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.transition(evCancel); err != nil {
		return err
	}

	c.pending = nil

	return nil
}

// VerifyOTP exchanges code for the credential pair and stores it. A
// rejected code keeps the login pending so the user can try again.
func (c *Controller) VerifyOTP(ctx context.Context, code string) error {
	if !c.busy.TryLock() {
		return apperrors.ErrLoginInProgress
	}
	defer c.busy.Unlock()

	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()

	if pending == nil {
		return apperrors.ErrSessionExpired
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: otp", apperrors.ErrValidation)
	}

	creds, err := c.api.VerifyOTP(ctx, pending.Email, code)
	if err != nil {
		c.logger.Info("passcode rejected",
			slog.String("username", pending.Username),
			slog.String("error", err.Error()),
		)
		_ = c.fire(evStepFailed)

		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Cancelled or logged out while the request was in flight.
	if c.pending != pending {
		return apperrors.ErrSessionExpired
	}

	if err := c.store.SaveCredentials(creds); err != nil {
		c.pending = nil
		_ = c.transition(evCancel)

		return fmt.Errorf("saving credentials: %w", err)
	}

	if err := c.transition(evVerified); err != nil {
		return err
	}

	c.profile = pending.profile
	c.pending = nil

	c.logger.Info("logged in", slog.String("username", pending.Username))

	return nil
}

// Logout forgets the credential pair and everything held in memory.
// It always succeeds; a store failure is only logged.
func (c *Controller) Logout() {
	if err := c.store.ClearCredentials(); err != nil {
		c.logger.Warn("failed to clear credentials", slog.String("error", err.Error()))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset(evLogout)
}

// SessionExpired is called by the gateway after a 401. The gateway has
// already cleared the store.
func (c *Controller) SessionExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset(evExpired)
}

func (c *Controller) reset(e event) {
	_ = c.transition(e)
	c.pending = nil
	c.profile = nil
}

// Resume validates stored credentials by fetching the profile. On
// success the controller is LoggedIn. Any failure, 401 or otherwise,
// deletes the stored pair; there is no refresh exchange.
//
// Concurrent callers wait for a running step instead of failing; a
// caller that finds the session already resumed returns nil.
func (c *Controller) Resume(ctx context.Context) error {
	c.busy.Lock()
	defer c.busy.Unlock()

	switch s := c.State(); s {
	case LoggedOut:
	case LoggedIn:
		return nil
	default:
		_, err := next(s, evResumed)
		return err
	}

	creds, err := c.store.Credentials()
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if !creds.Complete() {
		return apperrors.ErrNotAuthenticated
	}

	profile, err := c.api.FetchProfile(ctx, creds.Access)
	if err != nil {
		c.logger.Info("stored session rejected, clearing credentials", slog.String("error", err.Error()))

		if clearErr := c.store.ClearCredentials(); clearErr != nil {
			c.logger.Warn("failed to clear credentials", slog.String("error", clearErr.Error()))
		}

		return sessionExpired(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.transition(evResumed); err != nil {
		return err
	}

	c.profile = profile

	return nil
}

// sessionExpired wraps a failed validation so it matches both
// ErrSessionExpired and the underlying error.
func sessionExpired(err error) error {
	if errors.Is(err, apperrors.ErrSessionExpired) {
		return err
	}

	return fmt.Errorf("%w: %w", apperrors.ErrSessionExpired, err)
}
