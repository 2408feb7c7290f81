package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/alexjbarnes/farmdesk/internal/errors"
	"github.com/alexjbarnes/farmdesk/internal/session"
)

const (
	maxPasswordAttempts = 3
	maxOTPAttempts      = 5
)

// login walks the password step and the OTP step. At the OTP prompt,
// "back" returns to the password step and "resend" requests a new code.
func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "username (defaults to FARMDESK_USERNAME or the last one used)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.ctrl.Resume(ctx); err == nil {
		a.logger.Debug("replacing existing session")
		a.ctrl.Logout()
	}

	def := firstNonEmpty(*username, a.cfg.Username, a.state.LastUsername())

	for attempt := 1; ; attempt++ {
		user, password, err := a.askCredentials(def)
		if err != nil {
			return err
		}

		def = user

		if err := a.ctrl.SubmitCredentials(ctx, user, password); err != nil {
			if retryPassword(err) && attempt < maxPasswordAttempts {
				fmt.Fprintln(a.prompt.out, session.UserMessage(err))
				continue
			}

			return err
		}

		done, err := a.otpStep(ctx, user, password)
		if err != nil {
			return err
		}

		if !done {
			continue
		}

		if err := a.state.SetLastUsername(user); err != nil {
			a.logger.Warn("failed to remember username", slog.String("error", err.Error()))
		}

		p := a.ctrl.Profile()
		fmt.Fprintf(a.out, "Logged in as %s.\n", p.DisplayName())

		return nil
	}
}

func (a *app) askCredentials(def string) (string, string, error) {
	user, err := a.prompt.ask("Username", def)
	if err != nil {
		return "", "", err
	}

	password, err := a.prompt.secret("Password")
	if err != nil {
		return "", "", err
	}

	return user, password, nil
}

// otpStep prompts for the emailed code until it verifies. It returns
// false when the user went back to the password step.
func (a *app) otpStep(ctx context.Context, user, password string) (bool, error) {
	pending, _ := a.ctrl.Pending()
	fmt.Fprintf(a.prompt.out, "A one-time passcode was sent to %s.\n", pending.Email)

	for attempt := 1; ; attempt++ {
		code, err := a.prompt.ask("OTP (or 'back', 'resend')", "")
		if err != nil {
			return false, err
		}

		switch strings.ToLower(code) {
		case "back":
			return false, a.ctrl.CancelOTP()
		case "resend":
			if err := a.ctrl.CancelOTP(); err != nil {
				return false, err
			}

			if err := a.ctrl.SubmitCredentials(ctx, user, password); err != nil {
				return false, err
			}

			fmt.Fprintln(a.prompt.out, "A new passcode was sent.")

			continue
		}

		err = a.ctrl.VerifyOTP(ctx, code)
		if err == nil {
			return true, nil
		}

		if errors.Is(err, apperrors.ErrSessionExpired) || attempt >= maxOTPAttempts {
			return false, err
		}

		fmt.Fprintln(a.prompt.out, session.UserMessage(err))
	}
}

// retryPassword reports whether the password step is worth asking again.
func retryPassword(err error) bool {
	return errors.Is(err, apperrors.ErrValidation) || errors.Is(err, apperrors.ErrInvalidCredentials)
}

func (a *app) logout() error {
	a.ctrl.Logout()
	fmt.Fprintln(a.out, "Logged out.")

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}

	return ""
}
