package session

//go:generate mockgen -source=store.go -destination=mocks_test.go -package=session

import (
	"context"

	"github.com/alexjbarnes/farmdesk/internal/farmapi"
	"github.com/alexjbarnes/farmdesk/internal/models"
)

// AuthAPI is the subset of farmapi.Client the login flow needs.
type AuthAPI interface {
	ObtainToken(ctx context.Context, username, password string) (*farmapi.TokenResponse, error)
	FetchProfile(ctx context.Context, token string) (*models.Profile, error)
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (models.Credentials, error)
}

// CredentialStore persists the credential pair. Implemented by
// state.State.
type CredentialStore interface {
	Credentials() (models.Credentials, error)
	SaveCredentials(creds models.Credentials) error
	ClearCredentials() error
}
