package farmapi

import "github.com/alexjbarnes/farmdesk/internal/models"

//go:generate mockgen -source=store.go -destination=mocks_test.go -package=farmapi

// TokenStore is the gateway's view of the persisted credential pair.
// Credentials must return a consistent snapshot of both tokens.
type TokenStore interface {
	Credentials() (models.Credentials, error)
	ClearCredentials() error
}

// SessionObserver is notified after the gateway has seen a 401 and
// cleared the stored credentials.
type SessionObserver interface {
	SessionExpired()
}
