package state

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/alexjbarnes/farmdesk/internal/models"
	bolt "go.etcd.io/bbolt"
)

const (
	// stateDirPerm is the permission mode for the state directory (~/.farmdesk/).
	stateDirPerm = fs.FileMode(0o700)

	// stateFilePerm is the permission mode for the state database file.
	stateFilePerm = fs.FileMode(0o600)

	// stateOpenTimeout is the maximum time to wait for the bolt database lock.
	stateOpenTimeout = 5 * time.Second
)

var (
	appBucket         = []byte("app")
	lastUsernameKey   = []byte("last_username")
	credentialsBucket = []byte("credentials")
	accessTokenKey    = []byte("access_token")
	refreshTokenKey   = []byte("refresh_token")
)

// State wraps a bbolt database holding the credential pair and a few
// client preferences. Both credential slots are always written and
// deleted in the same transaction.
type State struct {
	db *bolt.DB
}

// Load opens the state database at ~/.farmdesk/state.db, creating it
// if it does not exist.
func Load() (*State, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}

	return LoadAt(path)
}

// LoadAt opens a state database at the given path, creating it if it
// does not exist. Useful for tests that need an isolated database.
func LoadAt(path string) (*State, error) {
	if err := os.MkdirAll(filepath.Dir(path), stateDirPerm); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := bolt.Open(path, stateFilePerm, &bolt.Options{Timeout: stateOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(appBucket); err != nil {
			return err
		}

		_, err := tx.CreateBucketIfNotExists(credentialsBucket)

		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing state db: %w", err)
	}

	return &State{db: db}, nil
}

// Close closes the database.
func (s *State) Close() error {
	return s.db.Close()
}

// Credentials returns a consistent snapshot of the stored pair. A lone
// slot left behind by an older version is reported as no session.
func (s *State) Credentials() (models.Credentials, error) {
	var creds models.Credentials

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(credentialsBucket)
		creds.Access = string(b.Get(accessTokenKey))
		creds.Refresh = string(b.Get(refreshTokenKey))

		return nil
	})
	if err != nil {
		return models.Credentials{}, fmt.Errorf("reading credentials: %w", err)
	}

	if !creds.Complete() {
		return models.Credentials{}, nil
	}

	return creds, nil
}

// SaveCredentials replaces the stored pair. Both tokens are required.
func (s *State) SaveCredentials(creds models.Credentials) error {
	if !creds.Complete() {
		return fmt.Errorf("refusing to store incomplete credential pair")
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(credentialsBucket)
		if err := b.Put(accessTokenKey, []byte(creds.Access)); err != nil {
			return err
		}

		return b.Put(refreshTokenKey, []byte(creds.Refresh))
	})
}

// ClearCredentials deletes both tokens. Clearing an empty store is not
// an error.
func (s *State) ClearCredentials() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(credentialsBucket)
		if err := b.Delete(accessTokenKey); err != nil {
			return err
		}

		return b.Delete(refreshTokenKey)
	})
}

// LastUsername returns the username of the last successful login, or "".
func (s *State) LastUsername() string {
	var name string

	_ = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(appBucket).Get(lastUsernameKey)
		if v != nil {
			name = string(v)
		}

		return nil
	})

	return name
}

// SetLastUsername remembers the username used for the last login so the
// CLI can offer it as the prompt default.
func (s *State) SetLastUsername(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(appBucket).Put(lastUsernameKey, []byte(name))
	})
}

// DefaultPath returns ~/.farmdesk/state.db.
func DefaultPath() (string, error) {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}

	return filepath.Join(dir, ".farmdesk", "state.db"), nil
}
