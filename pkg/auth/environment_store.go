package auth

import (
	"os"
	"time"
)

// EnvironmentStore reads a cookie bundle from IGEXTRACT_* environment
// variables. It is read-only; Store and Delete are unsupported.
type EnvironmentStore struct{}

// NewEnvironmentStore builds the environment-backed store.
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables.
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve builds a bundle from the environment. The environment carries
// no username, so an empty one maps to "default".
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	sessionID := os.Getenv("IGEXTRACT_SESSION_ID")
	csrfToken := os.Getenv("IGEXTRACT_CSRF_TOKEN")
	userAgent := os.Getenv("IGEXTRACT_USER_AGENT")

	if sessionID == "" || csrfToken == "" {
		return nil, ErrCredentialsNotFound
	}

	if username == "" {
		username = "default"
	}

	return &Account{
		Username:     username,
		SessionID:    sessionID,
		CSRFToken:    csrfToken,
		UserAgent:    userAgent,
		LastModified: time.Now(),
	}, nil
}

// List returns the environment bundle when one is exported.
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables.
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists reports whether the environment carries a bundle.
func (e *EnvironmentStore) Exists(username string) bool {
	return os.Getenv("IGEXTRACT_SESSION_ID") != "" && os.Getenv("IGEXTRACT_CSRF_TOKEN") != ""
}
