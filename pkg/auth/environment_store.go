package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// This mirrors passing the cookie on the command line and exists as a last
// resort when neither keyring nor encrypted file storage is usable.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	cookie := os.Getenv("INATDL_SESSION_COOKIE")
	if cookie == "" {
		return nil, ErrCredentialsNotFound
	}

	// Environment variables don't store a username, so fall back to the
	// requested one.
	if username == "" {
		username = "default"
	}

	return &Account{
		Username:      username,
		SessionCookie: cookie,
		LastModified:  time.Now(),
	}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(username string) bool {
	return os.Getenv("INATDL_SESSION_COOKIE") != ""
}
