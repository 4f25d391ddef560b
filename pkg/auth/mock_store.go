package auth

import "sync"

// MockStore is an in-memory CredentialStore for testing
type MockStore struct {
	accounts map[string]*Account
	failAll  bool
	mu       sync.RWMutex
}

// NewMockStore creates a new in-memory credential store
func NewMockStore() *MockStore {
	return &MockStore{
		accounts: make(map[string]*Account),
	}
}

// SetFailAll makes every operation fail with ErrStoreUnavailable
func (m *MockStore) SetFailAll(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = fail
}

// Store saves credentials in memory
func (m *MockStore) Store(account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAll {
		return ErrStoreUnavailable
	}
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}

	copied := *account
	m.accounts[account.Username] = &copied
	return nil
}

// Retrieve gets credentials from memory
func (m *MockStore) Retrieve(username string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failAll {
		return nil, ErrStoreUnavailable
	}

	account, ok := m.accounts[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}

	copied := *account
	return &copied, nil
}

// Delete removes credentials from memory
func (m *MockStore) Delete(username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAll {
		return ErrStoreUnavailable
	}
	if _, ok := m.accounts[username]; !ok {
		return ErrCredentialsNotFound
	}

	delete(m.accounts, username)
	return nil
}

// Exists checks if credentials exist in memory
func (m *MockStore) Exists(username string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failAll {
		return false
	}
	_, ok := m.accounts[username]
	return ok
}
