package identity

import (
	"context"
	"crypto/subtle"
	"sync"

	"github.com/google/uuid"
)

type memoryAccount struct {
	userID     string
	identifier string
	secret     string
	role       Role
}

// Memory is an in-process [Provider] for examples and tests. Accounts are
// registered up front with Add; secrets are kept in plain text, so it is not
// suitable for production use.
type Memory struct {
	mu       sync.Mutex
	byIdent  map[string]*memoryAccount
	byUserID map[string]*memoryAccount
	current  *Identity
}

// NewMemory returns an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{
		byIdent:  make(map[string]*memoryAccount),
		byUserID: make(map[string]*memoryAccount),
	}
}

// Add registers an account and returns its generated user ID.
func (m *Memory) Add(identifier, secret string, role Role) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct := &memoryAccount{
		userID:     uuid.NewString(),
		identifier: identifier,
		secret:     secret,
		role:       role,
	}
	m.byIdent[identifier] = acct
	m.byUserID[acct.userID] = acct
	return acct.userID
}

// SetRole changes the role of an existing account. Missing accounts are
// ignored.
func (m *Memory) SetRole(userID string, role Role) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if acct, ok := m.byUserID[userID]; ok {
		acct.role = role
	}
}

// Authenticate implements [Provider].
func (m *Memory) Authenticate(ctx context.Context, identifier, secret string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.byIdent[identifier]
	if !ok {
		return "", ErrInvalidCredential
	}
	if subtle.ConstantTimeCompare([]byte(acct.secret), []byte(secret)) != 1 {
		return "", ErrInvalidCredential
	}

	m.current = &Identity{
		UserID:     acct.userID,
		Identifier: acct.identifier,
		Role:       acct.role,
	}
	return acct.userID, nil
}

// CurrentIdentity implements [Provider].
func (m *Memory) CurrentIdentity(ctx context.Context) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil, nil
	}
	ident := *m.current
	return &ident, nil
}

// SignOut implements [Provider].
func (m *Memory) SignOut(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = nil
	return nil
}

// QueryRole implements [Provider]. Unknown user IDs resolve to RoleUser.
func (m *Memory) QueryRole(ctx context.Context, userID string) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.byUserID[userID]
	if !ok {
		return RoleUser, nil
	}
	return acct.role, nil
}
