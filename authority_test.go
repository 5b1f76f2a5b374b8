package admingate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thestare/admingate/identity"
	"github.com/thestare/admingate/session"
)

// testClock is a manual time source shared between a test and the Authority.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeStore is an in-memory session.Store with failure injection and call
// counters.
type fakeStore struct {
	mu  sync.Mutex
	rec *session.Record

	failRead  error
	failWrite error
	failClear error

	readCalls  int
	writeCalls int
	clearCalls int
}

func (s *fakeStore) Read(ctx context.Context) (*session.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readCalls++
	if s.failRead != nil {
		return nil, s.failRead
	}
	if s.rec == nil {
		return nil, nil
	}
	rec := *s.rec
	return &rec, nil
}

func (s *fakeStore) Write(ctx context.Context, patch session.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writeCalls++
	if s.failWrite != nil {
		return s.failWrite
	}
	merged := session.Merge(s.rec, patch)
	s.rec = &merged
	return nil
}

func (s *fakeStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearCalls++
	if s.failClear != nil {
		return s.failClear
	}
	s.rec = nil
	return nil
}

func (s *fakeStore) record() *session.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return nil
	}
	rec := *s.rec
	return &rec
}

func (s *fakeStore) setRecord(rec session.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &rec
}

// fakeProvider is a hand-rolled identity.Provider with failure injection and
// call counters. SignOut calls are signalled on a channel because the
// Authority runs them in the background.
type fakeProvider struct {
	mu      sync.Mutex
	secrets map[string]string        // identifier -> secret
	userIDs map[string]string        // identifier -> user ID
	roles   map[string]identity.Role // user ID -> role

	failAuth error
	failRole error

	authCalls    int
	roleCalls    int
	signOutCalls atomic.Int32
	signOutCh    chan struct{}
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		secrets:   make(map[string]string),
		userIDs:   make(map[string]string),
		roles:     make(map[string]identity.Role),
		signOutCh: make(chan struct{}, 16),
	}
}

func (p *fakeProvider) add(identifier, secret, userID string, role identity.Role) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.secrets[identifier] = secret
	p.userIDs[identifier] = userID
	p.roles[userID] = role
}

func (p *fakeProvider) setRole(userID string, role identity.Role) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roles[userID] = role
}

func (p *fakeProvider) Authenticate(ctx context.Context, identifier, secret string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.authCalls++
	if p.failAuth != nil {
		return "", p.failAuth
	}
	stored, ok := p.secrets[identifier]
	if !ok || stored != secret {
		return "", identity.ErrInvalidCredential
	}
	return p.userIDs[identifier], nil
}

func (p *fakeProvider) CurrentIdentity(ctx context.Context) (*identity.Identity, error) {
	return nil, nil
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	p.signOutCalls.Add(1)
	select {
	case p.signOutCh <- struct{}{}:
	default:
	}
	return nil
}

func (p *fakeProvider) QueryRole(ctx context.Context, userID string) (identity.Role, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.roleCalls++
	if p.failRole != nil {
		return "", p.failRole
	}
	role, ok := p.roles[userID]
	if !ok {
		return identity.RoleUser, nil
	}
	return role, nil
}

func (p *fakeProvider) roleCallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.roleCalls
}

func (p *fakeProvider) waitSignOut(t *testing.T) {
	t.Helper()
	select {
	case <-p.signOutCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for provider sign-out")
	}
}

type testAuthority struct {
	authority *Authority
	store     *fakeStore
	provider  *fakeProvider
	clock     *testClock
}

func newTestAuthority(t *testing.T, mutate func(*Config)) *testAuthority {
	t.Helper()

	store := &fakeStore{}
	provider := newFakeProvider()
	clock := newTestClock()

	cfg := defaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	authority, err := New().
		WithConfig(cfg).
		WithStore(store).
		WithProvider(provider).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(authority.Close)

	return &testAuthority{
		authority: authority,
		store:     store,
		provider:  provider,
		clock:     clock,
	}
}

// signIn establishes a session for the default test account.
func (ta *testAuthority) signIn(t *testing.T) {
	t.Helper()
	if err := ta.authority.SignIn(context.Background(), "admin@example.com", "opensesame123"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
}

func (ta *testAuthority) addAdmin() {
	ta.provider.add("admin@example.com", "opensesame123", "u-admin", identity.RoleAdmin)
}
