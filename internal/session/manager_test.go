package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yuvrajxx14mu/marketing-yard/internal/identity"
	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
)

// stubProvider is a scripted identity provider. Tests drive it by
// setting the stored session and error fields and by emitting change
// events directly.
type stubProvider struct {
	mu      sync.Mutex
	cbs     map[int]identity.ChangeFunc
	next    int
	session *identity.Session

	signInErr  error
	signUpErr  error
	signOutErr error
	// emitOnSignOut controls whether SignOut delivers the nil-session
	// event, so tests can observe the manager's own synchronous clear.
	emitOnSignOut bool
}

func newStubProvider() *stubProvider {
	return &stubProvider{cbs: make(map[int]identity.ChangeFunc), emitOnSignOut: true}
}

func (p *stubProvider) emit(ev identity.AuthEvent, s *identity.Session) {
	p.mu.Lock()
	p.session = s
	cbs := make([]identity.ChangeFunc, 0, len(p.cbs))
	for _, cb := range p.cbs {
		cbs = append(cbs, cb)
	}
	p.mu.Unlock()
	for _, cb := range cbs {
		cb(ev, s)
	}
}

func (p *stubProvider) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error) {
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	s := sessionFor(1, email, "")
	p.emit(identity.EventSignedIn, s)
	return s, nil
}

func (p *stubProvider) SignUp(ctx context.Context, email, password string, meta identity.Metadata) (*identity.Session, error) {
	if p.signUpErr != nil {
		return nil, p.signUpErr
	}
	s := sessionFor(1, email, meta.Name)
	s.UserMetadata = meta
	p.emit(identity.EventSignedIn, s)
	return s, nil
}

func (p *stubProvider) SignOut(ctx context.Context) error {
	if p.signOutErr != nil {
		return p.signOutErr
	}
	if p.emitOnSignOut {
		p.emit(identity.EventSignedOut, nil)
	}
	return nil
}

func (p *stubProvider) GetSession(ctx context.Context) (*identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session, nil
}

func (p *stubProvider) OnAuthStateChange(cb identity.ChangeFunc) func() {
	p.mu.Lock()
	id := p.next
	p.next++
	p.cbs[id] = cb
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.cbs, id)
		p.mu.Unlock()
	}
}

func sessionFor(uid uint64, email, name string) *identity.Session {
	return &identity.Session{
		UserID:       uid,
		Email:        email,
		UserMetadata: identity.Metadata{Name: name},
	}
}

// fakeProfiles serves profiles from a map. An optional gate channel per
// user blocks GetByID until the test releases it.
type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[uint64]model.Profile
	gates    map[uint64]chan struct{}
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{
		profiles: make(map[uint64]model.Profile),
		gates:    make(map[uint64]chan struct{}),
	}
}

func (f *fakeProfiles) put(p model.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[p.ID] = p
}

func (f *fakeProfiles) gate(uid uint64) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[uid] = ch
	return ch
}

func (f *fakeProfiles) GetByID(ctx context.Context, id uint64) (model.Profile, error) {
	f.mu.Lock()
	gate := f.gates[id]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return model.Profile{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return model.Profile{}, errors.New("profile not found")
	}
	return p, nil
}

// recordingNotifier captures the notifications an operation produced.
type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(title, description string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, title+": "+description)
}

func (n *recordingNotifier) Error(title, description string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, title+": "+description)
}

func (n *recordingNotifier) lastError() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.errors) == 0 {
		return ""
	}
	return n.errors[len(n.errors)-1]
}

func (n *recordingNotifier) lastSuccess() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.successes) == 0 {
		return ""
	}
	return n.successes[len(n.successes)-1]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func newTestManager(t *testing.T, p *stubProvider, profiles *fakeProfiles) (*Manager, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	m := NewManager(p, profiles, n)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(m.Close)
	return m, n
}

func TestStartWithoutSessionSignsOut(t *testing.T) {
	m, _ := newTestManager(t, newStubProvider(), newFakeProfiles())

	waitFor(t, func() bool { return m.State() == StateSignedOut })
	if m.IsAuthenticated() {
		t.Fatal("expected unauthenticated after empty restore")
	}
	if m.User() != nil {
		t.Fatal("expected nil user after empty restore")
	}
}

func TestStartRestoresPersistedSession(t *testing.T) {
	p := newStubProvider()
	p.session = sessionFor(1, "ram@example.com", "")
	profiles := newFakeProfiles()
	phone := "9999"
	profiles.put(model.Profile{ID: 1, Name: "Ramesh", Role: model.RoleTrader, Phone: &phone})

	m, _ := newTestManager(t, p, profiles)

	waitFor(t, func() bool { return m.State() == StateSignedIn })
	u := m.User()
	if u == nil || u.Name != "Ramesh" || u.Role != model.RoleTrader || u.Email != "ram@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if m.Profile() == nil {
		t.Fatal("expected profile to be retained")
	}
}

func TestAuthenticatedWhileProfilePending(t *testing.T) {
	p := newStubProvider()
	profiles := newFakeProfiles()
	profiles.put(model.Profile{ID: 1, Name: "Ramesh", Role: model.RoleFarmer})
	gate := profiles.gate(1)

	m, _ := newTestManager(t, p, profiles)
	waitFor(t, func() bool { return m.State() == StateSignedOut })

	if err := m.Login(context.Background(), "ram@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	waitFor(t, func() bool { return m.State() == StateSignedInPendingProfile })
	if !m.IsAuthenticated() {
		t.Fatal("expected authenticated while profile pending")
	}
	if m.User() != nil {
		t.Fatal("expected nil user while profile pending")
	}
	snap := m.Snapshot()
	if !snap.Authenticated || snap.User != nil {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	close(gate)
	waitFor(t, func() bool { return m.State() == StateSignedIn })
	if u := m.User(); u == nil || u.Name != "Ramesh" {
		t.Fatalf("unexpected user after fetch: %+v", u)
	}
}

func TestMissingProfileDegradesToDefaultUser(t *testing.T) {
	p := newStubProvider()
	m, _ := newTestManager(t, p, newFakeProfiles())
	waitFor(t, func() bool { return m.State() == StateSignedOut })

	phone := "12345"
	if err := m.Register(context.Background(), "Sita", "sita@example.com", "longenough", model.RoleTrader, &phone); err != nil {
		t.Fatalf("Register: %v", err)
	}

	waitFor(t, func() bool { return m.State() == StateSignedIn })
	u := m.User()
	if u == nil {
		t.Fatal("expected a user")
	}
	// No profile row: the fallback is a default farmer with the signup name.
	if u.Role != model.RoleFarmer || u.Name != "Sita" || u.Status != "active" {
		t.Fatalf("unexpected fallback user: %+v", u)
	}
	if m.Profile() != nil {
		t.Fatal("expected nil profile for fallback user")
	}
}

func TestRegisterResolvesRoleFromProfile(t *testing.T) {
	p := newStubProvider()
	profiles := newFakeProfiles()
	// The provider-side trigger has created the profile row.
	profiles.put(model.Profile{ID: 1, Name: "Jane", Role: model.RoleTrader})
	m, _ := newTestManager(t, p, profiles)
	waitFor(t, func() bool { return m.State() == StateSignedOut })

	if err := m.Register(context.Background(), "Jane", "jane@example.com", "longenough", model.RoleTrader, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	waitFor(t, func() bool { return m.State() == StateSignedIn })
	u := m.User()
	if u == nil || u.Role != model.RoleTrader || u.Name != "Jane" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestMissingProfileAndNameFallsBackToUser(t *testing.T) {
	p := newStubProvider()
	m, _ := newTestManager(t, p, newFakeProfiles())
	waitFor(t, func() bool { return m.State() == StateSignedOut })

	if err := m.Login(context.Background(), "anon@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	waitFor(t, func() bool { return m.State() == StateSignedIn })
	if u := m.User(); u == nil || u.Name != "User" {
		t.Fatalf("expected fallback name %q, got %+v", "User", m.User())
	}
}

func TestLoginFailureNotifiesAndReturnsError(t *testing.T) {
	p := newStubProvider()
	p.signInErr = identity.ErrInvalidCredentials
	m, n := newTestManager(t, p, newFakeProfiles())
	waitFor(t, func() bool { return m.State() == StateSignedOut })

	err := m.Login(context.Background(), "ram@example.com", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := n.lastError(); got != "Login failed: Invalid login credentials" {
		t.Fatalf("unexpected notification: %q", got)
	}
	if m.IsAuthenticated() {
		t.Fatal("expected to stay signed out")
	}
	if m.IsLoading() {
		t.Fatal("loading flag must clear after a failed operation")
	}
}

func TestLoginSuccessNotifies(t *testing.T) {
	p := newStubProvider()
	profiles := newFakeProfiles()
	profiles.put(model.Profile{ID: 1, Name: "Ramesh", Role: model.RoleFarmer})
	m, n := newTestManager(t, p, profiles)
	waitFor(t, func() bool { return m.State() == StateSignedOut })

	if err := m.Login(context.Background(), "ram@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := n.lastSuccess(); got != "Login successful: Welcome back!" {
		t.Fatalf("unexpected notification: %q", got)
	}
}

func TestRegisterNotificationsUseName(t *testing.T) {
	p := newStubProvider()
	m, n := newTestManager(t, p, newFakeProfiles())
	waitFor(t, func() bool { return m.State() == StateSignedOut })

	if err := m.Register(context.Background(), "Sita", "sita@example.com", "longenough", model.RoleFarmer, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := n.lastSuccess(); got != "Registration successful: Welcome to MarketYard, Sita!" {
		t.Fatalf("unexpected notification: %q", got)
	}

	p.signUpErr = identity.ErrUserExists
	if err := m.Register(context.Background(), "Sita", "sita@example.com", "longenough", model.RoleFarmer, nil); err == nil {
		t.Fatal("expected error")
	}
	if got := n.lastError(); got != "Registration failed: User already registered" {
		t.Fatalf("unexpected notification: %q", got)
	}
}

func TestLogoutClearsStateSynchronously(t *testing.T) {
	p := newStubProvider()
	p.emitOnSignOut = false // state must clear without relying on the event
	profiles := newFakeProfiles()
	profiles.put(model.Profile{ID: 1, Name: "Ramesh", Role: model.RoleFarmer})
	m, n := newTestManager(t, p, profiles)
	waitFor(t, func() bool { return m.State() == StateSignedOut })

	if err := m.Login(context.Background(), "ram@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	waitFor(t, func() bool { return m.State() == StateSignedIn })

	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if m.IsAuthenticated() || m.User() != nil || m.Profile() != nil {
		t.Fatal("expected session, user and profile cleared immediately")
	}
	if m.State() != StateSignedOut {
		t.Fatalf("state = %v, want SIGNED_OUT", m.State())
	}
	if got := n.lastSuccess(); got != "Logged out: You have been successfully logged out." {
		t.Fatalf("unexpected notification: %q", got)
	}
}

func TestLogoutFailureKeepsSession(t *testing.T) {
	p := newStubProvider()
	profiles := newFakeProfiles()
	profiles.put(model.Profile{ID: 1, Name: "Ramesh", Role: model.RoleFarmer})
	m, n := newTestManager(t, p, profiles)
	waitFor(t, func() bool { return m.State() == StateSignedOut })

	if err := m.Login(context.Background(), "ram@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	waitFor(t, func() bool { return m.State() == StateSignedIn })

	p.signOutErr = errors.New("network down")
	if err := m.Logout(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !m.IsAuthenticated() {
		t.Fatal("failed logout must not clear the session")
	}
	if got := n.lastError(); got != "Logout failed: network down" {
		t.Fatalf("unexpected notification: %q", got)
	}
}

func TestStaleProfileFetchDiscarded(t *testing.T) {
	p := newStubProvider()
	profiles := newFakeProfiles()
	profiles.put(model.Profile{ID: 1, Name: "Slow", Role: model.RoleFarmer})
	profiles.put(model.Profile{ID: 2, Name: "Fast", Role: model.RoleTrader})
	slowGate := profiles.gate(1)

	m, _ := newTestManager(t, p, profiles)
	waitFor(t, func() bool { return m.State() == StateSignedOut })

	// User 1 signs in; their profile fetch blocks on the gate.
	p.emit(identity.EventSignedIn, sessionFor(1, "slow@example.com", ""))
	waitFor(t, func() bool { return m.State() == StateSignedInPendingProfile })

	// User 2 supersedes user 1 before the first fetch resolves. Fetches
	// run serially, so releasing the gate lets the stale fetch finish
	// first; its result must be discarded in favor of user 2's.
	p.emit(identity.EventSignedIn, sessionFor(2, "fast@example.com", ""))
	close(slowGate)
	waitFor(t, func() bool {
		u := m.User()
		return u != nil && u.ID == 2
	})
	if u := m.User(); u.Name != "Fast" || u.Role != model.RoleTrader {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestFetchResolvingAfterSignOutIsDiscarded(t *testing.T) {
	p := newStubProvider()
	profiles := newFakeProfiles()
	profiles.put(model.Profile{ID: 1, Name: "Ramesh", Role: model.RoleFarmer})
	gate := profiles.gate(1)

	m, _ := newTestManager(t, p, profiles)
	waitFor(t, func() bool { return m.State() == StateSignedOut })

	p.emit(identity.EventSignedIn, sessionFor(1, "ram@example.com", ""))
	waitFor(t, func() bool { return m.State() == StateSignedInPendingProfile })

	// Sign out while the profile fetch is still blocked, then let it
	// resolve. The late result must not resurrect the session.
	p.emit(identity.EventSignedOut, nil)
	close(gate)
	time.Sleep(20 * time.Millisecond)

	if m.IsAuthenticated() || m.User() != nil {
		t.Fatalf("late fetch resurrected the session: %+v", m.User())
	}
	if m.State() != StateSignedOut {
		t.Fatalf("state = %v, want SIGNED_OUT", m.State())
	}
}

func TestTokenRefreshKeepsDerivedUser(t *testing.T) {
	p := newStubProvider()
	profiles := newFakeProfiles()
	profiles.put(model.Profile{ID: 1, Name: "Ramesh", Role: model.RoleFarmer})
	m, _ := newTestManager(t, p, profiles)
	waitFor(t, func() bool { return m.State() == StateSignedOut })

	p.emit(identity.EventSignedIn, sessionFor(1, "ram@example.com", ""))
	waitFor(t, func() bool { return m.State() == StateSignedIn })

	// A refreshed session for the same user must not drop back to the
	// pending state or clear the derived user.
	p.emit(identity.EventTokenRefreshed, sessionFor(1, "ram@example.com", ""))
	if m.State() != StateSignedIn {
		t.Fatalf("state = %v, want SIGNED_IN", m.State())
	}
	if u := m.User(); u == nil || u.Name != "Ramesh" {
		t.Fatalf("derived user lost on refresh: %+v", u)
	}
}

func TestStartTwiceFails(t *testing.T) {
	m := NewManager(newStubProvider(), newFakeProfiles(), LogNotifier{})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(m.Close)
	if err := m.Start(context.Background()); err == nil {
		t.Fatal("second Start must fail")
	}
}
