// Package session owns the authoritative "who is signed in" state. The
// Manager subscribes to identity provider change events, derives a typed
// AppUser from the session and the profile row, and exposes the snapshot
// the route guard reads on every navigation.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yuvrajxx14mu/marketing-yard/internal/identity"
	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
)

// State enumerates the manager's lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateSignedOut
	StateSignedInPendingProfile
	StateSignedIn
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateLoading:
		return "LOADING"
	case StateSignedOut:
		return "SIGNED_OUT"
	case StateSignedInPendingProfile:
		return "SIGNED_IN_PENDING_PROFILE"
	case StateSignedIn:
		return "SIGNED_IN"
	default:
		return "UNKNOWN"
	}
}

// AppUser merges session identity with profile attributes. It exists only
// while a session exists and its profile lookup has completed; it is
// recomputed on every session change and never persisted.
type AppUser struct {
	ID       uint64
	Email    string
	Name     string
	Role     model.Role
	Phone    *string
	Location *string
	Status   string
}

// ProfileStore is the single-row profile lookup the manager hydrates
// AppUser from.
type ProfileStore interface {
	GetByID(ctx context.Context, id uint64) (model.Profile, error)
}

// Notifier surfaces user-visible notifications for the auth operations.
type Notifier interface {
	Success(title, description string)
	Error(title, description string)
}

// Snapshot is the read surface the route guard evaluates. Authenticated
// is strictly "session non-nil": during the window between sign-in and
// profile resolution it is true while User is still nil.
type Snapshot struct {
	Loading       bool
	Authenticated bool
	User          *AppUser
}

const profileFetchTimeout = 5 * time.Second

// Manager runs the session state machine for the lifetime of the
// process. All provider calls triggered by change events are handed off
// to its run loop so they never execute inside the provider's own
// notification delivery.
type Manager struct {
	provider identity.Provider
	profiles ProfileStore
	notify   Notifier

	mu      sync.Mutex
	state   State
	sess    *identity.Session
	profile *model.Profile
	user    *AppUser
	loading bool
	// epoch identifies the session generation a profile fetch was issued
	// for; results from a superseded generation are discarded.
	epoch uint64

	tasks chan func()
	done  chan struct{}
	once  sync.Once
	unsub func()
}

func NewManager(provider identity.Provider, profiles ProfileStore, notify Notifier) *Manager {
	return &Manager{
		provider: provider,
		profiles: profiles,
		notify:   notify,
		state:    StateUninitialized,
		tasks:    make(chan func(), 64),
		done:     make(chan struct{}),
	}
}

// Start registers the change subscription, then issues the one-shot
// session restore. The subscription and the restore can resolve in
// either order; both funnel into applySession, and a session applied by
// an earlier change event is never clobbered by an empty restore result.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateUninitialized {
		m.mu.Unlock()
		return errors.New("session: manager already started")
	}
	m.state = StateLoading
	m.loading = true
	m.mu.Unlock()

	go m.run()
	m.unsub = m.provider.OnAuthStateChange(m.handleChange)

	s, err := m.provider.GetSession(ctx)

	m.mu.Lock()
	m.loading = false
	var fetch func()
	if s != nil || m.state == StateLoading {
		fetch = m.applySession(s)
	}
	m.mu.Unlock()
	if fetch != nil {
		m.enqueue(fetch)
	}
	return err
}

// Close releases the provider subscription and stops the run loop.
func (m *Manager) Close() {
	m.once.Do(func() {
		if m.unsub != nil {
			m.unsub()
		}
		close(m.done)
	})
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// User returns the derived AppUser, or nil while signed out or while the
// profile fetch is still pending.
func (m *Manager) User() *AppUser {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Profile returns the loaded profile row, or nil.
func (m *Manager) Profile() *model.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile
}

// IsLoading reports whether the initial restore or an auth operation is
// in flight. Profile refetches do not set it.
func (m *Manager) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// IsAuthenticated is strictly "session is non-nil", independent of
// whether the profile has resolved.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess != nil
}

// Snapshot returns the state triple the route guard evaluates.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Loading: m.loading, Authenticated: m.sess != nil, User: m.user}
}

// Login delegates to the provider. On success the change-event
// subscription, not this call, populates AppUser.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.setLoading(true)
	defer m.setLoading(false)

	if _, err := m.provider.SignInWithPassword(ctx, email, password); err != nil {
		m.notify.Error("Login failed", err.Error())
		return err
	}
	m.notify.Success("Login successful", "Welcome back!")
	return nil
}

// Register creates the account, attaching name, role and phone as signup
// metadata for the provider-side profile trigger.
func (m *Manager) Register(ctx context.Context, name, email, password string, role model.Role, phone *string) error {
	m.setLoading(true)
	defer m.setLoading(false)

	meta := identity.Metadata{Name: name, Role: role, Phone: phone}
	if _, err := m.provider.SignUp(ctx, email, password, meta); err != nil {
		m.notify.Error("Registration failed", err.Error())
		return err
	}
	m.notify.Success("Registration successful", fmt.Sprintf("Welcome to MarketYard, %s!", name))
	return nil
}

// Logout signs out and clears Session, Profile and AppUser synchronously.
// The change-event subscription will independently clear them again; the
// redundancy keeps consumers immediate instead of waiting on the event.
func (m *Manager) Logout(ctx context.Context) error {
	m.setLoading(true)
	defer m.setLoading(false)

	if err := m.provider.SignOut(ctx); err != nil {
		m.notify.Error("Logout failed", err.Error())
		return err
	}

	m.mu.Lock()
	m.sess = nil
	m.profile = nil
	m.user = nil
	m.state = StateSignedOut
	m.epoch++
	m.mu.Unlock()

	m.notify.Success("Logged out", "You have been successfully logged out.")
	return nil
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}

// handleChange is the provider subscription callback. It only assigns
// state; the profile fetch it may schedule runs on the manager's run
// loop, never on the provider's notification stack frame.
func (m *Manager) handleChange(_ identity.AuthEvent, s *identity.Session) {
	m.mu.Lock()
	fetch := m.applySession(s)
	m.mu.Unlock()
	if fetch != nil {
		m.enqueue(fetch)
	}
}

// applySession is the single state-assignment step every session source
// funnels through. Caller holds m.mu. It returns the profile-fetch task
// to schedule, if any.
func (m *Manager) applySession(s *identity.Session) func() {
	if s == nil {
		m.sess = nil
		m.profile = nil
		m.user = nil
		if m.state != StateUninitialized {
			m.state = StateSignedOut
		}
		m.epoch++
		return nil
	}

	sameUser := m.sess != nil && m.sess.UserID == s.UserID
	m.sess = s
	if sameUser {
		// Token refresh or duplicate event for the current user: keep the
		// derived state, any in-flight fetch still matches this epoch.
		return nil
	}

	m.profile = nil
	m.user = nil
	m.state = StateSignedInPendingProfile
	m.epoch++

	epoch := m.epoch
	uid := s.UserID
	email := s.Email
	fallbackName := s.UserMetadata.Name
	return func() { m.fetchProfile(epoch, uid, email, fallbackName) }
}

// fetchProfile resolves the profile for the given session generation.
// A missing or unreachable profile store degrades to a default farmer
// AppUser instead of blocking sign-in.
func (m *Manager) fetchProfile(epoch uint64, uid uint64, email, fallbackName string) {
	ctx, cancel := context.WithTimeout(context.Background(), profileFetchTimeout)
	defer cancel()

	var (
		profile *model.Profile
		user    *AppUser
	)
	if p, err := m.profiles.GetByID(ctx, uid); err == nil {
		profile = &p
		user = &AppUser{
			ID:       uid,
			Email:    email,
			Name:     p.Name,
			Role:     p.Role,
			Phone:    p.Phone,
			Location: p.Location,
			Status:   "active",
		}
	} else {
		if fallbackName == "" {
			fallbackName = "User"
		}
		user = &AppUser{
			ID:     uid,
			Email:  email,
			Name:   fallbackName,
			Role:   model.RoleFarmer,
			Status: "active",
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch || m.sess == nil || m.sess.UserID != uid {
		// A newer session superseded this fetch; drop the result.
		return
	}
	m.profile = profile
	m.user = user
	m.state = StateSignedIn
}

func (m *Manager) enqueue(fn func()) {
	select {
	case m.tasks <- fn:
	case <-m.done:
	}
}

func (m *Manager) run() {
	for {
		select {
		case fn := <-m.tasks:
			fn()
		case <-m.done:
			return
		}
	}
}
