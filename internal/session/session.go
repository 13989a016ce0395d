package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storepulse/storepulse/internal/domain"
	"github.com/storepulse/storepulse/internal/identity"
)

// Session is the authenticated principal plus role for one client process.
// The token is opaque; resolving it against the store is the only way to
// recover the user.
type Session struct {
	Token     string      `json:"token"`
	User      domain.User `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Store persists sessions keyed by token. Implementations mirror the
// reference client's "currentUser" key-value slot: absent means
// unauthenticated.
type Store interface {
	Put(ctx context.Context, sess Session) error
	// Get returns nil without error when the token is unknown or expired.
	Get(ctx context.Context, token string) (*Session, error)
	// Delete is idempotent.
	Delete(ctx context.Context, token string) error
}

// Manager authenticates against the external identity collaborator and tracks
// live sessions. It holds no ambient globals; tests can instantiate
// independent managers over independent stores.
type Manager struct {
	identity identity.Client
	store    Store
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewManager wires a Manager over an identity client and a session store.
func NewManager(idc identity.Client, store Store, ttl time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		identity: idc,
		store:    store,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Authenticate delegates the credential check to the identity collaborator
// and, on success, opens a session. A collaborator mismatch surfaces as
// domain.ErrInvalidCredentials; transport errors pass through untouched.
func (m *Manager) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	user, err := m.identity.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return m.open(ctx, user)
}

// Signup registers a new USER with the collaborator and opens a session for
// them, matching the reference client's post-signup behavior.
func (m *Manager) Signup(ctx context.Context, params identity.SignupParams) (*Session, error) {
	user, err := m.identity.Signup(ctx, params)
	if err != nil {
		return nil, err
	}
	return m.open(ctx, user)
}

// ChangePassword forwards a credential update for the session's user.
func (m *Manager) ChangePassword(ctx context.Context, sess *Session, newPassword string) error {
	if sess == nil {
		return domain.ErrInvalidCredentials
	}
	return m.identity.ChangePassword(ctx, sess.User.ID, newPassword)
}

// Resolve looks up a session by token. Unknown or expired tokens resolve to
// (nil, nil); the caller sees an unauthenticated principal, not an error.
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	sess, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if m.now().After(sess.ExpiresAt) {
		_ = m.store.Delete(ctx, token)
		return nil, nil
	}
	return sess, nil
}

// EndSession invalidates a session. Ending an already-ended session succeeds.
func (m *Manager) EndSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.Delete(ctx, token)
}

// Role projects a session onto its role. No session means RoleNone.
func (m *Manager) Role(sess *Session) domain.Role {
	if sess == nil {
		return domain.RoleNone
	}
	return sess.User.Role
}

func (m *Manager) open(ctx context.Context, user domain.User) (*Session, error) {
	now := m.now().UTC()
	sess := Session{
		Token:     uuid.NewString(),
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	m.logger.Info("session opened",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)))
	return &sess, nil
}
