package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/storepulse/storepulse/internal/domain"
	"github.com/storepulse/storepulse/internal/identity"
)

type fakeIdentity struct {
	users map[string]struct {
		password string
		user     domain.User
	}
	signupErr error
}

func newFakeIdentity() *fakeIdentity {
	f := &fakeIdentity{users: make(map[string]struct {
		password string
		user     domain.User
	})}
	f.add("admin@example.com", "Admin123!", domain.User{
		ID: "1", Name: "System Administrator User", Email: "admin@example.com", Role: domain.RoleAdmin,
	})
	f.add("john@example.com", "User123!", domain.User{
		ID: "2", Name: "John Doe Regular Customer", Email: "john@example.com", Role: domain.RoleUser,
	})
	return f
}

func (f *fakeIdentity) add(email, password string, user domain.User) {
	f.users[email] = struct {
		password string
		user     domain.User
	}{password, user}
}

func (f *fakeIdentity) Login(_ context.Context, email, password string) (domain.User, error) {
	entry, ok := f.users[email]
	if !ok || entry.password != password {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return entry.user, nil
}

func (f *fakeIdentity) Signup(_ context.Context, params identity.SignupParams) (domain.User, error) {
	if f.signupErr != nil {
		return domain.User{}, f.signupErr
	}
	if _, ok := f.users[params.Email]; ok {
		return domain.User{}, identity.ErrDuplicateEmail
	}
	user := domain.User{ID: "new", Name: params.Name, Email: params.Email, Address: params.Address, Role: domain.RoleUser}
	f.add(params.Email, params.Password, user)
	return user, nil
}

func (f *fakeIdentity) ChangePassword(_ context.Context, userID, newPassword string) error {
	for email, entry := range f.users {
		if entry.user.ID == userID {
			f.add(email, newPassword, entry.user)
			return nil
		}
	}
	return domain.ErrInvalidCredentials
}

func (f *fakeIdentity) ListUsers(_ context.Context) ([]domain.User, error) {
	users := make([]domain.User, 0, len(f.users))
	for _, entry := range f.users {
		users = append(users, entry.user)
	}
	return users, nil
}

func newTestManager(ttl time.Duration) (*Manager, *fakeIdentity) {
	idc := newFakeIdentity()
	return NewManager(idc, NewMemoryStore(), ttl, nil), idc
}

func TestManagerAuthenticate(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(time.Hour)

	sess, err := mgr.Authenticate(ctx, "admin@example.com", "Admin123!")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if sess.Token == "" {
		t.Fatalf("session token should not be empty")
	}
	if sess.User.Role != domain.RoleAdmin {
		t.Fatalf("role = %v, want ADMIN", sess.User.Role)
	}
	if !sess.ExpiresAt.After(sess.CreatedAt) {
		t.Fatalf("session should expire after creation")
	}

	resolved, err := mgr.Resolve(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved == nil || resolved.User.ID != "1" {
		t.Fatalf("Resolve returned %+v, want admin session", resolved)
	}
}

func TestManagerAuthenticateInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(time.Hour)

	for _, tc := range []struct{ email, password string }{
		{"admin@example.com", "wrong"},
		{"nobody@example.com", "Admin123!"},
	} {
		if _, err := mgr.Authenticate(ctx, tc.email, tc.password); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("Authenticate(%s) error = %v, want ErrInvalidCredentials", tc.email, err)
		}
	}
}

func TestManagerResolveUnknownToken(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(time.Hour)

	sess, err := mgr.Resolve(ctx, "no-such-token")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sess != nil {
		t.Fatalf("unknown token should resolve to nil session")
	}

	sess, err = mgr.Resolve(ctx, "")
	if err != nil || sess != nil {
		t.Fatalf("empty token should resolve to (nil, nil), got (%v, %v)", sess, err)
	}
}

func TestManagerResolveExpiredSession(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(time.Hour)

	current := time.Now().UTC()
	mgr.now = func() time.Time { return current }

	sess, err := mgr.Authenticate(ctx, "john@example.com", "User123!")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	// Jump past the TTL. The session resolves to nil and is evicted.
	current = current.Add(2 * time.Hour)
	resolved, err := mgr.Resolve(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved != nil {
		t.Fatalf("expired session should resolve to nil")
	}
}

func TestManagerEndSessionIdempotent(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(time.Hour)

	sess, err := mgr.Authenticate(ctx, "john@example.com", "User123!")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if err := mgr.EndSession(ctx, sess.Token); err != nil {
		t.Fatalf("first EndSession: %v", err)
	}
	if err := mgr.EndSession(ctx, sess.Token); err != nil {
		t.Fatalf("second EndSession should succeed, got %v", err)
	}
	if err := mgr.EndSession(ctx, ""); err != nil {
		t.Fatalf("EndSession with empty token should succeed, got %v", err)
	}

	resolved, err := mgr.Resolve(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Resolve after logout: %v", err)
	}
	if resolved != nil {
		t.Fatalf("session should be gone after EndSession")
	}
}

func TestManagerRole(t *testing.T) {
	mgr, _ := newTestManager(time.Hour)

	if got := mgr.Role(nil); got != domain.RoleNone {
		t.Fatalf("Role(nil) = %v, want NONE", got)
	}
	sess := &Session{User: domain.User{Role: domain.RoleOwner}}
	if got := mgr.Role(sess); got != domain.RoleOwner {
		t.Fatalf("Role = %v, want OWNER", got)
	}
}

func TestManagerSignup(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(time.Hour)

	sess, err := mgr.Signup(ctx, identity.SignupParams{
		Name:     "Brand New Customer Account",
		Email:    "new@example.com",
		Address:  "1 New Street",
		Password: "Newuser1!",
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if sess.User.Role != domain.RoleUser {
		t.Fatalf("signup role = %v, want USER", sess.User.Role)
	}
	if sess.Token == "" {
		t.Fatalf("signup should open a session")
	}

	if _, err := mgr.Signup(ctx, identity.SignupParams{Email: "new@example.com"}); !errors.Is(err, identity.ErrDuplicateEmail) {
		t.Fatalf("duplicate signup error = %v, want ErrDuplicateEmail", err)
	}
}

func TestManagerChangePassword(t *testing.T) {
	ctx := context.Background()
	mgr, idc := newTestManager(time.Hour)

	sess, err := mgr.Authenticate(ctx, "john@example.com", "User123!")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if err := mgr.ChangePassword(ctx, nil, "Other123!"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("ChangePassword without session error = %v, want ErrInvalidCredentials", err)
	}

	if err := mgr.ChangePassword(ctx, sess, "Other123!"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := idc.Login(ctx, "john@example.com", "Other123!"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	sess := Session{
		Token:     "tok-1",
		User:      domain.User{ID: "1", Role: domain.RoleUser},
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.User.ID != "1" {
		t.Fatalf("Get returned %+v", got)
	}

	missing, err := store.Get(ctx, "tok-2")
	if err != nil || missing != nil {
		t.Fatalf("unknown token should be (nil, nil), got (%v, %v)", missing, err)
	}

	if err := store.Delete(ctx, "tok-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "tok-1"); err != nil {
		t.Fatalf("Delete should be idempotent: %v", err)
	}

	expired := Session{
		Token:     "tok-3",
		User:      domain.User{ID: "3"},
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	if err := store.Put(ctx, expired); err != nil {
		t.Fatalf("Put expired: %v", err)
	}
	got, err = store.Get(ctx, "tok-3")
	if err != nil || got != nil {
		t.Fatalf("expired session should read back as (nil, nil), got (%v, %v)", got, err)
	}
}
