package identity

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/storepulse/storepulse/internal/domain"
)

// Contract smoke test against a running identity service (for example
// cmd/identity-mock). Skipped unless IDENTITY_URL is set.
func TestClientContract(t *testing.T) {
	baseURL := os.Getenv("IDENTITY_URL")
	if baseURL == "" {
		t.Skip("IDENTITY_URL not set; skipping contract test")
	}

	client, err := NewHTTPClient(baseURL, os.Getenv("IDENTITY_API_KEY"), 5*time.Second, nil)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	ctx := context.Background()

	user, err := client.Login(ctx, "admin@example.com", "Admin123!")
	if err != nil {
		t.Fatalf("login with fixture credentials: %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Fatalf("fixture admin role = %v, want ADMIN", user.Role)
	}

	if _, err := client.Login(ctx, "admin@example.com", "definitely-wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password error = %v, want ErrInvalidCredentials", err)
	}

	users, err := client.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) == 0 {
		t.Fatalf("expected at least the fixture users")
	}
}
