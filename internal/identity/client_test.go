package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/storepulse/storepulse/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewHTTPClient(srv.URL, "test-key", 2*time.Second, nil)
	if err != nil {
		t.Fatalf("NewHTTPClient: %v", err)
	}
	return client
}

func TestLoginSuccess(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Errorf("missing API key header")
		}
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Email != "jane@store1.com" {
			t.Errorf("email = %q", req.Email)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"user": map[string]string{
				"id":      "3",
				"name":    "Jane Smith Store Manager",
				"email":   "jane@store1.com",
				"role":    "STORE_OWNER",
				"storeId": "1",
			},
		})
	}))

	user, err := client.Login(context.Background(), "jane@store1.com", "Store123!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != "3" || user.StoreID != "1" {
		t.Fatalf("user = %+v", user)
	}
	// Collaborator role spellings are normalized on the way in.
	if user.Role != domain.RoleOwner {
		t.Fatalf("role = %v, want OWNER", user.Role)
	}
}

func TestLoginUnauthorized(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	if _, err := client.Login(context.Background(), "x@y.co", "nope"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUpstreamFailure(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.Login(context.Background(), "x@y.co", "pw")
	if err == nil || errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("upstream 500 should not look like bad credentials, got %v", err)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	_, err := client.Signup(context.Background(), SignupParams{Email: "taken@example.com"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("error = %v, want ErrDuplicateEmail", err)
	}
}

func TestChangePassword(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID   string `json:"userId"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.UserID == "2" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	if err := client.ChangePassword(context.Background(), "2", "Newpass1!"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if err := client.ChangePassword(context.Background(), "999", "Newpass1!"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown user error = %v, want ErrInvalidCredentials", err)
	}
}

func TestListUsers(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"users": []map[string]string{
				{"id": "1", "email": "admin@example.com", "role": "ADMIN"},
				{"id": "2", "email": "john@example.com", "role": "user"},
			},
		})
	}))

	users, err := client.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("got %d users, want 2", len(users))
	}
	if users[0].Role != domain.RoleAdmin || users[1].Role != domain.RoleUser {
		t.Fatalf("roles not normalized: %v, %v", users[0].Role, users[1].Role)
	}
}
