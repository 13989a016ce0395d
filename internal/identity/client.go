package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storepulse/storepulse/internal/domain"
)

// ErrDuplicateEmail is returned when the collaborator already knows the email.
var ErrDuplicateEmail = errors.New("identity: email already registered")

// SignupParams carries the fields required to register a regular user.
// The collaborator assigns the USER role; callers cannot choose one.
type SignupParams struct {
	Name     string
	Email    string
	Address  string
	Password string
}

// Client defines the contract for the external identity collaborator. The
// collaborator owns users and credentials; this service only references them.
type Client interface {
	Login(ctx context.Context, email, password string) (domain.User, error)
	Signup(ctx context.Context, params SignupParams) (domain.User, error)
	ChangePassword(ctx context.Context, userID, newPassword string) error
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient constructs a new HTTP-backed identity client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse identity url: %w", err)
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

type userPayload struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Role    string `json:"role"`
	StoreID string `json:"storeId,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

type passwordRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

type userResponse struct {
	User userPayload `json:"user"`
}

type usersResponse struct {
	Users []userPayload `json:"users"`
}

// Login verifies credentials with the collaborator and returns the resolved
// user. A collaborator 401 maps to domain.ErrInvalidCredentials; transport
// failures are surfaced verbatim, never retried here.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (domain.User, error) {
	resp, err := c.post(ctx, "/auth/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return domain.User{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload userResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return domain.User{}, fmt.Errorf("decode login response: %w", err)
		}
		return convertUser(payload.User), nil
	case http.StatusUnauthorized:
		return domain.User{}, domain.ErrInvalidCredentials
	default:
		c.logger.Warn("identity: unexpected login status", zap.Int("status", resp.StatusCode))
		return domain.User{}, fmt.Errorf("identity: upstream returned %d", resp.StatusCode)
	}
}

// Signup registers a new regular user with the collaborator.
func (c *HTTPClient) Signup(ctx context.Context, params SignupParams) (domain.User, error) {
	resp, err := c.post(ctx, "/auth/signup", signupRequest{
		Name:     params.Name,
		Email:    params.Email,
		Address:  params.Address,
		Password: params.Password,
	})
	if err != nil {
		return domain.User{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var payload userResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return domain.User{}, fmt.Errorf("decode signup response: %w", err)
		}
		return convertUser(payload.User), nil
	case http.StatusConflict:
		return domain.User{}, ErrDuplicateEmail
	default:
		c.logger.Warn("identity: unexpected signup status", zap.Int("status", resp.StatusCode))
		return domain.User{}, fmt.Errorf("identity: upstream returned %d", resp.StatusCode)
	}
}

// ChangePassword updates the stored credential for a user.
func (c *HTTPClient) ChangePassword(ctx context.Context, userID, newPassword string) error {
	resp, err := c.post(ctx, "/auth/password", passwordRequest{UserID: userID, Password: newPassword})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return domain.ErrInvalidCredentials
	default:
		c.logger.Warn("identity: unexpected password status", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("identity: upstream returned %d", resp.StatusCode)
	}
}

// ListUsers retrieves every user known to the collaborator.
func (c *HTTPClient) ListUsers(ctx context.Context) ([]domain.User, error) {
	endpoint := c.baseURL.ResolveReference(&url.URL{Path: "/users"})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("identity: unexpected users status", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("identity: upstream returned %d", resp.StatusCode)
	}

	var payload usersResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode users response: %w", err)
	}

	users := make([]domain.User, 0, len(payload.Users))
	for _, u := range payload.Users {
		users = append(users, convertUser(u))
	}
	return users, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	endpoint := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.client.Do(req)
}

func convertUser(p userPayload) domain.User {
	return domain.User{
		ID:      p.ID,
		Name:    p.Name,
		Email:   p.Email,
		Address: p.Address,
		Role:    domain.ParseRole(p.Role),
		StoreID: p.StoreID,
	}
}
