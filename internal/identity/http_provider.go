package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPConfig configures the admin client for a GoTrue-compatible provider.
type HTTPConfig struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
}

// HTTPProvider talks to the hosted identity provider's admin endpoints.
type HTTPProvider struct {
	client *resty.Client
}

// NewHTTPProvider validates the configuration and builds the admin client.
func NewHTTPProvider(cfg HTTPConfig) (*HTTPProvider, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("identity: provider base url is required")
	}
	if strings.TrimSpace(cfg.ServiceKey) == "" {
		return nil, errors.New("identity: provider service key is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.ServiceKey).
		SetHeader("Accept", "application/json")

	return &HTTPProvider{client: client}, nil
}

type providerErrorBody struct {
	Message string `json:"msg"`
	Error   string `json:"error"`
}

// GetUser fetches the provider account by id.
func (p *HTTPProvider) GetUser(ctx context.Context, id string) (*RemoteUser, error) {
	var user RemoteUser
	resp, err := p.client.R().
		SetContext(ctx).
		SetResult(&user).
		Get("/admin/users/" + id)
	if err != nil {
		return nil, fmt.Errorf("identity: get user: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("identity: get user: provider returned %d", resp.StatusCode())
	}
	return &user, nil
}

// CreateUser provisions a confirmed account with the provider.
func (p *HTTPProvider) CreateUser(ctx context.Context, input CreateUserInput) (*RemoteUser, error) {
	body := map[string]any{
		"email":         strings.ToLower(strings.TrimSpace(input.Email)),
		"password":      input.Password,
		"email_confirm": true,
		"user_metadata": map[string]any{"full_name": strings.TrimSpace(input.FullName)},
	}
	if input.Admin {
		body["app_metadata"] = map[string]any{"roles": []string{"admin"}}
	}

	var user RemoteUser
	var errBody providerErrorBody
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&user).
		SetError(&errBody).
		Post("/admin/users")
	if err != nil {
		return nil, fmt.Errorf("identity: create user: %w", err)
	}
	if resp.StatusCode() == http.StatusUnprocessableEntity || resp.StatusCode() == http.StatusConflict {
		return nil, ErrEmailTaken
	}
	if resp.IsError() {
		return nil, fmt.Errorf("identity: create user: provider returned %d: %s", resp.StatusCode(), errBody.Message)
	}
	return &user, nil
}

// DeleteUser removes the provider account.
func (p *HTTPProvider) DeleteUser(ctx context.Context, id string) error {
	resp, err := p.client.R().
		SetContext(ctx).
		Delete("/admin/users/" + id)
	if err != nil {
		return fmt.Errorf("identity: delete user: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ErrUserNotFound
	}
	if resp.IsError() {
		return fmt.Errorf("identity: delete user: provider returned %d", resp.StatusCode())
	}
	return nil
}

// SetBanned toggles the provider-side ban flag. GoTrue models bans as a
// duration; "none" lifts the ban.
func (p *HTTPProvider) SetBanned(ctx context.Context, id string, banned bool) error {
	duration := "none"
	if banned {
		duration = "87600h" // effectively permanent
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"ban_duration": duration}).
		Put("/admin/users/" + id)
	if err != nil {
		return fmt.Errorf("identity: set banned: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ErrUserNotFound
	}
	if resp.IsError() {
		return fmt.Errorf("identity: set banned: provider returned %d", resp.StatusCode())
	}
	return nil
}

// SetRole overwrites the app-level role metadata. All three metadata shapes
// are written so downstream readers agree regardless of which one they check.
func (p *HTTPProvider) SetRole(ctx context.Context, id, role string) error {
	role = strings.ToLower(strings.TrimSpace(role))

	meta := map[string]any{
		"role":     role,
		"is_admin": role == "admin",
	}
	if role == "admin" {
		meta["roles"] = []string{"admin"}
	} else {
		meta["roles"] = []string{}
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"app_metadata": meta}).
		Put("/admin/users/" + id)
	if err != nil {
		return fmt.Errorf("identity: set role: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ErrUserNotFound
	}
	if resp.IsError() {
		return fmt.Errorf("identity: set role: provider returned %d", resp.StatusCode())
	}
	return nil
}
