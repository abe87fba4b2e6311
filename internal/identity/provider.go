package identity

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUserNotFound indicates the provider has no account with the given id.
	ErrUserNotFound = errors.New("identity: user not found")
	// ErrEmailTaken indicates an account already exists for the email address.
	ErrEmailTaken = errors.New("identity: email already registered")
)

// UserMetadata carries profile fields the account holder controls.
type UserMetadata struct {
	FullName string `json:"full_name,omitempty"`
	Name     string `json:"name,omitempty"`
}

// AppMetadata carries role information set by privileged code paths. Roles can
// be populated through several shapes depending on which path wrote them, so
// readers must check all three.
type AppMetadata struct {
	Roles   []string `json:"roles,omitempty"`
	Role    string   `json:"role,omitempty"`
	IsAdmin bool     `json:"is_admin,omitempty"`
}

// RemoteUser is the provider's view of an account.
type RemoteUser struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata"`
	AppMetadata  AppMetadata  `json:"app_metadata"`
	Banned       bool         `json:"banned"`
}

// CreateUserInput is the payload for provisioning a provider account.
type CreateUserInput struct {
	Email    string
	Password string
	FullName string
	Admin    bool
}

// Provider abstracts the external identity provider's admin API.
type Provider interface {
	GetUser(ctx context.Context, id string) (*RemoteUser, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*RemoteUser, error)
	DeleteUser(ctx context.Context, id string) error
	SetBanned(ctx context.Context, id string, banned bool) error
	SetRole(ctx context.Context, id, role string) error
}

// IsAdmin reports whether any of the provider's role metadata shapes marks the
// account as an administrator.
func IsAdmin(u *RemoteUser) bool {
	if u == nil {
		return false
	}
	for _, role := range u.AppMetadata.Roles {
		if strings.EqualFold(strings.TrimSpace(role), "admin") {
			return true
		}
	}
	if strings.EqualFold(strings.TrimSpace(u.AppMetadata.Role), "admin") {
		return true
	}
	return u.AppMetadata.IsAdmin
}

// DisplayName resolves the best available human name for the account,
// falling back through full_name, name, the email local part, and "Artist".
func DisplayName(u *RemoteUser) string {
	if u == nil {
		return "Artist"
	}
	if name := strings.TrimSpace(u.UserMetadata.FullName); name != "" {
		return name
	}
	if name := strings.TrimSpace(u.UserMetadata.Name); name != "" {
		return name
	}
	if email := strings.TrimSpace(u.Email); email != "" {
		if at := strings.Index(email, "@"); at > 0 {
			return email[:at]
		}
		return email
	}
	return "Artist"
}
