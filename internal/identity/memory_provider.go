package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/atelierlabs/atelier/pkg/crypto"
)

// MemoryProvider is an in-process Provider used in development mode and tests.
// Passwords are bcrypt-hashed so the dev-mode login path behaves like the real
// provider.
type MemoryProvider struct {
	mu        sync.RWMutex
	users     map[string]*RemoteUser
	passwords map[string]string
}

// NewMemoryProvider returns an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		users:     make(map[string]*RemoteUser),
		passwords: make(map[string]string),
	}
}

// GetUser returns a copy of the stored account.
func (p *MemoryProvider) GetUser(ctx context.Context, id string) (*RemoteUser, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	user, ok := p.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cpy := *user
	return &cpy, nil
}

// CreateUser registers a new account, enforcing email uniqueness.
func (p *MemoryProvider) CreateUser(ctx context.Context, input CreateUserInput) (*RemoteUser, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, existing := range p.users {
		if strings.EqualFold(existing.Email, email) {
			return nil, ErrEmailTaken
		}
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &RemoteUser{
		ID:           uuid.NewString(),
		Email:        email,
		UserMetadata: UserMetadata{FullName: strings.TrimSpace(input.FullName)},
	}
	if input.Admin {
		user.AppMetadata = AppMetadata{Roles: []string{"admin"}, Role: "admin", IsAdmin: true}
	}

	p.users[user.ID] = user
	p.passwords[user.ID] = hashed

	cpy := *user
	return &cpy, nil
}

// DeleteUser removes the account.
func (p *MemoryProvider) DeleteUser(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(p.users, id)
	delete(p.passwords, id)
	return nil
}

// SetBanned toggles the ban flag.
func (p *MemoryProvider) SetBanned(ctx context.Context, id string, banned bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	user, ok := p.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.Banned = banned
	return nil
}

// SetRole overwrites all role metadata shapes.
func (p *MemoryProvider) SetRole(ctx context.Context, id, role string) error {
	role = strings.ToLower(strings.TrimSpace(role))

	p.mu.Lock()
	defer p.mu.Unlock()

	user, ok := p.users[id]
	if !ok {
		return ErrUserNotFound
	}

	if role == "admin" {
		user.AppMetadata = AppMetadata{Roles: []string{"admin"}, Role: "admin", IsAdmin: true}
	} else {
		user.AppMetadata = AppMetadata{Role: role}
	}
	return nil
}

// VerifyPassword checks dev-mode credentials by email.
func (p *MemoryProvider) VerifyPassword(email, password string) (*RemoteUser, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for id, user := range p.users {
		if strings.EqualFold(user.Email, strings.TrimSpace(email)) {
			if crypto.VerifyPassword(p.passwords[id], password) {
				cpy := *user
				return &cpy, true
			}
			return nil, false
		}
	}
	return nil, false
}
