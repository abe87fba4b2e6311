package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/atelierlabs/atelier/internal/identity"
	"github.com/atelierlabs/atelier/internal/models"
)

// IdentityBridge reconciles remote identity-provider accounts with local User
// rows and classifies privilege levels. The superadmin email is injected at
// construction; there is no global.
type IdentityBridge struct {
	db              *gorm.DB
	superadminEmail string
}

// NewIdentityBridge constructs the bridge.
func NewIdentityBridge(db *gorm.DB, superadminEmail string) (*IdentityBridge, error) {
	if db == nil {
		return nil, errors.New("identity bridge: db is required")
	}
	return &IdentityBridge{
		db:              db,
		superadminEmail: normaliseEmail(superadminEmail),
	}, nil
}

// EnsureLocalUser upserts the local mirror of a remote account. Derived fields
// are fully overwritten from the remote record on every call, which makes the
// operation idempotent and safe to run per request without read-modify-write
// races. Portfolio provisioning is a separate caller-level flow.
func (b *IdentityBridge) EnsureLocalUser(ctx context.Context, remote *identity.RemoteUser) (*models.User, error) {
	ctx = ensureContext(ctx)
	if remote == nil || strings.TrimSpace(remote.ID) == "" {
		return nil, errors.New("identity bridge: remote user is required")
	}

	// The local role mirrors the provider's admin metadata, so a promotion via
	// the admin surface survives the next sign-in; the superadmin email is
	// always ADMIN even before its provider metadata says so.
	email := normaliseEmail(remote.Email)
	role := models.RoleUser
	if identity.IsAdmin(remote) || b.isSuperadminEmail(email) {
		role = models.RoleAdmin
	}

	user := models.User{
		ID:    remote.ID,
		Email: email,
		Name:  identity.DisplayName(remote),
		Role:  role,
	}

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.First(&existing, "id = ?", remote.ID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user.Status = models.UserActive
			return tx.Create(&user).Error
		case err != nil:
			return err
		}

		// Soft-deleted users keep their tombstone; status and deactivation
		// survive the overwrite of derived fields.
		user.Status = existing.Status
		user.DeactivatedAt = existing.DeactivatedAt
		user.CreatedAt = existing.CreatedAt
		if existing.Status == models.UserDeleted {
			user.Email = existing.Email
		}
		return tx.Model(&models.User{}).Where("id = ?", remote.ID).Updates(map[string]any{
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("identity bridge: ensure user: %w", err)
	}

	return &user, nil
}

// IsSuperAdmin reports whether the remote account is the single designated
// superadmin: admin metadata plus a case-insensitive email match.
func (b *IdentityBridge) IsSuperAdmin(remote *identity.RemoteUser) bool {
	if remote == nil {
		return false
	}
	return identity.IsAdmin(remote) && b.isSuperadminEmail(normaliseEmail(remote.Email))
}

func (b *IdentityBridge) isSuperadminEmail(email string) bool {
	return b.superadminEmail != "" && email == b.superadminEmail
}
