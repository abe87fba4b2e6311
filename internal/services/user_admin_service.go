package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atelierlabs/atelier/internal/identity"
	"github.com/atelierlabs/atelier/internal/models"
	apperrors "github.com/atelierlabs/atelier/pkg/errors"
	"github.com/atelierlabs/atelier/pkg/logger"
)

var (
	// ErrUserNotFound indicates no local user matches the id.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrSelfTarget rejects destructive admin actions aimed at the caller's own account.
	ErrSelfTarget = apperrors.New("SELF_TARGET", "You cannot perform this action on your own account", http.StatusBadRequest)
	// ErrUserDeleted rejects operations on accounts that were already removed.
	ErrUserDeleted = apperrors.New("USER_DELETED", "User has been deleted", http.StatusGone)
)

// UserAdminService implements the superadmin user-management surface. Actions
// that change account standing are mirrored to the identity provider so the
// remote session state matches the local record.
type UserAdminService struct {
	db       *gorm.DB
	provider identity.Provider
	now      func() time.Time
}

// UserAdminOption customises UserAdminService behaviour.
type UserAdminOption func(*UserAdminService)

// WithUserAdminClock injects a custom clock primarily for testing.
func WithUserAdminClock(clock func() time.Time) UserAdminOption {
	return func(s *UserAdminService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewUserAdminService constructs a UserAdminService.
func NewUserAdminService(db *gorm.DB, provider identity.Provider, opts ...UserAdminOption) (*UserAdminService, error) {
	if db == nil {
		return nil, errors.New("user admin service: db is required")
	}
	if provider == nil {
		return nil, errors.New("user admin service: identity provider is required")
	}

	service := &UserAdminService{
		db:       db,
		provider: provider,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// List returns all local users ordered by creation time, portfolios included.
func (s *UserAdminService) List(ctx context.Context) ([]models.User, error) {
	ctx = ensureContext(ctx)

	var users []models.User
	err := s.db.WithContext(ctx).
		Preload("Portfolio").
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("user admin service: list: %w", err)
	}
	return users, nil
}

// Get loads one user with portfolio.
func (s *UserAdminService) Get(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Preload("Portfolio").First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user admin service: get: %w", err)
	}
	return &user, nil
}

// Deactivate suspends a user: the local status flips to DEACTIVATED and the
// provider account is banned so existing sessions stop authenticating. The
// portfolio stays in place but the ownership check in the middleware rejects
// deactivated accounts.
func (s *UserAdminService) Deactivate(ctx context.Context, actorID, targetID string) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.targetForAction(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if user.Status == models.UserDeactivated {
		return user, nil
	}

	// Update through a fresh model: user carries the preloaded portfolio and a
	// Model(user).Updates call would upsert the association alongside the row.
	now := s.now()
	err = s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"status":         models.UserDeactivated,
		"deactivated_at": now,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("user admin service: deactivate: %w", err)
	}
	user.Status = models.UserDeactivated
	user.DeactivatedAt = &now

	if err := s.provider.SetBanned(ctx, user.ID, true); err != nil {
		// The local flag already blocks access; log and keep going.
		logger.WithModule("users").Warn("failed to ban provider account",
			zap.String("user_id", user.ID),
			zap.Error(err))
	}
	return user, nil
}

// Activate reverses a deactivation.
func (s *UserAdminService) Activate(ctx context.Context, actorID, targetID string) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.targetForAction(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if user.Status == models.UserActive {
		return user, nil
	}

	err = s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"status":         models.UserActive,
		"deactivated_at": nil,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("user admin service: activate: %w", err)
	}
	user.Status = models.UserActive
	user.DeactivatedAt = nil

	if err := s.provider.SetBanned(ctx, user.ID, false); err != nil {
		return nil, fmt.Errorf("user admin service: unban provider account: %w", err)
	}
	return user, nil
}

// Delete removes an account: the provider record is deleted, the portfolio and
// its content go through cascade deletes, and the local row stays behind as a
// DELETED tombstone with the email cleared so invitation history keeps a valid
// inviter reference without retaining the address.
func (s *UserAdminService) Delete(ctx context.Context, actorID, targetID string, portfolios *PortfolioService) error {
	ctx = ensureContext(ctx)

	user, err := s.targetForAction(ctx, actorID, targetID)
	if err != nil {
		return err
	}

	if err := s.provider.DeleteUser(ctx, user.ID); err != nil && !errors.Is(err, identity.ErrUserNotFound) {
		return fmt.Errorf("user admin service: delete provider account: %w", err)
	}

	if portfolios != nil {
		portfolio, err := portfolios.GetByUserID(ctx, user.ID)
		switch {
		case err == nil:
			if err := portfolios.Delete(ctx, portfolio.ID); err != nil {
				return fmt.Errorf("user admin service: delete portfolio: %w", err)
			}
		case !errors.Is(err, ErrPortfolioNotFound):
			return err
		}
	}

	now := s.now()
	err = s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"status":         models.UserDeleted,
		"deactivated_at": now,
		"email":          "",
	}).Error
	if err != nil {
		return fmt.Errorf("user admin service: tombstone: %w", err)
	}
	return nil
}

// UpdateRole changes the provider-side role metadata and the local mirror.
func (s *UserAdminService) UpdateRole(ctx context.Context, actorID, targetID string, role models.Role) (*models.User, error) {
	ctx = ensureContext(ctx)

	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, apperrors.NewBadRequest("invalid role")
	}

	user, err := s.targetForAction(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}

	providerRole := "user"
	if role == models.RoleAdmin {
		providerRole = "admin"
	}
	if err := s.provider.SetRole(ctx, user.ID, providerRole); err != nil {
		return nil, fmt.Errorf("user admin service: set provider role: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("user admin service: update role: %w", err)
	}
	user.Role = role
	return user, nil
}

func (s *UserAdminService) targetForAction(ctx context.Context, actorID, targetID string) (*models.User, error) {
	if actorID != "" && actorID == targetID {
		return nil, ErrSelfTarget
	}

	user, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if user.IsDeleted() {
		return nil, ErrUserDeleted
	}
	return user, nil
}
