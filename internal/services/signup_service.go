package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atelierlabs/atelier/internal/identity"
	"github.com/atelierlabs/atelier/internal/models"
	apperrors "github.com/atelierlabs/atelier/pkg/errors"
	"github.com/atelierlabs/atelier/pkg/logger"
	"github.com/atelierlabs/atelier/pkg/metrics"
)

// ErrEmailRegistered surfaces a provider-side email conflict during signup.
var ErrEmailRegistered = apperrors.New("EMAIL_REGISTERED", "An account with this email already exists", http.StatusConflict)

// SignupService runs the invitation-gated signup flow: consume the token,
// provision the provider account, mirror it locally, and create the portfolio.
type SignupService struct {
	db          *gorm.DB
	invitations *InvitationService
	provider    identity.Provider
	bridge      *IdentityBridge
	portfolios  *PortfolioService
}

// NewSignupService constructs a SignupService.
func NewSignupService(
	db *gorm.DB,
	invitations *InvitationService,
	provider identity.Provider,
	bridge *IdentityBridge,
	portfolios *PortfolioService,
) (*SignupService, error) {
	if db == nil {
		return nil, errors.New("signup service: db is required")
	}
	if invitations == nil {
		return nil, errors.New("signup service: invitation service is required")
	}
	if provider == nil {
		return nil, errors.New("signup service: identity provider is required")
	}
	if bridge == nil {
		return nil, errors.New("signup service: identity bridge is required")
	}
	if portfolios == nil {
		return nil, errors.New("signup service: portfolio service is required")
	}
	return &SignupService{
		db:          db,
		invitations: invitations,
		provider:    provider,
		bridge:      bridge,
		portfolios:  portfolios,
	}, nil
}

// CompleteSignupInput carries the new artist's chosen credentials.
type CompleteSignupInput struct {
	Token    string
	Email    string
	Password string
	FullName string
}

// SignupResult is returned on successful account creation.
type SignupResult struct {
	User      *models.User      `json:"user"`
	Portfolio *models.Portfolio `json:"portfolio"`
}

// Complete consumes the invitation token and provisions the account end to end.
// The token is consumed first so it can never be spent twice; if provisioning
// then fails, the consumption is compensated by restoring the invitation to
// PENDING so the invitee can retry with the same link.
func (s *SignupService) Complete(ctx context.Context, input CompleteSignupInput) (*SignupResult, error) {
	ctx = ensureContext(ctx)

	email := normaliseEmail(input.Email)
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewBadRequest("password must be at least 8 characters")
	}

	invite, err := s.invitations.Consume(ctx, input.Token)
	if err != nil {
		metrics.SignupCompletions.WithLabelValues("failure").Inc()
		return nil, err
	}

	// An email-bound invitation only admits the invited address.
	if invite.Email != "" && invite.Email != email {
		s.restoreInvitation(ctx, invite.ID)
		metrics.SignupCompletions.WithLabelValues("failure").Inc()
		return nil, apperrors.NewBadRequest("email does not match the invitation")
	}

	remote, err := s.provider.CreateUser(ctx, identity.CreateUserInput{
		Email:    email,
		Password: input.Password,
		FullName: strings.TrimSpace(input.FullName),
	})
	if err != nil {
		s.restoreInvitation(ctx, invite.ID)
		metrics.SignupCompletions.WithLabelValues("failure").Inc()
		if errors.Is(err, identity.ErrEmailTaken) {
			return nil, ErrEmailRegistered
		}
		return nil, fmt.Errorf("signup service: create provider account: %w", err)
	}

	user, err := s.bridge.EnsureLocalUser(ctx, remote)
	if err != nil {
		s.compensate(ctx, invite.ID, remote.ID)
		metrics.SignupCompletions.WithLabelValues("failure").Inc()
		return nil, err
	}

	portfolio, err := s.portfolios.EnsureForUser(ctx, user)
	if err != nil {
		s.compensate(ctx, invite.ID, remote.ID)
		metrics.SignupCompletions.WithLabelValues("failure").Inc()
		return nil, err
	}

	metrics.SignupCompletions.WithLabelValues("success").Inc()
	return &SignupResult{User: user, Portfolio: portfolio}, nil
}

// restoreInvitation flips a just-consumed invitation back to PENDING. The
// conditional update only touches rows this flow accepted, so a genuinely
// accepted invitation from another signup is never reopened.
func (s *SignupService) restoreInvitation(ctx context.Context, id string) {
	err := s.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("id = ? AND status = ?", id, models.InvitationAccepted).
		Updates(map[string]any{
			"status":      models.InvitationPending,
			"accepted_at": nil,
		}).Error
	if err != nil {
		logger.WithModule("signup").Error("failed to restore invitation after aborted signup",
			zap.String("invitation_id", id),
			zap.Error(err))
	}
}

func (s *SignupService) compensate(ctx context.Context, inviteID, remoteID string) {
	s.restoreInvitation(ctx, inviteID)
	if err := s.provider.DeleteUser(ctx, remoteID); err != nil && !errors.Is(err, identity.ErrUserNotFound) {
		logger.WithModule("signup").Error("failed to remove provider account after aborted signup",
			zap.String("user_id", remoteID),
			zap.Error(err))
	}
}
