package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atelierlabs/atelier/internal/services"
	apperrors "github.com/atelierlabs/atelier/pkg/errors"
	"github.com/atelierlabs/atelier/pkg/metrics"
	"github.com/atelierlabs/atelier/pkg/response"
)

// errInvitationInvalid is the single failure shape the public surface exposes.
// Collapsing not-found, expired, revoked, and already-used into one message
// keeps the endpoint useless for probing which tokens exist.
var errInvitationInvalid = apperrors.New("INVITATION_INVALID", "This invitation link is invalid or has expired", http.StatusNotFound)

// SignupHandler serves the invitation-gated signup flow.
type SignupHandler struct {
	invitations *services.InvitationService
	signup      *services.SignupService
}

// NewSignupHandler constructs a SignupHandler.
func NewSignupHandler(invitations *services.InvitationService, signup *services.SignupService) (*SignupHandler, error) {
	if invitations == nil {
		return nil, errors.New("signup handler: invitation service is required")
	}
	if signup == nil {
		return nil, errors.New("signup handler: signup service is required")
	}
	return &SignupHandler{invitations: invitations, signup: signup}, nil
}

type invitationPreview struct {
	Email         string    `json:"email,omitempty"`
	CustomMessage string    `json:"custom_message,omitempty"`
	InvitedBy     string    `json:"invited_by,omitempty"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// GET /api/auth/invitations/validate?token=
func (h *SignupHandler) Validate(c *gin.Context) {
	invite, err := h.invitations.Validate(requestContext(c), c.Query("token"))
	if err != nil {
		metrics.InviteValidations.WithLabelValues(validationOutcome(err)).Inc()
		response.Error(c, collapseInvitationError(err))
		return
	}
	metrics.InviteValidations.WithLabelValues("valid").Inc()

	preview := invitationPreview{
		Email:         invite.Email,
		CustomMessage: invite.CustomMessage,
		ExpiresAt:     invite.ExpiresAt,
	}
	if invite.InvitedBy != nil {
		preview.InvitedBy = invite.InvitedBy.Name
	}
	response.Success(c, http.StatusOK, preview)
}

type completeSignupRequest struct {
	Token    string `json:"token" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"max=200"`
}

// POST /api/auth/signup/complete
func (h *SignupHandler) Complete(c *gin.Context) {
	var body completeSignupRequest
	if !bindAndValidate(c, &body) {
		return
	}

	result, err := h.signup.Complete(requestContext(c), services.CompleteSignupInput{
		Token:    body.Token,
		Email:    body.Email,
		Password: body.Password,
		FullName: body.FullName,
	})
	if err != nil {
		response.Error(c, collapseInvitationError(err))
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// collapseInvitationError maps every invitation-state failure onto the generic
// public message. Other errors pass through unchanged.
func collapseInvitationError(err error) error {
	switch {
	case errors.Is(err, services.ErrInvitationNotFound),
		errors.Is(err, services.ErrInvitationExpired),
		errors.Is(err, services.ErrInvitationRevoked),
		errors.Is(err, services.ErrInvitationAlreadyUsed):
		return errInvitationInvalid
	default:
		return err
	}
}

func validationOutcome(err error) string {
	switch {
	case errors.Is(err, services.ErrInvitationExpired):
		return "expired"
	case errors.Is(err, services.ErrInvitationRevoked):
		return "revoked"
	case errors.Is(err, services.ErrInvitationAlreadyUsed):
		return "already_used"
	default:
		return "not_found"
	}
}
