package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelierlabs/atelier/internal/middleware"
	"github.com/atelierlabs/atelier/internal/services"
	apperrors "github.com/atelierlabs/atelier/pkg/errors"
	"github.com/atelierlabs/atelier/pkg/response"
)

// InvitationAdminHandler serves the superadmin invitation surface. Unlike the
// public validate endpoint, failures here carry their specific cause.
type InvitationAdminHandler struct {
	invitations *services.InvitationService
}

// NewInvitationAdminHandler constructs an InvitationAdminHandler.
func NewInvitationAdminHandler(invitations *services.InvitationService) (*InvitationAdminHandler, error) {
	if invitations == nil {
		return nil, errors.New("invitation admin handler: invitation service is required")
	}
	return &InvitationAdminHandler{invitations: invitations}, nil
}

type createInvitationRequest struct {
	Email         string `json:"email" validate:"omitempty,email"`
	CustomMessage string `json:"custom_message" validate:"max=2000"`
}

type invitationCreated struct {
	Invitation any    `json:"invitation"`
	Token      string `json:"token,omitempty"`
	Link       string `json:"link,omitempty"`
}

// POST /api/admin/invitations
//
// The raw token is only ever returned here and from resend; it is never
// readable again once the admin closes the response.
func (h *InvitationAdminHandler) Create(c *gin.Context) {
	var body createInvitationRequest
	if !bindAndValidate(c, &body) {
		return
	}

	invite, token, link, err := h.invitations.Create(requestContext(c), services.CreateInvitationInput{
		Email:         body.Email,
		InvitedByID:   c.GetString(middleware.CtxUserIDKey),
		CustomMessage: body.CustomMessage,
	})
	if err != nil {
		response.Error(c, mapInvitationError(err))
		return
	}

	status := http.StatusCreated
	if token == "" {
		// An unexpired PENDING invitation already covers this email.
		status = http.StatusOK
	}
	response.Success(c, status, invitationCreated{Invitation: invite, Token: token, Link: link})
}

// GET /api/admin/invitations?status=
func (h *InvitationAdminHandler) List(c *gin.Context) {
	status := c.Query("status")
	if status == "" {
		pending, err := h.invitations.ListPending(requestContext(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, pending)
		return
	}

	invites, err := h.invitations.List(requestContext(c), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, invites)
}

// POST /api/admin/invitations/:id/resend
func (h *InvitationAdminHandler) Resend(c *gin.Context) {
	invite, token, link, err := h.invitations.Resend(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, mapInvitationError(err))
		return
	}
	response.Success(c, http.StatusCreated, invitationCreated{Invitation: invite, Token: token, Link: link})
}

// POST /api/admin/invitations/:id/revoke
func (h *InvitationAdminHandler) Revoke(c *gin.Context) {
	if err := h.invitations.Revoke(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, mapInvitationError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

// DELETE /api/admin/invitations/:id
func (h *InvitationAdminHandler) Delete(c *gin.Context) {
	if err := h.invitations.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, mapInvitationError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// mapInvitationError translates service sentinels into API errors with their
// specific causes intact for the admin surface.
func mapInvitationError(err error) error {
	switch {
	case errors.Is(err, services.ErrInvitationNotFound):
		return apperrors.New("INVITATION_NOT_FOUND", "Invitation not found", http.StatusNotFound)
	case errors.Is(err, services.ErrInvitationAlreadyUsed):
		return apperrors.New("INVITATION_ACCEPTED", "Invitation has already been accepted", http.StatusConflict)
	case errors.Is(err, services.ErrInvitationRevoked):
		return apperrors.New("INVITATION_REVOKED", "Invitation has been revoked", http.StatusConflict)
	case errors.Is(err, services.ErrInvitationExpired):
		return apperrors.New("INVITATION_EXPIRED", "Invitation has expired", http.StatusGone)
	default:
		return err
	}
}
