package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelierlabs/atelier/internal/middleware"
	"github.com/atelierlabs/atelier/internal/models"
	"github.com/atelierlabs/atelier/internal/services"
	apperrors "github.com/atelierlabs/atelier/pkg/errors"
	"github.com/atelierlabs/atelier/pkg/response"
)

// ProfileHandler serves the authenticated account view.
type ProfileHandler struct {
	portfolios *services.PortfolioService
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(portfolios *services.PortfolioService) (*ProfileHandler, error) {
	if portfolios == nil {
		return nil, errors.New("profile handler: portfolio service is required")
	}
	return &ProfileHandler{portfolios: portfolios}, nil
}

type profilePayload struct {
	User       *models.User      `json:"user"`
	Portfolio  *models.Portfolio `json:"portfolio,omitempty"`
	Superadmin bool              `json:"superadmin"`
}

// GET /api/me
//
// The first authenticated request from an artist is also what creates their
// portfolio, so the ensure call runs here rather than in a signup hook.
func (h *ProfileHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	payload := profilePayload{
		User:       user,
		Superadmin: c.GetBool(middleware.CtxSuperadminKey),
	}

	if user.Role != models.RoleAdmin {
		portfolio, err := h.portfolios.EnsureForUser(requestContext(c), user)
		if err != nil {
			response.Error(c, err)
			return
		}
		payload.Portfolio = portfolio
	}

	response.Success(c, http.StatusOK, payload)
}
