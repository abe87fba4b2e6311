package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atelierlabs/atelier/internal/middleware"
	"github.com/atelierlabs/atelier/internal/models"
	"github.com/atelierlabs/atelier/internal/services"
	apperrors "github.com/atelierlabs/atelier/pkg/errors"
	"github.com/atelierlabs/atelier/pkg/response"
)

// UserAdminHandler serves the superadmin user-management surface.
type UserAdminHandler struct {
	users      *services.UserAdminService
	portfolios *services.PortfolioService
}

// NewUserAdminHandler constructs a UserAdminHandler.
func NewUserAdminHandler(users *services.UserAdminService, portfolios *services.PortfolioService) (*UserAdminHandler, error) {
	if users == nil {
		return nil, errors.New("user admin handler: user admin service is required")
	}
	if portfolios == nil {
		return nil, errors.New("user admin handler: portfolio service is required")
	}
	return &UserAdminHandler{users: users, portfolios: portfolios}, nil
}

// GET /api/admin/users
func (h *UserAdminHandler) List(c *gin.Context) {
	users, err := h.users.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

// GET /api/admin/users/:id
func (h *UserAdminHandler) Get(c *gin.Context) {
	user, err := h.users.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// DELETE /api/admin/users/:id
func (h *UserAdminHandler) Delete(c *gin.Context) {
	actorID := c.GetString(middleware.CtxUserIDKey)
	if err := h.users.Delete(requestContext(c), actorID, c.Param("id"), h.portfolios); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

type patchUserRequest struct {
	Action string `json:"action" validate:"required,oneof=deactivate activate update_role"`
	Role   string `json:"role" validate:"omitempty,oneof=user admin USER ADMIN"`
}

// PATCH /api/admin/users/:id {action: deactivate|activate|update_role}
func (h *UserAdminHandler) Patch(c *gin.Context) {
	var body patchUserRequest
	if !bindAndValidate(c, &body) {
		return
	}

	actorID := c.GetString(middleware.CtxUserIDKey)
	targetID := c.Param("id")
	ctx := requestContext(c)

	var (
		user *models.User
		err  error
	)
	switch body.Action {
	case "deactivate":
		user, err = h.users.Deactivate(ctx, actorID, targetID)
	case "activate":
		user, err = h.users.Activate(ctx, actorID, targetID)
	case "update_role":
		if body.Role == "" {
			response.Error(c, apperrors.NewBadRequest("role is required for update_role"))
			return
		}
		role := models.Role(strings.ToUpper(body.Role))
		user, err = h.users.UpdateRole(ctx, actorID, targetID, role)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}
