package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/atelierlabs/atelier/internal/models"
	"github.com/atelierlabs/atelier/internal/services"
)

func newUserAdminRouter(t *testing.T, env *testEnv, admin *models.User) *gin.Engine {
	t.Helper()

	handler, err := NewUserAdminHandler(env.users, env.portfolios)
	require.NoError(t, err)

	r := gin.New()
	group := r.Group("/api/admin/users", authAs(admin, true))
	{
		group.GET("", handler.List)
		group.GET("/:id", handler.Get)
		group.PATCH("/:id", handler.Patch)
		group.DELETE("/:id", handler.Delete)
	}
	return r
}

func TestAdminDeactivateAndActivateUser(t *testing.T) {
	env := newTestEnv(t)
	admin := seedAdmin(t, env)
	user := env.seedArtist(t, "jane@example.com")
	r := newUserAdminRouter(t, env, admin)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, adminRequest(http.MethodPatch, "/api/admin/users/"+user.ID, `{"action":"deactivate"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"DEACTIVATED"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, adminRequest(http.MethodPatch, "/api/admin/users/"+user.ID, `{"action":"activate"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ACTIVE"`)
}

func TestAdminPatchRejectsUnknownAction(t *testing.T) {
	env := newTestEnv(t)
	admin := seedAdmin(t, env)
	user := env.seedArtist(t, "jane@example.com")
	r := newUserAdminRouter(t, env, admin)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, adminRequest(http.MethodPatch, "/api/admin/users/"+user.ID, `{"action":"promote"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminDeleteUserLeavesTombstone(t *testing.T) {
	env := newTestEnv(t)
	admin := seedAdmin(t, env)
	user := env.seedArtist(t, "jane@example.com")
	r := newUserAdminRouter(t, env, admin)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, adminRequest(http.MethodDelete, "/api/admin/users/"+user.ID, ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.User
	require.NoError(t, env.db.First(&stored, "id = ?", user.ID).Error)
	require.Equal(t, models.UserDeleted, stored.Status)
	require.Empty(t, stored.Email)

	_, err := env.portfolios.GetByUserID(t.Context(), user.ID)
	require.ErrorIs(t, err, services.ErrPortfolioNotFound)
}

func TestAdminCannotTargetSelf(t *testing.T) {
	env := newTestEnv(t)
	admin := seedAdmin(t, env)
	r := newUserAdminRouter(t, env, admin)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, adminRequest(http.MethodDelete, "/api/admin/users/"+admin.ID, ""))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	require.Equal(t, "SELF_TARGET", body.Error.Code)
}
