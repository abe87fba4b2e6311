package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/atelierlabs/atelier/internal/models"
	"github.com/atelierlabs/atelier/internal/services"
)

func newInvitationAdminRouter(t *testing.T, env *testEnv, admin *models.User) *gin.Engine {
	t.Helper()

	handler, err := NewInvitationAdminHandler(env.invitations)
	require.NoError(t, err)

	r := gin.New()
	group := r.Group("/api/admin/invitations", authAs(admin, true))
	{
		group.POST("", handler.Create)
		group.GET("", handler.List)
		group.POST("/:id/resend", handler.Resend)
		group.POST("/:id/revoke", handler.Revoke)
		group.DELETE("/:id", handler.Delete)
	}
	return r
}

func seedAdmin(t *testing.T, env *testEnv) *models.User {
	t.Helper()

	admin := &models.User{ID: "admin-1", Email: testSuperadminEmail, Name: "Admin", Role: models.RoleAdmin}
	require.NoError(t, env.db.Create(admin).Error)
	return admin
}

func adminRequest(method, target, payload string) *http.Request {
	var req *http.Request
	if payload == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func TestAdminCreateInvitationReturnsTokenOnce(t *testing.T) {
	env := newTestEnv(t)
	admin := seedAdmin(t, env)
	r := newInvitationAdminRouter(t, env, admin)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, adminRequest(http.MethodPost, "/api/admin/invitations", `{"email":"jane@example.com"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), "https://atelier.test/signup?token=")

	// A second invite for the same address reports the existing record, no token.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, adminRequest(http.MethodPost, "/api/admin/invitations", `{"email":"jane@example.com"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "signup?token=")

	var count int64
	require.NoError(t, env.db.Model(&models.Invitation{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestAdminResendRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	admin := seedAdmin(t, env)
	r := newInvitationAdminRouter(t, env, admin)

	invite, oldToken, _, err := env.invitations.Create(t.Context(), services.CreateInvitationInput{Email: "jane@example.com"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, adminRequest(http.MethodPost, "/api/admin/invitations/"+invite.ID+"/resend", ""))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), "signup?token=")
	require.NotContains(t, rec.Body.String(), oldToken)

	_, err = env.invitations.Validate(t.Context(), oldToken)
	require.ErrorIs(t, err, services.ErrInvitationRevoked)
}

func TestAdminListPendingShowsComputedFields(t *testing.T) {
	env := newTestEnv(t)
	admin := seedAdmin(t, env)
	r := newInvitationAdminRouter(t, env, admin)

	_, _, _, err := env.invitations.Create(t.Context(), services.CreateInvitationInput{Email: "jane@example.com"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, adminRequest(http.MethodGet, "/api/admin/invitations", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"days_remaining":7`)
	require.Contains(t, rec.Body.String(), `"is_expired":false`)
}

func TestAdminCannotDeleteAcceptedInvitation(t *testing.T) {
	env := newTestEnv(t)
	admin := seedAdmin(t, env)
	r := newInvitationAdminRouter(t, env, admin)

	invite, token, _, err := env.invitations.Create(t.Context(), services.CreateInvitationInput{Email: "jane@example.com"})
	require.NoError(t, err)
	_, err = env.invitations.Consume(t.Context(), token)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, adminRequest(http.MethodDelete, "/api/admin/invitations/"+invite.ID, ""))

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeEnvelope(t, rec)
	require.Equal(t, "INVITATION_ACCEPTED", body.Error.Code)
}
