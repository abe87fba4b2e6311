package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/atelierlabs/atelier/internal/database/testutil"
	"github.com/atelierlabs/atelier/internal/identity"
	"github.com/atelierlabs/atelier/internal/models"
	"github.com/atelierlabs/atelier/internal/services"
)

const testSecret = "test-secret"

func identityAdminMetadata() identity.AppMetadata {
	return identity.AppMetadata{Roles: []string{"admin"}}
}

func signToken(t *testing.T, claims AccessClaims) string {
	t.Helper()

	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newAuthRouter(t *testing.T) (*gin.Engine, *services.IdentityBridge) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t)
	bridge, err := services.NewIdentityBridge(db, "admin@atelier.test")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", Auth(testSecret, bridge), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "superadmin": c.GetBool(CtxSuperadminKey)})
	})
	r.GET("/admin", Auth(testSecret, bridge), RequireSuperadmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, bridge
}

func TestAuthRejectsMissingOrMalformedHeader(t *testing.T) {
	r, _ := newAuthRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsBadSignatureAndExpiry(t *testing.T) {
	r, _ := newAuthRouter(t)

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "11111111-1111-1111-1111-111111111111"},
		Email:            "jane@example.com",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	expired := signToken(t, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "11111111-1111-1111-1111-111111111111",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		Email: "jane@example.com",
	})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMirrorsUserIntoContext(t *testing.T) {
	r, _ := newAuthRouter(t)

	token := signToken(t, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "11111111-1111-1111-1111-111111111111"},
		Email:            "jane@example.com",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "11111111-1111-1111-1111-111111111111")
	require.Contains(t, w.Body.String(), `"superadmin":false`)
}

func TestAuthBlocksDeactivatedUsers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.MustOpenTestDB(t)
	bridge, err := services.NewIdentityBridge(db, "admin@atelier.test")
	require.NoError(t, err)

	user := models.User{
		ID:     "22222222-2222-2222-2222-222222222222",
		Email:  "jane@example.com",
		Status: models.UserDeactivated,
	}
	require.NoError(t, db.Create(&user).Error)

	r := gin.New()
	r.GET("/me", Auth(testSecret, bridge), func(c *gin.Context) { c.Status(http.StatusOK) })

	token := signToken(t, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID},
		Email:            user.Email,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireSuperadmin(t *testing.T) {
	r, _ := newAuthRouter(t)

	// Admin metadata alone is not enough; the email must match too.
	wrongEmail := signToken(t, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "33333333-3333-3333-3333-333333333333"},
		Email:            "pretender@example.com",
		AppMetadata:      identityAdminMetadata(),
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+wrongEmail)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	superadmin := signToken(t, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "44444444-4444-4444-4444-444444444444"},
		Email:            "admin@atelier.test",
		AppMetadata:      identityAdminMetadata(),
	})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+superadmin)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
