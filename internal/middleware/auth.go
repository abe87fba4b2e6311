package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/atelierlabs/atelier/internal/identity"
	"github.com/atelierlabs/atelier/internal/models"
	"github.com/atelierlabs/atelier/internal/services"
	apperrors "github.com/atelierlabs/atelier/pkg/errors"
	"github.com/atelierlabs/atelier/pkg/response"
)

const (
	CtxRemoteUserKey = "remoteUser"
	CtxUserKey       = "localUser"
	CtxUserIDKey     = "userID"
	CtxSuperadminKey = "isSuperadmin"
)

// AccessClaims is the JWT payload issued by the identity provider. The
// metadata shapes mirror identity.RemoteUser so role checks work on either
// representation.
type AccessClaims struct {
	jwt.RegisteredClaims

	Email        string                `json:"email"`
	UserMetadata identity.UserMetadata `json:"user_metadata"`
	AppMetadata  identity.AppMetadata  `json:"app_metadata"`
}

// ParseAccessToken verifies an HS256 bearer token and returns its claims.
func ParseAccessToken(secret, token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// RemoteUser converts the claims into the provider's account shape.
func (c *AccessClaims) RemoteUser() *identity.RemoteUser {
	return &identity.RemoteUser{
		ID:           c.Subject,
		Email:        c.Email,
		UserMetadata: c.UserMetadata,
		AppMetadata:  c.AppMetadata,
	}
}

// Auth authenticates the bearer token, mirrors the account into the local
// users table, and rejects deactivated or deleted accounts. The local user,
// remote user, and superadmin flag land in the request context.
func Auth(secret string, bridge *services.IdentityBridge) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := ParseAccessToken(secret, strings.TrimSpace(authz[7:]))
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		remote := claims.RemoteUser()
		user, err := bridge.EnsureLocalUser(c.Request.Context(), remote)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		switch user.Status {
		case models.UserDeactivated:
			response.Error(c, apperrors.New("ACCOUNT_DEACTIVATED", "Your account has been deactivated", http.StatusForbidden))
			c.Abort()
			return
		case models.UserDeleted:
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxRemoteUserKey, remote)
		c.Set(CtxUserKey, user)
		c.Set(CtxUserIDKey, user.ID)
		c.Set(CtxSuperadminKey, bridge.IsSuperAdmin(remote))

		c.Next()
	}
}

// RequireSuperadmin aborts unless Auth marked the caller as the superadmin.
func RequireSuperadmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxSuperadminKey) {
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated local user from the context.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, ok := c.Get(CtxUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}
