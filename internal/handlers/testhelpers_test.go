package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/atelierlabs/atelier/internal/database/testutil"
	"github.com/atelierlabs/atelier/internal/identity"
	"github.com/atelierlabs/atelier/internal/middleware"
	"github.com/atelierlabs/atelier/internal/models"
	"github.com/atelierlabs/atelier/internal/services"
)

const testSuperadminEmail = "admin@atelier.test"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	db          *gorm.DB
	clock       *testClock
	provider    *identity.MemoryProvider
	bridge      *services.IdentityBridge
	invitations *services.InvitationService
	portfolios  *services.PortfolioService
	galleries   *services.GalleryService
	commissions *services.CommissionService
	links       *services.LinkService
	signup      *services.SignupService
	users       *services.UserAdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t)
	clock := newTestClock()

	bridge, err := services.NewIdentityBridge(db, testSuperadminEmail)
	require.NoError(t, err)

	invitations, err := services.NewInvitationService(db, nil,
		services.WithInvitationBaseURL("https://atelier.test"),
		services.WithInvitationClock(clock.Now))
	require.NoError(t, err)

	portfolios, err := services.NewPortfolioService(db)
	require.NoError(t, err)
	galleries, err := services.NewGalleryService(db)
	require.NoError(t, err)
	commissions, err := services.NewCommissionService(db)
	require.NoError(t, err)
	links, err := services.NewLinkService(db)
	require.NoError(t, err)

	provider := identity.NewMemoryProvider()
	signup, err := services.NewSignupService(db, invitations, provider, bridge, portfolios)
	require.NoError(t, err)
	users, err := services.NewUserAdminService(db, provider, services.WithUserAdminClock(clock.Now))
	require.NoError(t, err)

	return &testEnv{
		db:          db,
		clock:       clock,
		provider:    provider,
		bridge:      bridge,
		invitations: invitations,
		portfolios:  portfolios,
		galleries:   galleries,
		commissions: commissions,
		links:       links,
		signup:      signup,
		users:       users,
	}
}

// seedArtist provisions a local artist account with its portfolio.
func (e *testEnv) seedArtist(t *testing.T, email string) *models.User {
	t.Helper()

	remote, err := e.provider.CreateUser(t.Context(), identity.CreateUserInput{
		Email:    email,
		Password: "sufficiently-long",
	})
	require.NoError(t, err)

	user, err := e.bridge.EnsureLocalUser(t.Context(), remote)
	require.NoError(t, err)

	_, err = e.portfolios.EnsureForUser(t.Context(), user)
	require.NoError(t, err)
	return user
}

// authAs injects the user into the request context the way middleware.Auth does.
func authAs(user *models.User, superadmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxUserKey, user)
		c.Set(middleware.CtxUserIDKey, user.ID)
		c.Set(middleware.CtxSuperadminKey, superadmin)
		c.Next()
	}
}

func commissionRequestFixture() services.RequestInput {
	return services.RequestInput{
		ClientName:  "Sam Client",
		ClientEmail: "sam@example.com",
		Message:     "Pet portrait please",
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}
