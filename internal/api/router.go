package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/atelierlabs/atelier/internal/app"
	"github.com/atelierlabs/atelier/internal/handlers"
	"github.com/atelierlabs/atelier/internal/middleware"
	"github.com/atelierlabs/atelier/internal/services"
	"github.com/atelierlabs/atelier/internal/storage"
)

// Options carries the constructed dependencies the router wires together.
type Options struct {
	Config *app.Config
	DB     *gorm.DB

	Bridge      *services.IdentityBridge
	Invitations *services.InvitationService
	Portfolios  *services.PortfolioService
	Galleries   *services.GalleryService
	Commissions *services.CommissionService
	Links       *services.LinkService
	Signup      *services.SignupService
	Users       *services.UserAdminService

	// Uploads is optional; without it the uploads endpoint reports storage
	// as unavailable.
	Uploads *storage.ImagePipeline

	// RateStore backs the public-endpoint rate limiter. Nil disables limiting.
	RateStore middleware.RateStore
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if opts.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if opts.Bridge == nil {
		return nil, fmt.Errorf("identity bridge must be provided")
	}

	publicHandler, err := handlers.NewPublicHandler(opts.Portfolios, opts.Commissions)
	if err != nil {
		return nil, err
	}
	signupHandler, err := handlers.NewSignupHandler(opts.Invitations, opts.Signup)
	if err != nil {
		return nil, err
	}
	profileHandler, err := handlers.NewProfileHandler(opts.Portfolios)
	if err != nil {
		return nil, err
	}
	studioHandler, err := handlers.NewStudioHandler(opts.Portfolios, opts.Galleries, opts.Commissions, opts.Links, opts.Uploads)
	if err != nil {
		return nil, err
	}
	inviteAdminHandler, err := handlers.NewInvitationAdminHandler(opts.Invitations)
	if err != nil {
		return nil, err
	}
	userAdminHandler, err := handlers.NewUserAdminHandler(opts.Users, opts.Portfolios)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())

	// Health endpoint (public)
	r.GET("/health", handlers.Health(opts.DB))

	// Metrics endpoint
	if opts.Config.Monitoring.Prometheus.Enabled {
		endpoint := opts.Config.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// Token validation and signup completion are the enumeration-sensitive
	// endpoints; commission intake shares the same public budget.
	limited := middleware.RateLimit(opts.RateStore,
		opts.Config.RateLimit.PublicRequests,
		opts.Config.RateLimit.PublicWindow)

	public := r.Group("/api/public")
	{
		public.GET("/portfolios/:slug", publicHandler.GetPortfolio)
		public.POST("/portfolios/:slug/commissions", limited, publicHandler.SubmitCommission)
	}

	auth := r.Group("/api/auth")
	{
		auth.GET("/invitations/validate", limited, signupHandler.Validate)
		auth.POST("/signup/complete", limited, signupHandler.Complete)
	}

	// Protected routes
	requireAuth := middleware.Auth(opts.Config.Auth.JWT.Secret, opts.Bridge)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/me", profileHandler.Me)

	studio := api.Group("/studio")
	{
		studio.GET("/portfolio", studioHandler.GetPortfolio)
		studio.PATCH("/portfolio", studioHandler.UpdateBranding)
		studio.PUT("/portfolio/slug", studioHandler.UpdateSlug)

		studio.GET("/galleries", studioHandler.ListGalleries)
		studio.POST("/galleries", studioHandler.CreateGallery)
		studio.GET("/galleries/:galleryID", studioHandler.GetGallery)
		studio.PATCH("/galleries/:galleryID", studioHandler.UpdateGallery)
		studio.DELETE("/galleries/:galleryID", studioHandler.DeleteGallery)
		studio.POST("/galleries/:galleryID/items", studioHandler.AddGalleryItem)
		studio.PATCH("/galleries/:galleryID/items/:itemID", studioHandler.UpdateGalleryItem)
		studio.DELETE("/galleries/:galleryID/items/:itemID", studioHandler.DeleteGalleryItem)

		studio.GET("/prices", studioHandler.ListPrices)
		studio.POST("/prices", studioHandler.CreatePrice)
		studio.PATCH("/prices/:priceID", studioHandler.UpdatePrice)
		studio.DELETE("/prices/:priceID", studioHandler.DeletePrice)

		studio.GET("/commissions", studioHandler.ListCommissions)
		studio.PATCH("/commissions/:commissionID", studioHandler.UpdateCommissionStatus)

		studio.GET("/links", studioHandler.ListLinks)
		studio.POST("/links", studioHandler.CreateLink)
		studio.PATCH("/links/:linkID", studioHandler.UpdateLink)
		studio.DELETE("/links/:linkID", studioHandler.DeleteLink)

		studio.POST("/uploads", studioHandler.Upload)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.RequireSuperadmin())
	{
		admin.POST("/invitations", inviteAdminHandler.Create)
		admin.GET("/invitations", inviteAdminHandler.List)
		admin.POST("/invitations/:id/resend", inviteAdminHandler.Resend)
		admin.POST("/invitations/:id/revoke", inviteAdminHandler.Revoke)
		admin.DELETE("/invitations/:id", inviteAdminHandler.Delete)

		admin.GET("/users", userAdminHandler.List)
		admin.GET("/users/:id", userAdminHandler.Get)
		admin.PATCH("/users/:id", userAdminHandler.Patch)
		admin.DELETE("/users/:id", userAdminHandler.Delete)
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
