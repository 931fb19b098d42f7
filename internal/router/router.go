package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/youth-sports-api/internal/handler"
	"github.com/noah-isme/youth-sports-api/internal/middleware"
	"github.com/noah-isme/youth-sports-api/internal/models"
	"github.com/noah-isme/youth-sports-api/internal/service"
	"github.com/noah-isme/youth-sports-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/youth-sports-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/youth-sports-api/pkg/middleware/requestid"
)

// Options carries the cross-cutting pieces the router needs.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Tokens         middleware.TokenValidator
	Metrics        *service.MetricsService
	Logger         *zap.Logger
}

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Auth         *handler.AuthHandler
	Registration *handler.RegistrationHandler
	Teams        *handler.TeamHandler
	Coupons      *handler.CouponHandler
	Payments     *handler.PaymentHandler
	Dashboard    *handler.DashboardHandler
	Enrollments  *handler.EnrollmentHandler
	Documents    *handler.DocumentHandler
	Outreach     *handler.OutreachHandler
	Campaigns    *handler.CampaignHandler
	Metrics      *handler.MetricsHandler
}

// New builds the gin engine with the global middleware chain and all routes.
func New(opts Options, h Handlers) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.APIPrefix)
	authRequired := middleware.JWT(opts.Tokens)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	validID := middleware.UUIDParams("id")

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", authRequired, h.Auth.Logout)
	auth.GET("/me", authRequired, h.Auth.Me)

	api.POST("/registrations", h.Registration.Register)

	api.GET("/teams", middleware.OptionalJWT(opts.Tokens), h.Teams.List)
	api.GET("/teams/:id", validID, h.Teams.Get)
	api.GET("/schools", h.Teams.ListSchools)

	api.POST("/coupons/validate", h.Coupons.Validate)

	payments := api.Group("/payments")
	payments.POST("/intent", h.Payments.CreateIntent)
	payments.POST("/checkout", h.Payments.Checkout)
	payments.GET("/session/:id", h.Payments.Session)
	payments.POST("/webhook", h.Payments.Webhook)

	api.POST("/newsletter/subscribe", h.Outreach.Subscribe)
	api.GET("/newsletter/unsubscribe", h.Outreach.Unsubscribe)
	api.POST("/contact", h.Outreach.Contact)

	dashboard := api.Group("/dashboard", authRequired, middleware.RequireParent())
	dashboard.GET("", h.Dashboard.Parent)
	dashboard.PATCH("/messages/:id/read", validID, h.Dashboard.MarkRead)

	students := api.Group("/students", authRequired, middleware.RequireRoles(models.RoleParent, models.RoleAdmin), validID)
	students.POST("/:id/documents", h.Documents.Upload)
	students.GET("/:id/documents", h.Documents.List)

	admin := api.Group("/admin", authRequired, adminOnly)
	admin.POST("/schools", middleware.Audit(log, "SCHOOL_CREATE", "school"), h.Teams.CreateSchool)
	admin.POST("/teams", middleware.Audit(log, "TEAM_CREATE", "team"), h.Teams.Create)
	admin.PATCH("/teams/:id/status", validID, middleware.Audit(log, "TEAM_STATUS", "team"), h.Teams.SetStatus)
	admin.GET("/teams/:id/roster/export", validID, h.Teams.ExportRoster)

	admin.PATCH("/enrollments/:id/status", validID, middleware.Audit(log, "ENROLLMENT_STATUS", "enrollment"), h.Enrollments.SetStatus)

	admin.GET("/coupons", h.Coupons.List)
	admin.POST("/coupons", middleware.Audit(log, "COUPON_CREATE", "coupon"), h.Coupons.Create)
	admin.PATCH("/coupons/:code", middleware.Audit(log, "COUPON_UPDATE", "coupon"), h.Coupons.Update)

	admin.GET("/parents", h.Dashboard.Parents)
	admin.GET("/parents/:id/dashboard", validID, h.Dashboard.ParentDashboard)
	admin.POST("/parents/:id/messages", validID, middleware.Audit(log, "MESSAGE_POST", "parent"), h.Dashboard.PostMessage)

	admin.GET("/campaigns/runs", h.Campaigns.Runs)
	admin.GET("/campaigns/:kind/preview", h.Campaigns.Preview)
	admin.POST("/campaigns/:kind/send", middleware.Audit(log, "CAMPAIGN_SEND", "campaign"), h.Campaigns.Send)

	return r
}
