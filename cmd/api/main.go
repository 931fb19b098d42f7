package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/youth-sports-api/api/swagger"
	"github.com/noah-isme/youth-sports-api/internal/handler"
	"github.com/noah-isme/youth-sports-api/internal/repository"
	"github.com/noah-isme/youth-sports-api/internal/router"
	"github.com/noah-isme/youth-sports-api/internal/service"
	"github.com/noah-isme/youth-sports-api/pkg/cache"
	"github.com/noah-isme/youth-sports-api/pkg/config"
	"github.com/noah-isme/youth-sports-api/pkg/database"
	"github.com/noah-isme/youth-sports-api/pkg/jobs"
	"github.com/noah-isme/youth-sports-api/pkg/logger"
	"github.com/noah-isme/youth-sports-api/pkg/mail"
	"github.com/noah-isme/youth-sports-api/pkg/payment"
	"github.com/noah-isme/youth-sports-api/pkg/storage"
)

// @title Youth Sports Registration API
// @version 1.0.0
// @description Team listings, registration, payments, parent dashboard and email campaigns.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Migrations.AutoApply {
		migrator, err := database.NewMigrator(cfg, logr)
		if err != nil {
			logr.Fatal("failed to open migrations", zap.Error(err))
		}
		if err := migrator.Up(); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		_ = migrator.Close()
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			redisClient = client
			defer client.Close()
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TeamsTTL, logr, redisClient != nil)

	users := repository.NewUserRepository(db)
	parents := repository.NewParentRepository(db)
	students := repository.NewStudentRepository(db)
	teams := repository.NewTeamRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	payments := repository.NewPaymentRepository(db)
	coupons := repository.NewCouponRepository(db)
	messages := repository.NewMessageRepository(db)
	documents := repository.NewDocumentRepository(db)
	newsletter := repository.NewNewsletterRepository(db)
	campaigns := repository.NewCampaignRepository(db)

	renderer, err := mail.NewRenderer()
	if err != nil {
		logr.Fatal("failed to parse mail templates", zap.Error(err))
	}
	mailer := mail.New(cfg.SMTP, logr)
	if !cfg.SMTP.Enabled() {
		logr.Warn("smtp not configured, outgoing mail is logged only")
	}
	mailSvc := service.NewMailService(mailer, renderer, metrics, logr, jobs.QueueConfig{
		Workers:    cfg.Mail.Workers,
		MaxRetries: cfg.Mail.MaxRetries,
		RetryDelay: cfg.Mail.RetryDelay,
	})
	mailSvc.Start(ctx)

	authSvc := service.NewAuthService(users, parents, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	registrationSvc := service.NewRegistrationService(parents, students, teams, enrollments, payments, mailSvc, metrics, validate, logr, service.RegistrationConfig{
		Currency:     cfg.Stripe.Currency,
		DashboardURL: cfg.SiteURL + "/dashboard",
	})
	teamSvc := service.NewTeamService(teams, cacheSvc, validate, logr, cfg.Cache.TeamsTTL)
	enrollmentSvc := service.NewEnrollmentService(enrollments, cacheSvc, validate, logr)
	couponSvc := service.NewCouponService(coupons, cacheSvc, validate, logr, cfg.Cache.CouponsTTL)
	exportSvc := service.NewExportService(teams, logr)

	paymentCfg := service.PaymentConfig{
		Currency:   cfg.Stripe.Currency,
		SuccessURL: cfg.Stripe.SuccessURL,
		CancelURL:  cfg.Stripe.CancelURL,
	}
	var paymentSvc *service.PaymentService
	if gateway, err := payment.NewStripeGateway(cfg.Stripe); err == nil {
		paymentSvc = service.NewPaymentService(gateway, payments, enrollments, couponSvc, metrics, validate, logr, paymentCfg)
	} else {
		logr.Warn("stripe not configured, payment endpoints return 503", zap.Error(err))
		paymentSvc = service.NewPaymentService(nil, payments, enrollments, couponSvc, metrics, validate, logr, paymentCfg)
	}

	readiness := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		readiness["redis"] = handler.PingFunc(cacheRepo.Ping)
	}

	documentCfg := service.DocumentConfig{MaxUploadBytes: cfg.Storage.MaxUploadBytes, AllowedMIMEs: cfg.Storage.AllowedMIMEs}
	var documentSvc *service.DocumentService
	if store, err := storage.NewS3Store(ctx, cfg.Storage); err == nil {
		documentSvc = service.NewDocumentService(store, documents, students, logr, documentCfg)
		readiness["storage"] = handler.PingFunc(store.Ping)
	} else {
		logr.Warn("object storage not configured, document uploads return 503", zap.Error(err))
		documentSvc = service.NewDocumentService(nil, documents, students, logr, documentCfg)
	}

	signer := storage.NewTokenSigner(cfg.Campaign.UnsubscribeSecret, cfg.Campaign.UnsubscribeTTL)
	newsletterSvc := service.NewNewsletterService(newsletter, signer, cfg.PublicURL+cfg.APIPrefix+"/newsletter/unsubscribe", validate, logr)
	messageSvc := service.NewMessageService(messages, parents, mailSvc, cfg.Mail.AdminAddress, cfg.SMTP.SenderName, validate, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Parents:     parents,
		Students:    students,
		Enrollments: enrollments,
		Payments:    payments,
		Messages:    messages,
		Logger:      logr,
	})
	campaignSvc := service.NewCampaignService(campaigns, mailer, renderer, cacheSvc, newsletterSvc, metrics, validate, logr, service.CampaignConfig{
		SendDelay: cfg.Campaign.SendDelay,
		LockTTL:   cfg.Campaign.LockTTL,
		SiteURL:   cfg.SiteURL,
	})

	engine := router.New(router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Tokens:         authSvc,
		Metrics:        metrics,
		Logger:         logr,
	}, router.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Registration: handler.NewRegistrationHandler(registrationSvc),
		Teams:        handler.NewTeamHandler(teamSvc, exportSvc),
		Coupons:      handler.NewCouponHandler(couponSvc),
		Payments:     handler.NewPaymentHandler(paymentSvc),
		Dashboard:    handler.NewDashboardHandler(dashboardSvc, messageSvc),
		Enrollments:  handler.NewEnrollmentHandler(enrollmentSvc),
		Documents:    handler.NewDocumentHandler(documentSvc),
		Outreach:     handler.NewOutreachHandler(newsletterSvc, messageSvc),
		Campaigns:    handler.NewCampaignHandler(campaignSvc),
		Metrics:      handler.NewMetricsHandler(metrics, readiness),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	mailSvc.Stop()
}
