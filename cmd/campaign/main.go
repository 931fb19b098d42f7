package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	"github.com/noah-isme/youth-sports-api/internal/repository"
	"github.com/noah-isme/youth-sports-api/internal/service"
	"github.com/noah-isme/youth-sports-api/pkg/cache"
	"github.com/noah-isme/youth-sports-api/pkg/config"
	"github.com/noah-isme/youth-sports-api/pkg/database"
	"github.com/noah-isme/youth-sports-api/pkg/logger"
	"github.com/noah-isme/youth-sports-api/pkg/mail"
	"github.com/noah-isme/youth-sports-api/pkg/storage"
)

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "usage: campaign [flags] preview|send\n\n")
	fmt.Fprintf(out, "kinds: %s, %s\n\n", models.CampaignCancellation, models.CampaignWinback)
	flag.PrintDefaults()
}

func main() {
	kind := flag.String("kind", "", "campaign to run (cancellation or winback)")
	limit := flag.Int("limit", 0, "maximum recipients, 0 for all")
	testEmail := flag.String("test-email", "", "send every message to this address instead")
	runKey := flag.String("run-key", "", "idempotency key; recipients already sent under it are skipped")
	delay := flag.Int("delay", -1, "milliseconds between sends, negative keeps the configured value")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 || *kind == "" {
		usage()
		os.Exit(2)
	}
	campaign := models.CampaignKind(strings.ToLower(*kind))
	if !campaign.Valid() {
		fmt.Fprintf(os.Stderr, "unknown campaign %q\n", *kind)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, campaign lock disabled", zap.Error(err))
		} else {
			redisClient = client
			defer client.Close()
		}
	}
	locker := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Campaign.LockTTL, logr, redisClient != nil)

	renderer, err := mail.NewRenderer()
	if err != nil {
		logr.Fatal("failed to parse mail templates", zap.Error(err))
	}
	signer := storage.NewTokenSigner(cfg.Campaign.UnsubscribeSecret, cfg.Campaign.UnsubscribeTTL)
	links := service.NewNewsletterService(repository.NewNewsletterRepository(db), signer, cfg.PublicURL+cfg.APIPrefix+"/newsletter/unsubscribe", nil, logr)

	svc := service.NewCampaignService(
		repository.NewCampaignRepository(db),
		mail.New(cfg.SMTP, logr),
		renderer,
		locker,
		links,
		metrics,
		nil,
		logr,
		service.CampaignConfig{SendDelay: cfg.Campaign.SendDelay, LockTTL: cfg.Campaign.LockTTL, SiteURL: cfg.SiteURL},
	)

	var result interface{}
	switch flag.Arg(0) {
	case "preview":
		result, err = svc.Preview(ctx, campaign, *limit)
	case "send":
		req := dto.CampaignSendRequest{Limit: *limit, TestEmail: *testEmail, RunKey: *runKey}
		if *delay >= 0 {
			req.DelayMs = delay
		}
		result, err = svc.Send(ctx, campaign, req)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logr.Fatal("campaign command failed", zap.String("campaign", string(campaign)), zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logr.Fatal("failed to write result", zap.Error(err))
	}
}
