package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	SiteURL   string
	PublicURL string

	Database   DatabaseConfig
	Migrations MigrationsConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Stripe     StripeConfig
	SMTP       SMTPConfig
	Mail       MailConfig
	Storage    StorageConfig
	Campaign   CampaignConfig
	Cache      CacheConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// MigrationsConfig points golang-migrate at the SQL sources.
type MigrationsConfig struct {
	Source    string
	AutoApply bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Issuer            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StripeConfig holds hosted checkout credentials. An empty secret key puts
// payments into unconfigured mode.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	SuccessURL    string
	CancelURL     string
}

// Enabled reports whether payment processing is configured.
func (c StripeConfig) Enabled() bool {
	return c.SecretKey != ""
}

// SMTPConfig describes the authenticated relay used for outbound mail.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Sender     string
	SenderName string
}

// Enabled reports whether a relay host is set.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

// MailConfig tunes transactional mail delivery.
type MailConfig struct {
	AdminAddress string
	Workers      int
	MaxRetries   int
	RetryDelay   time.Duration
}

// StorageConfig configures S3 compatible object storage for student documents.
type StorageConfig struct {
	Bucket          string
	Region          string
	EndpointURL     string
	AccessKeyID     string
	SecretAccessKey string
	PresignTTL      time.Duration
	MaxUploadBytes  int64
	AllowedMIMEs    []string
}

// Enabled reports whether object storage credentials are present.
func (c StorageConfig) Enabled() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// CampaignConfig controls bulk email sends.
type CampaignConfig struct {
	SendDelay         time.Duration
	LockTTL           time.Duration
	UnsubscribeSecret string
	UnsubscribeTTL    time.Duration
}

// CacheConfig governs listing caches.
type CacheConfig struct {
	TeamsTTL   time.Duration
	CouponsTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.SiteURL = strings.TrimRight(v.GetString("SITE_URL"), "/")
	cfg.PublicURL = strings.TrimRight(v.GetString("PUBLIC_URL"), "/")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Migrations = MigrationsConfig{
		Source:    v.GetString("MIGRATIONS_SOURCE"),
		AutoApply: v.GetBool("MIGRATIONS_AUTO_APPLY"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Issuer:            v.GetString("JWT_ISSUER"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Stripe = StripeConfig{
		SecretKey:     v.GetString("STRIPE_SECRET_KEY"),
		WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		Currency:      strings.ToLower(v.GetString("STRIPE_CURRENCY")),
		SuccessURL:    v.GetString("STRIPE_SUCCESS_URL"),
		CancelURL:     v.GetString("STRIPE_CANCEL_URL"),
	}
	if cfg.Stripe.SuccessURL == "" && cfg.SiteURL != "" {
		cfg.Stripe.SuccessURL = cfg.SiteURL + "/registration/success?session_id={CHECKOUT_SESSION_ID}"
	}
	if cfg.Stripe.CancelURL == "" && cfg.SiteURL != "" {
		cfg.Stripe.CancelURL = cfg.SiteURL + "/registration/cancelled"
	}

	cfg.SMTP = SMTPConfig{
		Host:       v.GetString("SMTP_HOST"),
		Port:       v.GetInt("SMTP_PORT"),
		Username:   v.GetString("SMTP_USERNAME"),
		Password:   v.GetString("SMTP_PASSWORD"),
		Sender:     v.GetString("SMTP_SENDER"),
		SenderName: v.GetString("SMTP_SENDER_NAME"),
	}

	cfg.Mail = MailConfig{
		AdminAddress: v.GetString("MAIL_ADMIN_ADDRESS"),
		Workers:      v.GetInt("MAIL_WORKERS"),
		MaxRetries:   v.GetInt("MAIL_MAX_RETRIES"),
		RetryDelay:   parseDuration(v.GetString("MAIL_RETRY_DELAY"), 5*time.Second),
	}

	maxUpload := v.GetInt64("STORAGE_MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Storage = StorageConfig{
		Bucket:          v.GetString("STORAGE_BUCKET"),
		Region:          v.GetString("STORAGE_REGION"),
		EndpointURL:     v.GetString("STORAGE_ENDPOINT_URL"),
		AccessKeyID:     v.GetString("STORAGE_ACCESS_KEY_ID"),
		SecretAccessKey: v.GetString("STORAGE_SECRET_ACCESS_KEY"),
		PresignTTL:      parseDuration(v.GetString("STORAGE_PRESIGN_TTL"), 15*time.Minute),
		MaxUploadBytes:  maxUpload,
		AllowedMIMEs:    splitAndTrim(v.GetString("STORAGE_ALLOWED_MIME_TYPES")),
	}

	cfg.Campaign = CampaignConfig{
		SendDelay:         parseDuration(v.GetString("CAMPAIGN_SEND_DELAY"), 600*time.Millisecond),
		LockTTL:           parseDuration(v.GetString("CAMPAIGN_LOCK_TTL"), 30*time.Minute),
		UnsubscribeSecret: v.GetString("CAMPAIGN_UNSUBSCRIBE_SECRET"),
		UnsubscribeTTL:    parseDuration(v.GetString("CAMPAIGN_UNSUBSCRIBE_TTL"), 90*24*time.Hour),
	}

	cfg.Cache = CacheConfig{
		TeamsTTL:   parseDuration(v.GetString("TEAMS_CACHE_TTL"), 5*time.Minute),
		CouponsTTL: parseDuration(v.GetString("COUPONS_CACHE_TTL"), time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("SITE_URL", "http://localhost:3000")
	v.SetDefault("PUBLIC_URL", "http://localhost:8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "youth_sports")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("MIGRATIONS_SOURCE", "file://migrations")
	v.SetDefault("MIGRATIONS_AUTO_APPLY", false)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "youth-sports-api")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	v.SetDefault("STRIPE_CURRENCY", "usd")
	v.SetDefault("STRIPE_SUCCESS_URL", "")
	v.SetDefault("STRIPE_CANCEL_URL", "")

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_SENDER", "no-reply@localhost")
	v.SetDefault("SMTP_SENDER_NAME", "Youth Sports")

	v.SetDefault("MAIL_ADMIN_ADDRESS", "")
	v.SetDefault("MAIL_WORKERS", 1)
	v.SetDefault("MAIL_MAX_RETRIES", 3)
	v.SetDefault("MAIL_RETRY_DELAY", "5s")

	v.SetDefault("STORAGE_BUCKET", "")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_ENDPOINT_URL", "")
	v.SetDefault("STORAGE_ACCESS_KEY_ID", "")
	v.SetDefault("STORAGE_SECRET_ACCESS_KEY", "")
	v.SetDefault("STORAGE_PRESIGN_TTL", "15m")
	v.SetDefault("STORAGE_MAX_UPLOAD_BYTES", 10*1024*1024)
	v.SetDefault("STORAGE_ALLOWED_MIME_TYPES", "application/pdf,image/jpeg,image/png")

	v.SetDefault("CAMPAIGN_SEND_DELAY", "600ms")
	v.SetDefault("CAMPAIGN_LOCK_TTL", "30m")
	v.SetDefault("CAMPAIGN_UNSUBSCRIBE_SECRET", "dev_unsubscribe_secret")
	v.SetDefault("CAMPAIGN_UNSUBSCRIBE_TTL", "2160h")

	v.SetDefault("TEAMS_CACHE_TTL", "5m")
	v.SetDefault("COUPONS_CACHE_TTL", "1m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
