package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// StoreKind names the account storage backend selected by DATABASE_URL.
type StoreKind string

const (
	StoreMongo    StoreKind = "mongo"
	StorePostgres StoreKind = "postgres"
	StoreMemory   StoreKind = "memory"
)

type Config struct {
	Port           string
	AppEnv         string
	AppName        string
	DatabaseURL    string
	DatabaseName   string
	DatabaseDriver string
	AllowOrigins   []string

	LogLevel        string
	LogFormat       string
	LogstashTCPAddr string

	OTPStore string
	RedisURL string
	OTPTTL   time.Duration

	MailProvider string
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPUseTLS   bool
	SESRegion    string
	SESFrom      string

	PhotoStore         string
	UploadDir          string
	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	MinIOBucketProfile string
	MinIOPublicURL     string
	PhotoMaxBytes      int64
	PhotoMaxDimension  int
	FFMPEGPath         string

	BcryptCost           int
	ResetIncludesDeleted bool
	AsyncWelcomeMail     bool
	SwaggerSpecPath      string
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := Config{
		Port:           getenv("PORT", "5000"),
		AppEnv:         getenv("APP_ENV", "development"),
		AppName:        getenv("APP_NAME", "HubMarket"),
		DatabaseURL:    must("DATABASE_URL"),
		DatabaseName:   getenv("DATABASE_NAME", "HubMarketocom"),
		DatabaseDriver: getenv("DATABASE_DRIVER", "pgx"),
		AllowOrigins:   splitAndTrim(getenv("ALLOW_ORIGINS", "*")),

		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFormat:       getenv("LOG_FORMAT", ""),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),

		OTPStore: strings.ToLower(getenv("OTP_STORE", "memory")),
		RedisURL: getenv("REDIS_URL", ""),
		OTPTTL:   getDuration("OTP_TTL", 5*time.Minute),

		MailProvider: strings.ToLower(getenv("MAIL_PROVIDER", "smtp")),
		SMTPHost:     getenv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getenv("SMTP_PORT", "587"),
		SMTPUsername: getenv("SMTP_USERNAME", os.Getenv("EMAIL_USER")),
		SMTPPassword: getenv("SMTP_PASSWORD", os.Getenv("EMAIL_PASS")),
		SMTPFrom:     getenv("SMTP_FROM", ""),
		SMTPUseTLS:   getBool("SMTP_USE_TLS", false),
		SESRegion:    getenv("SES_REGION", "us-east-1"),
		SESFrom:      getenv("SES_FROM", ""),

		PhotoStore:         strings.ToLower(getenv("PHOTO_STORE", "disk")),
		UploadDir:          getenv("UPLOAD_DIR", "uploads"),
		MinIOEndpoint:      getenv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:     getenv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:     getenv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:        getBool("MINIO_USE_SSL", false),
		MinIOBucketProfile: getenv("MINIO_BUCKET_PROFILE", "hubmarket-profiles"),
		MinIOPublicURL:     getenv("MINIO_PUBLIC_URL", ""),
		PhotoMaxBytes:      getInt64("PHOTO_MAX_BYTES", 5*1024*1024),
		PhotoMaxDimension:  int(getInt64("PHOTO_MAX_DIMENSION", 1024)),
		FFMPEGPath:         getenv("FFMPEG_PATH", ""),

		BcryptCost:           int(getInt64("BCRYPT_COST", 10)),
		ResetIncludesDeleted: getBool("RESET_INCLUDES_DELETED", true),
		AsyncWelcomeMail:     getBool("ASYNC_WELCOME_MAIL", true),
		SwaggerSpecPath:      getenv("SWAGGER_SPEC_PATH", "docs/swagger.yaml"),
	}

	if cfg.PhotoStore == "minio" {
		cfg.MinIOEndpoint = must("MINIO_ENDPOINT")
		cfg.MinIOAccessKey = must("MINIO_ACCESS_KEY")
		cfg.MinIOSecretKey = must("MINIO_SECRET_KEY")
	}
	if cfg.OTPStore == "redis" {
		cfg.RedisURL = must("REDIS_URL")
	}
	return cfg
}

// StoreKind derives the backend from the DATABASE_URL scheme.
func (c Config) StoreKind() (StoreKind, error) {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return "", fmt.Errorf("config: parse DATABASE_URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "mongodb", "mongodb+srv":
		return StoreMongo, nil
	case "postgres", "postgresql":
		return StorePostgres, nil
	case "memory":
		return StoreMemory, nil
	default:
		return "", fmt.Errorf("config: unsupported DATABASE_URL scheme %q", u.Scheme)
	}
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getBool(k string, d bool) bool {
	v, err := strconv.ParseBool(getenv(k, strconv.FormatBool(d)))
	if err != nil {
		return d
	}
	return v
}

func getInt64(k string, d int64) int64 {
	v, err := strconv.ParseInt(getenv(k, ""), 10, 64)
	if err != nil || v <= 0 {
		return d
	}
	return v
}

func getDuration(k string, d time.Duration) time.Duration {
	v, err := time.ParseDuration(getenv(k, ""))
	if err != nil || v <= 0 {
		return d
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
