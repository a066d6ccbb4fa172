package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/njprem/hubmarket-accounts/internal/config"
	"github.com/njprem/hubmarket-accounts/internal/logging"
	"github.com/njprem/hubmarket-accounts/internal/media"
	"github.com/njprem/hubmarket-accounts/internal/otp"
	"github.com/njprem/hubmarket-accounts/internal/repository/disk"
	"github.com/njprem/hubmarket-accounts/internal/repository/memory"
	minioRepo "github.com/njprem/hubmarket-accounts/internal/repository/minio"
	mongoRepo "github.com/njprem/hubmarket-accounts/internal/repository/mongo"
	"github.com/njprem/hubmarket-accounts/internal/repository/ports"
	"github.com/njprem/hubmarket-accounts/internal/repository/postgres"
	"github.com/njprem/hubmarket-accounts/internal/service"
	transporthttp "github.com/njprem/hubmarket-accounts/internal/transport/http"
	"github.com/njprem/hubmarket-accounts/internal/transport/mail"
	"github.com/njprem/hubmarket-accounts/internal/util"
)

const otpSweepInterval = time.Minute

func main() {
	cfg := config.Load()

	var shipper zapcore.WriteSyncer
	var logstash *logging.LogstashWriter
	if cfg.LogstashTCPAddr != "" {
		w, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logstash disabled: %v\n", err)
		} else {
			logstash = w
			shipper = w
		}
	}
	logger := logging.New(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat, shipper)
	defer func() {
		_ = logger.Sync()
		if logstash != nil {
			_ = logstash.Close()
		}
	}()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("close resource", zap.Error(err))
			}
		}
	}()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	closers = append(closers, store.closer)

	otps, err := openOTPStore(ctx, cfg, store, logger, &closers)
	if err != nil {
		return err
	}

	notifier, err := newNotifier(ctx, cfg, logger)
	if err != nil {
		return err
	}

	photos, uploadDir, err := newPhotoStore(ctx, cfg)
	if err != nil {
		return err
	}

	accountService := service.NewAccountService(
		store.accounts,
		util.NewBcryptHasher(cfg.BcryptCost),
		otps,
		notifier,
		photos,
		logger.Named("accounts"),
		service.AccountServiceConfig{
			AppName:              cfg.AppName,
			OTPTTL:               cfg.OTPTTL,
			ResetIncludesDeleted: cfg.ResetIncludesDeleted,
			AsyncWelcome:         cfg.AsyncWelcomeMail,
		},
	)

	e := transporthttp.NewRouter(transporthttp.RouterConfig{
		AllowOrigins: cfg.AllowOrigins,
		UploadDir:    uploadDir,
		BodyLimit:    fmt.Sprintf("%dB", cfg.PhotoMaxBytes+1<<20),
	}, logger.Named("http"))
	transporthttp.RegisterPages(e)
	transporthttp.RegisterSwagger(e, cfg.SwaggerSpecPath, logger)
	transporthttp.RegisterAccounts(e, accountService, logger.Named("http"))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// storage bundles the repositories that share one database connection.
type storage struct {
	accounts ports.AccountRepository
	// resets is nil for the in-memory backend.
	resets ports.PasswordResetRepository
	// purge drops expired resets where the database has no TTL support.
	purge  func(ctx context.Context) (int64, error)
	closer io.Closer
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*storage, error) {
	kind, err := cfg.StoreKind()
	if err != nil {
		return nil, err
	}
	switch kind {
	case config.StoreMongo:
		client, err := mongoRepo.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		db := client.Database(cfg.DatabaseName)
		accounts := mongoRepo.NewAccountRepo(db)
		resets := mongoRepo.NewPasswordResetRepo(db)
		closer := closerFunc(func() error { return client.Disconnect(context.Background()) })
		if err := accounts.EnsureIndexes(ctx); err != nil {
			_ = closer.Close()
			return nil, fmt.Errorf("ensure account indexes: %w", err)
		}
		if err := resets.EnsureIndexes(ctx); err != nil {
			_ = closer.Close()
			return nil, fmt.Errorf("ensure reset indexes: %w", err)
		}
		logger.Info("account store", zap.String("backend", "mongo"), zap.String("database", cfg.DatabaseName))
		return &storage{accounts: accounts, resets: resets, closer: closer}, nil
	case config.StorePostgres:
		db, err := postgres.New(cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		accounts := postgres.NewAccountRepo(db)
		resets := postgres.NewPasswordResetRepo(db)
		if err := accounts.EnsureIndexes(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure account indexes: %w", err)
		}
		if err := resets.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure reset schema: %w", err)
		}
		logger.Info("account store", zap.String("backend", "postgres"), zap.String("driver", cfg.DatabaseDriver))
		return &storage{accounts: accounts, resets: resets, purge: resets.DeleteExpired, closer: db}, nil
	default:
		logger.Warn("account store is in-memory; data is lost on restart")
		return &storage{accounts: memory.NewAccountRepo(), closer: closerFunc(func() error { return nil })}, nil
	}
}

func openOTPStore(ctx context.Context, cfg config.Config, store *storage, logger *zap.Logger, closers *[]io.Closer) (service.OTPStore, error) {
	switch {
	case cfg.OTPStore == "redis":
		client, err := otp.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		*closers = append(*closers, client)
		logger.Info("otp store", zap.String("backend", "redis"))
		return otp.NewRedisStore(client, cfg.OTPTTL), nil
	case cfg.OTPStore == "database" && store.resets != nil:
		if store.purge != nil {
			go purgeExpired(ctx, store.purge, logger)
		}
		logger.Info("otp store", zap.String("backend", "database"))
		return otp.NewRepositoryStore(store.resets, cfg.OTPTTL), nil
	case cfg.OTPStore == "database":
		logger.Warn("otp store: account store has no reset table, using memory")
	}
	memStore := otp.NewMemoryStore(cfg.OTPTTL)
	go memStore.RunJanitor(ctx, otpSweepInterval)
	logger.Info("otp store", zap.String("backend", "memory"))
	return memStore, nil
}

func purgeExpired(ctx context.Context, purge func(ctx context.Context) (int64, error), logger *zap.Logger) {
	ticker := time.NewTicker(otpSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := purge(ctx); err != nil {
				logger.Warn("purge expired resets", zap.Error(err))
			} else if n > 0 {
				logger.Debug("purged expired resets", zap.Int64("count", n))
			}
		}
	}
}

func newNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (service.Notifier, error) {
	switch cfg.MailProvider {
	case "ses":
		n, err := mail.NewSESNotifier(ctx, cfg.SESRegion, cfg.SESFrom)
		if err != nil {
			return nil, fmt.Errorf("configure ses: %w", err)
		}
		return n, nil
	case "log":
		return mail.NewLogNotifier(logger.Named("mail")), nil
	default:
		if cfg.SMTPHost == "" || cfg.SMTPUsername == "" {
			logger.Warn("smtp credentials missing; mail will only be logged")
			return mail.NewLogNotifier(logger.Named("mail")), nil
		}
		return mail.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SMTPUseTLS), nil
	}
}

// newPhotoStore returns the photo store and, for disk storage, the directory to serve.
func newPhotoStore(ctx context.Context, cfg config.Config) (*service.PhotoStore, string, error) {
	processor := media.NewFFMPEGProcessor(cfg.FFMPEGPath, cfg.PhotoMaxDimension)
	if cfg.PhotoStore == "minio" {
		client, err := minioRepo.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
		if err != nil {
			return nil, "", fmt.Errorf("configure minio: %w", err)
		}
		storage := minioRepo.NewStorage(client, cfg.MinIOPublicURL)
		if err := storage.EnsureBucket(ctx, cfg.MinIOBucketProfile); err != nil {
			return nil, "", fmt.Errorf("ensure bucket %s: %w", cfg.MinIOBucketProfile, err)
		}
		return service.NewPhotoStore(storage, processor, cfg.MinIOBucketProfile, cfg.PhotoMaxBytes, cfg.PhotoMaxDimension), "", nil
	}
	storage, err := disk.NewStorage(cfg.UploadDir)
	if err != nil {
		return nil, "", fmt.Errorf("prepare upload dir: %w", err)
	}
	return service.NewPhotoStore(storage, processor, "", cfg.PhotoMaxBytes, cfg.PhotoMaxDimension), storage.Root(), nil
}
