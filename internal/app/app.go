package app

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"givehub/portal-backend/internal/admin"
	"givehub/portal-backend/internal/auth"
	"givehub/portal-backend/internal/certificates"
	"givehub/portal-backend/internal/config"
	"givehub/portal-backend/internal/database"
	"givehub/portal-backend/internal/donations"
	"givehub/portal-backend/internal/interests"
	"givehub/portal-backend/internal/matching"
	"givehub/portal-backend/internal/notifications"
	"givehub/portal-backend/internal/notifications/websocket"
	"givehub/portal-backend/internal/requests"
	"givehub/portal-backend/pkg/pdf"
	"givehub/portal-backend/pkg/security"
	"givehub/portal-backend/pkg/storage"
)

// App holds the wired services shared by the API server and the CLI
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB
	Hub    *websocket.Hub

	Notifications *notifications.Service
	Auth          auth.Service
	Donations     donations.Service
	Requests      requests.Service
	Interests     interests.Service
	Matching      matching.Service
	Certificates  certificates.Service
	Admin         admin.Service
}

// New connects to the database, applies migrations and wires every service
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, DB: db}
	if err := a.wire(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg, logger := a.Config, a.Logger

	if err := database.Migrate(ctx, a.DB, logger); err != nil {
		return err
	}

	tokens := security.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	a.Auth = auth.NewService(auth.NewRepository(a.DB), tokens, logger)

	objects, err := newObjectStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	notifier, err := a.newNotifications(ctx)
	if err != nil {
		return err
	}
	a.Notifications = notifier

	a.Donations = donations.NewService(donations.NewRepository(a.DB), notifier, logger)
	a.Requests = requests.NewService(requests.NewRepository(a.DB), notifier, logger)
	a.Interests = interests.NewService(interests.NewRepository(a.DB), a.Requests, notifier, logger)

	a.Certificates = certificates.NewService(
		certificates.NewRepository(a.DB),
		objects,
		pdf.NewGenerator(pdf.DefaultOptions()),
		security.NewSigner(cfg.Security.CertificateSignKey),
		notifier,
		certificates.Options{Bucket: cfg.Storage.Bucket, PublicURL: cfg.Server.PublicURL},
		logger,
	)
	a.Matching = matching.NewService(matching.NewRepository(a.DB), a.Certificates, notifier, logger)

	a.Admin = admin.NewService(admin.NewRepository(a.DB), admin.Sources{
		Users:        a.Auth,
		Donations:    a.Donations,
		Requests:     a.Requests,
		Interests:    a.Interests,
		Matches:      a.Matching,
		Certificates: a.Certificates,
	}, cfg.Scheduler.DashboardCacheTTL, logger)

	return nil
}

func newObjectStore(ctx context.Context, cfg config.StorageConfig) (storage.S3Client, error) {
	if cfg.Driver != "s3" {
		return storage.NewMemoryS3Client(), nil
	}
	client, err := storage.NewS3Client(ctx, storage.S3Options{
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		UsePathStyle:    cfg.UsePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return client, nil
}

func (a *App) newNotifications(ctx context.Context) (*notifications.Service, error) {
	cfg, logger := a.Config, a.Logger

	gdb, err := database.Gorm(a.DB)
	if err != nil {
		return nil, err
	}
	store, err := notifications.NewStore(gdb)
	if err != nil {
		return nil, err
	}

	a.Hub = websocket.NewHub(cfg.Server.AllowedOrigins, logger)
	opts := []notifications.Option{notifications.WithPusher(a.Hub)}

	if cfg.Kafka.Enabled {
		logger.Info("Publishing lifecycle events to kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
		opts = append(opts, notifications.WithProducer(notifications.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)))
	}

	if cfg.Email.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Email.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config for email: %w", err)
		}
		sender := notifications.NewSESSender(awsCfg, cfg.Email.FromAddress, cfg.Email.FromName)
		opts = append(opts, notifications.WithEmail(sender, notifications.UserRecipients(a.Auth)))
	}

	return notifications.NewService(store, logger, opts...), nil
}

// Close flushes pending deliveries and releases connections
func (a *App) Close() error {
	var errs []error
	if a.Admin != nil {
		a.Admin.Close()
	}
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.Notifications != nil {
		errs = append(errs, a.Notifications.Close())
	}
	errs = append(errs, a.DB.Close())
	return errors.Join(errs...)
}
