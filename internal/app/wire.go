package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/forcepush/tradedesk/internal/auth"
	s3blob "github.com/forcepush/tradedesk/internal/blob/s3"
	"github.com/forcepush/tradedesk/internal/cache/redis"
	"github.com/forcepush/tradedesk/internal/config"
	"github.com/forcepush/tradedesk/internal/domain"
	"github.com/forcepush/tradedesk/internal/notify"
	"github.com/forcepush/tradedesk/internal/portfolio"
	"github.com/forcepush/tradedesk/internal/transport"
)

// Dependencies bundles every collaborator the coordinator needs. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Store     *portfolio.Store
	Snapshots domain.SnapshotSource
	Sessions  *auth.S3Provider
	Transport *transport.Client
	Sink      domain.Sink
	Notifier  *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function to call
// on shutdown.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- S3 blob storage (broker session objects) ---
	s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
		Endpoint:       cfg.S3.Endpoint,
		Region:         cfg.S3.Region,
		Bucket:         cfg.S3.Bucket,
		AccessKey:      cfg.S3.AccessKey,
		SecretKey:      cfg.S3.SecretKey,
		UseSSL:         cfg.S3.UseSSL,
		ForcePathStyle: cfg.S3.ForcePathStyle,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: s3: %w", err)
	}
	closers = append(closers, func() { _ = s3Client.Close() })

	deps.Sessions = auth.NewS3Provider(
		s3blob.NewReader(s3Client),
		s3blob.NewWriter(s3Client),
		logger,
	)

	// --- Redis snapshot cache (optional) ---
	var snapshotCache domain.SnapshotCache
	if cfg.Redis.Addr != "" {
		cache, err := redis.NewSnapshotCache(ctx, redis.Config{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			MaxRetries:  cfg.Redis.MaxRetries,
			TLSEnabled:  cfg.Redis.TLSEnabled,
			SnapshotTTL: time.Duration(cfg.Redis.SnapshotTTLMinutes) * time.Minute,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = cache.Close() })
		snapshotCache = cache
	}

	// --- Portfolio store + snapshot client ---
	deps.Store = portfolio.NewStore(logger)
	deps.Snapshots = portfolio.NewClient(cfg.Portfolio.ApiURL, deps.Sessions, snapshotCache, logger)

	// --- Gateway transport ---
	deps.Transport = transport.NewClient(cfg.Gateway.WsURL, logger)
	closers = append(closers, func() { _ = deps.Transport.Close() })

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	deps.Sink = notify.NewOutcomes(deps.Notifier)

	return deps, cleanup, nil
}
