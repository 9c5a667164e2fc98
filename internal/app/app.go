package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tlama/internal/config"
	"github.com/MrSnakeDoc/tlama/internal/domain"
	"github.com/MrSnakeDoc/tlama/internal/httpserver"
	"github.com/MrSnakeDoc/tlama/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tlama/internal/index"
	"github.com/MrSnakeDoc/tlama/internal/logger"
	"github.com/MrSnakeDoc/tlama/internal/metrics"
	"github.com/MrSnakeDoc/tlama/internal/pipeline"
	"github.com/MrSnakeDoc/tlama/internal/preferences"
	"github.com/MrSnakeDoc/tlama/internal/redis"
	"github.com/MrSnakeDoc/tlama/internal/scheduler"
	"github.com/MrSnakeDoc/tlama/internal/sources/tlama"
	badgerstore "github.com/MrSnakeDoc/tlama/internal/store/badger"
	redisstore "github.com/MrSnakeDoc/tlama/internal/store/redis"
	"github.com/MrSnakeDoc/tlama/internal/transport"
	"github.com/MrSnakeDoc/tlama/internal/version"
)

// App holds the wired pipeline shared by every command.
type App struct {
	cfg    *config.Config
	logger logger.Logger

	Settings   *preferences.Settings
	Site       *tlama.Site
	Store      pipeline.Store
	Registry   *prometheus.Registry
	Reconciler *pipeline.Reconciler
	Crawler    *pipeline.Crawler

	transport   *transport.Client
	redisClient *goredis.Client
	badgerStore *badgerstore.Store
}

// New wires config, store, transport and pipeline. The store is redis when
// an address is configured, otherwise the on-disk cache under DataDir.
// TLAMA_STORE=memory keeps items for the lifetime of the process only.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	settings, err := preferences.Load(cfg.PreferencesFile)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	site, err := tlama.NewSite(tlama.Options{
		BaseURL:       cfg.BaseURL,
		ShopPath:      settings.Catalog.ShopPath,
		PagePath:      settings.Catalog.PagePath,
		PromoSelector: settings.Catalog.PromoSelector,
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		logger:   log,
		Settings: settings,
		Site:     site,
		Registry: prometheus.NewRegistry(),
	}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	switch cfg.StoreBackend() {
	case config.StoreRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redisClient = client
		a.Store = redisstore.NewStore(client)
	case config.StoreBadger:
		db, err := badgerstore.Open(cfg.DataDir, log)
		if err != nil {
			return nil, err
		}
		a.badgerStore = db
		a.Store = db
	default:
		log.Debug("using in-memory store, items are lost on exit")
		a.Store = index.NewMemoryIndex()
	}

	m := metrics.New(a.Registry)

	a.transport = transport.New(transport.Options{
		Timeout:         cfg.HTTPTimeout,
		RequestInterval: cfg.RequestInterval,
		UserAgent:       cfg.UserAgent,
		BrowserBin:      cfg.BrowserBin,
		BrowserHeadless: cfg.BrowserHeadless,
	}, log)

	a.Reconciler = pipeline.NewReconciler(a.Store, domain.NewScorer(settings.Preferences), log, m)
	a.Crawler = pipeline.NewCrawler(
		a.transport,
		site,
		domain.NewQueryBuilder(settings.Vocabulary),
		a.Reconciler,
		pipeline.CrawlerOptions{MaxPages: cfg.MaxPages},
		log,
		m,
	)

	return a, nil
}

// Close releases the browser and the store.
func (a *App) Close() error {
	var errs []error
	if err := a.transport.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.badgerStore != nil {
		if err := a.badgerStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close item cache: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Serve runs the HTTP API with periodic rescoring and, when scheduled, the
// recurring crawl. It blocks until ctx is cancelled or the server fails.
func (a *App) Serve(ctx context.Context) error {
	a.logger.Infof("🚀 Starting tlama v%s on %s (store=%s)", version.Version, a.cfg.ListenPort, a.Store.Kind())

	rescoreTrigger := make(chan struct{}, 1)
	rescorer := scheduler.NewRescorer(a.Reconciler, a.logger, a.cfg.RescoreInterval, rescoreTrigger)
	if err := rescorer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start rescorer: %w", err)
	}
	defer rescorer.Stop()
	a.logger.Info("rescorer started",
		logger.Duration("interval", a.cfg.RescoreInterval))

	if a.cfg.CrawlSchedule != "" {
		job, err := scheduler.NewCrawlJob(a.Crawler, a.cfg.CrawlSchedule, a.cfg.CrawlFilters, a.logger)
		if err != nil {
			return err
		}
		if err := job.Start(ctx); err != nil {
			return fmt.Errorf("failed to start crawl job: %w", err)
		}
		defer job.Stop()
	}

	server := httpserver.New(a.cfg.ListenPort, a.logger, deps.Deps{
		Logger:         a.logger,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		AllowedCIDRS:   a.cfg.AllowedCIDRS,
		TrustProxy:     a.cfg.TrustProxy,
		Items:          a.Reconciler,
		ItemURLs:       a.Site,
		Store:          a.Store,
		Rescorer:       rescorer,
		RescoreTrigger: rescoreTrigger,
		Gatherer:       a.Registry,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ tlama stopped cleanly")
	return nil
}
