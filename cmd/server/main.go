package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dylan-buck/UAF-Auto/config"
	"github.com/dylan-buck/UAF-Auto/pkg/customers"
	"github.com/dylan-buck/UAF-Auto/pkg/inventory"
	"github.com/dylan-buck/UAF-Auto/pkg/matching"
	"github.com/dylan-buck/UAF-Auto/pkg/orders"
	"github.com/dylan-buck/UAF-Auto/pkg/queue"
	"github.com/dylan-buck/UAF-Auto/pkg/redis"
	customerroutes "github.com/dylan-buck/UAF-Auto/pkg/routes/customer"
	"github.com/dylan-buck/UAF-Auto/pkg/routes/health"
	inventoryroutes "github.com/dylan-buck/UAF-Auto/pkg/routes/inventory"
	salesorderroutes "github.com/dylan-buck/UAF-Auto/pkg/routes/salesorder"
	"github.com/dylan-buck/UAF-Auto/pkg/sage"
	"github.com/dylan-buck/UAF-Auto/pkg/sage/providex"
	"github.com/dylan-buck/UAF-Auto/pkg/server"
	"github.com/dylan-buck/UAF-Auto/pkg/startup"
	"github.com/dylan-buck/UAF-Auto/pkg/tracing"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		panic(err)
	}

	logger := newLogger(&cfg)
	logger.WithFields(map[string]any{"app": cfg.AppName, "version": version}).Info("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := sage.NewPool(sage.PoolConfig{
		ServerPath:     cfg.SageServerPath,
		Company:        cfg.SageCompany,
		Username:       cfg.SageUsername,
		Password:       cfg.SagePassword,
		Module:         cfg.SageModule,
		Size:           cfg.SessionPoolSize,
		AcquireTimeout: cfg.SessionAcquireTimeout,
	}, providex.New(), logger)

	scorer := matching.NewScorer()
	customerService := customers.NewService(pool, scorer, customers.Config{
		SearchScanLimit:    cfg.CustomerScanLimit,
		DetailScanLimit:    cfg.ShipToScanLimit,
		ShipToCollectLimit: cfg.ShipToCollectLimit,
	}, logger)
	resolver := customers.NewResolver(customerService, scorer, customers.ResolverConfig{
		SearchSize:    cfg.ResolutionSearchSize,
		Shortlist:     cfg.ResolutionShortlist,
		MinConfidence: cfg.MinConfidenceDefault,
	}, logger)
	orderService := orders.NewService(pool, logger)
	inventoryService := inventory.NewService(logger)

	var (
		redisClient *redis.Client
		jobStore    *queue.Store
		worker      *queue.Worker
	)

	boot := startup.New(logger, cfg.StartupMaxAttempts)

	boot.AddDependency(&tracingDependency{cfg: &cfg, logger: logger})
	boot.AddDependency(&poolDependency{cfg: &cfg, pool: pool, logger: logger})

	httpDeps := []string{"sage-pool"}
	if cfg.QueueEnabled {
		boot.AddDependency(&redisDependency{
			cfg:    &cfg,
			logger: logger,
			client: &redisClient,
			store:  &jobStore,
		})
		boot.AddDependency(&workerDependency{
			cfg:    &cfg,
			orders: orderService,
			logger: logger,
			store:  &jobStore,
			worker: &worker,
		})
		httpDeps = append(httpDeps, "queue-worker")
	}

	checker := health.NewChecker(pool, nil, version)

	// Route handlers are built lazily inside the http dependency so the
	// queue store pointer is populated by the time routes register.
	e := server.New(&cfg, logger)
	routeDeps := []string{}
	if cfg.QueueEnabled {
		routeDeps = append(routeDeps, "redis")
	}
	boot.AddDependency(&routesDependency{
		dependsOn: routeDeps,
		register: func() {
			if redisClient != nil {
				checker = health.NewChecker(pool, redisClient, version)
			}
			checker.RegisterRoutes(e)
			customerroutes.NewHandler(customerService, resolver).RegisterRoutes(e)
			salesorderroutes.NewHandler(orderService, jobStore).RegisterRoutes(e)
			inventoryroutes.NewHandler(inventoryService).RegisterRoutes(e)
		},
	})
	boot.AddDependency(server.NewDependency(e, cfg.Port, logger, append(httpDeps, "routes")...))

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("startup failed")
		os.Exit(1)
	}
	checker.SetReady(true)
	logger.Info("startup complete")

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := boot.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown finished with errors")
	}
	logger.Info("shutdown complete")
}

func newLogger(cfg *config.Config) ectologger.Logger {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

type tracingDependency struct {
	cfg      *config.Config
	logger   ectologger.Logger
	shutdown func(context.Context) error
}

func (d *tracingDependency) GetName() string     { return "tracing" }
func (d *tracingDependency) DependsOn() []string { return nil }

func (d *tracingDependency) Start(ctx context.Context) error {
	shutdown, err := tracing.Init(ctx, tracing.Config{
		ServiceName: d.cfg.AppName,
		Endpoint:    d.cfg.TracingEndpoint,
		Enabled:     d.cfg.TracingEnabled,
		Insecure:    d.cfg.TracingInsecure,
	})
	if err != nil {
		return err
	}
	d.shutdown = shutdown
	return nil
}

func (d *tracingDependency) Stop(ctx context.Context) error {
	if d.shutdown == nil {
		return nil
	}
	return d.shutdown(ctx)
}

type poolDependency struct {
	cfg    *config.Config
	pool   *sage.Pool
	logger ectologger.Logger
}

func (d *poolDependency) GetName() string     { return "sage-pool" }
func (d *poolDependency) DependsOn() []string { return nil }

func (d *poolDependency) Start(ctx context.Context) error {
	if d.cfg.SessionWarmOnStartup {
		d.pool.Warm(ctx)
	}
	return nil
}

func (d *poolDependency) Stop(ctx context.Context) error {
	d.pool.Close()
	return nil
}

type redisDependency struct {
	cfg    *config.Config
	logger ectologger.Logger
	client **redis.Client
	store  **queue.Store
}

func (d *redisDependency) GetName() string     { return "redis" }
func (d *redisDependency) DependsOn() []string { return nil }

func (d *redisDependency) Start(ctx context.Context) error {
	client, err := redis.NewClient(redis.Config{
		Host:     d.cfg.RedisHost,
		Port:     d.cfg.RedisPort,
		Password: d.cfg.RedisPassword,
		DB:       d.cfg.RedisDB,
	}, d.logger)
	if err != nil {
		return err
	}
	*d.client = client
	*d.store = queue.NewStore(client, d.cfg.QueueJobTTL, d.cfg.QueueMaxRetries, d.logger)
	return nil
}

func (d *redisDependency) Stop(ctx context.Context) error {
	if *d.client == nil {
		return nil
	}
	return (*d.client).Close()
}

type workerDependency struct {
	cfg    *config.Config
	orders *orders.Service
	logger ectologger.Logger
	store  **queue.Store
	worker **queue.Worker
}

func (d *workerDependency) GetName() string     { return "queue-worker" }
func (d *workerDependency) DependsOn() []string { return []string{"redis", "sage-pool"} }

func (d *workerDependency) Start(ctx context.Context) error {
	w := queue.NewWorker(*d.store, d.orders, queue.WorkerConfig{
		PollInterval:  d.cfg.QueuePollInterval,
		RetryBaseWait: d.cfg.QueueRetryBaseWait,
		WorkerCount:   d.cfg.QueueWorkerCount,
	}, d.logger)
	if err := w.Start(ctx); err != nil {
		return err
	}
	*d.worker = w
	return nil
}

func (d *workerDependency) Stop(ctx context.Context) error {
	if *d.worker == nil {
		return nil
	}
	return (*d.worker).Stop(ctx)
}

type routesDependency struct {
	register  func()
	dependsOn []string
}

func (d *routesDependency) GetName() string     { return "routes" }
func (d *routesDependency) DependsOn() []string { return d.dependsOn }

func (d *routesDependency) Start(ctx context.Context) error {
	d.register()
	return nil
}

func (d *routesDependency) Stop(ctx context.Context) error { return nil }
