package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rogerio-castellano/product-management/internal/auth"
	"github.com/rogerio-castellano/product-management/internal/config"
	"github.com/rogerio-castellano/product-management/internal/db"
	"github.com/rogerio-castellano/product-management/internal/http/ban"
	"github.com/rogerio-castellano/product-management/internal/http/handlers"
	rl "github.com/rogerio-castellano/product-management/internal/http/rate_limiter"
	"github.com/rogerio-castellano/product-management/internal/http/router"
	"github.com/rogerio-castellano/product-management/internal/logger"
	"github.com/rogerio-castellano/product-management/internal/productclient"
	"github.com/rogerio-castellano/product-management/internal/redissvc"
	"github.com/rogerio-castellano/product-management/internal/repo"
	"github.com/rogerio-castellano/product-management/internal/service"
)

const refreshSweepInterval = 30 * time.Minute

// runtime is what both services share: config, logger, database, optional redis and
// the background loops that must stop with the server.
type runtime struct {
	cfg        *config.Config
	log        *zap.Logger
	db         *sql.DB
	rdb        *redis.Client
	issuer     *auth.TokenIssuer
	refresh    auth.RefreshStore
	guard      router.Guard
	background []func(ctx context.Context)
}

func loadConfig(c *cli.Context, service string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid configuration")
	}
	log, err := logger.Init(cfg.Env, cfg.Log.Level, service)
	if err != nil {
		return nil, nil, errors.Wrap(err, "init logger")
	}
	return cfg, log, nil
}

func setup(c *cli.Context, service string) (*runtime, error) {
	cfg, log, err := loadConfig(c, service)
	if err != nil {
		return nil, err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	log.Info("starting", cfg.Fields()...)

	database, err := db.Connect(c.Context, cfg.Database)
	if err != nil {
		return nil, err
	}
	if c.Bool("migrate") {
		if err := db.MigrateUp(database); err != nil {
			_ = database.Close()
			return nil, err
		}
		log.Info("migrations applied")
	}

	rdb, err := redissvc.Connect(c.Context, cfg.Redis)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	rt := &runtime{
		cfg:    cfg,
		log:    log,
		db:     database,
		rdb:    rdb,
		issuer: auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL),
	}

	limiter := rl.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	rt.background = append(rt.background, limiter.StartCleanupLoop)
	policy := ban.Policy{Threshold: cfg.RateLimit.BanThreshold, Duration: cfg.RateLimit.BanDuration}

	if rdb != nil {
		rt.refresh = auth.NewRedisRefreshStore(rdb)
		rt.guard = router.Guard{Limiter: limiter, Bans: ban.NewRedisStore(rdb, policy)}
	} else {
		log.Warn("redis not configured, using in-memory refresh token and ban stores")
		mem := auth.NewMemoryRefreshStore()
		rt.refresh = mem
		rt.background = append(rt.background, func(ctx context.Context) {
			mem.StartCleaner(ctx, refreshSweepInterval)
		})
		rt.guard = router.Guard{Limiter: limiter, Bans: ban.NewMemoryStore(policy)}
	}
	return rt, nil
}

func (rt *runtime) close() {
	if rt.rdb != nil {
		_ = rt.rdb.Close()
	}
	_ = rt.db.Close()
	_ = rt.log.Sync()
}

// serve runs the HTTP server and the background loops until SIGINT/SIGTERM, then
// shuts the server down within the configured timeout.
func (rt *runtime) serve(parent context.Context, handler http.Handler) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         rt.cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  rt.cfg.Server.ReadTimeout,
		WriteTimeout: rt.cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rt.log.Info("server running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		rt.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	for _, loop := range rt.background {
		loop := loop
		g.Go(func() error {
			loop(gctx)
			return nil
		})
	}
	return g.Wait()
}

func serveProducts(c *cli.Context) error {
	rt, err := setup(c, "product-service")
	if err != nil {
		return err
	}
	defer rt.close()

	products := repo.NewPostgresProductRepository(rt.db)
	users := repo.NewPostgresUserRepository(rt.db)

	api := &handlers.ProductAPI{
		Products: service.NewProductService(products, users),
		Auth:     service.NewAuthService(users, rt.issuer, rt.refresh, rt.cfg.JWT.RefreshTTL),
		Metrics:  repo.NewPostgresMetricsRepository(rt.db),
	}
	return rt.serve(c.Context, router.NewProductRouter(api, rt.issuer, rt.guard))
}

func serveUsers(c *cli.Context) error {
	rt, err := setup(c, "user-service")
	if err != nil {
		return err
	}
	defer rt.close()

	users := repo.NewPostgresUserRepository(rt.db)

	api := &handlers.UserAPI{
		Users:    service.NewUserService(users),
		Auth:     service.NewAuthService(users, rt.issuer, rt.refresh, rt.cfg.JWT.RefreshTTL),
		Products: productclient.New(rt.cfg.ProductService.URL, rt.cfg.ProductService.Timeout),
		Bans:     rt.guard.Bans,
	}
	return rt.serve(c.Context, router.NewUserRouter(api, rt.issuer, rt.guard))
}
