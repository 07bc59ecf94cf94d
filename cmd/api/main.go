package main

import (
	"context"
	"time"

	"github.com/abhishek622/careerflow/internal/auth"
	"github.com/abhishek622/careerflow/internal/cache"
	"github.com/abhishek622/careerflow/internal/calendar"
	"github.com/abhishek622/careerflow/internal/config"
	"github.com/abhishek622/careerflow/internal/database"
	"github.com/abhishek622/careerflow/internal/gateway"
	"github.com/abhishek622/careerflow/internal/handler"
	"github.com/abhishek622/careerflow/internal/logger"
	"github.com/abhishek622/careerflow/internal/repository"
	"github.com/abhishek622/careerflow/internal/workspace"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

type application struct {
	Logger     *zap.Logger
	Config     *config.Config
	Gateway    gateway.Gateway
	TokenMaker *auth.JWTMaker
	Registry   *workspace.Registry
	Handler    *handler.Handler
	limiter    *clientLimiter
}

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, _ := logger.NewLogger(cfg.Env)
	defer log.Sync()
	sugar := log.Sugar()
	sugar.Infof("config loaded: %s", cfg.String())

	gw, closeGateway, err := openGateway(ctx, cfg, log)
	if err != nil {
		sugar.Fatal(err)
	}
	defer closeGateway()

	cal, err := calendar.Open(cfg.Calendar.Path)
	if err != nil {
		sugar.Fatal(err)
	}
	defer cal.Close()

	registry := workspace.NewRegistry(workspace.Config{
		Gateway:  gw,
		Calendar: cal,
		Currency: cfg.Defaults.Currency,
		Logger:   log,
	})

	app := &application{
		Logger:     log,
		Config:     cfg,
		Gateway:    gw,
		TokenMaker: auth.NewJWTMaker(cfg.JWT.Secret),
		Registry:   registry,
		Handler:    handler.New(log, registry, cfg.Defaults.StalledDays),
		limiter:    newClientLimiter(cfg.Limiter.RPS, cfg.Limiter.Burst, 3*time.Minute),
	}

	if err := app.serve(); err != nil {
		sugar.Fatal(err)
	}
}

// openGateway builds the configured gateway, wrapped in the redis read
// cache when enabled.
func openGateway(ctx context.Context, cfg *config.Config, log *zap.Logger) (gateway.Gateway, func(), error) {
	var (
		gw      gateway.Gateway
		closers []func()
	)
	switch cfg.Gateway.Driver {
	case "memory":
		log.Sugar().Warnw("using in-memory gateway, data is lost on restart")
		gw = gateway.NewMemory()
	default:
		pool, err := database.Connect(ctx, cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pool.Close)
		if cfg.DB.AutoMigrate {
			if err := database.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		gw = repository.NewPostgres(pool)
	}

	if cfg.Redis.Enabled {
		rdb := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := cache.Ping(ctx, rdb); err != nil {
			log.Sugar().Warnw("redis unreachable, reads will fall through", "addr", cfg.Redis.Addr, "err", err)
		}
		closers = append(closers, func() { _ = rdb.Close() })
		gw = gateway.NewCached(gw, cache.NewHashCache(rdb, "careerflow", cfg.Redis.TTL), log)
	}

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return gw, closeAll, nil
}
