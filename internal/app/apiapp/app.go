package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kindledapp/kindled/internal/config"
	"github.com/kindledapp/kindled/internal/metrics"
	"github.com/kindledapp/kindled/internal/realtime"
	pgrepo "github.com/kindledapp/kindled/internal/repo/postgres"
	redrepo "github.com/kindledapp/kindled/internal/repo/redis"
	authsvc "github.com/kindledapp/kindled/internal/services/auth"
	chatsvc "github.com/kindledapp/kindled/internal/services/chat"
	discoverysvc "github.com/kindledapp/kindled/internal/services/discovery"
	matchsvc "github.com/kindledapp/kindled/internal/services/matches"
	profilesvc "github.com/kindledapp/kindled/internal/services/profiles"
	ratesvc "github.com/kindledapp/kindled/internal/services/rate"
	swipesvc "github.com/kindledapp/kindled/internal/services/swipes"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
		if err := pgrepo.RunMigrations(cfg.Postgres.DSN); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)

	userRepo := pgrepo.NewUserRepo(pool)
	profileRepo := pgrepo.NewProfileRepo(pool)
	discoveryRepo := pgrepo.NewDiscoveryRepo(pool)
	swipeRepo := pgrepo.NewSwipeRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	messageRepo := pgrepo.NewMessageRepo(pool)

	// A per-app registry keeps repeated App constructions (tests mostly)
	// from colliding on the global default registerer.
	metricsRegistry := prometheus.NewRegistry()
	appMetrics := metrics.New(metricsRegistry)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, sessionRepo, cfg.Auth.RefreshTTL)
	profileService := profilesvc.NewService(profileRepo)
	discoveryService := discoverysvc.NewService(discoverysvc.Dependencies{
		Candidates: discoveryRepo,
		Profiles:   profileRepo,
		Stats:      swipeRepo,
	}, discoverysvc.Config{
		DefaultAgeMin: cfg.Discovery.DefaultAgeMin,
		DefaultAgeMax: cfg.Discovery.DefaultAgeMax,
		DefaultLimit:  cfg.Discovery.DefaultLimit,
		MaxLimit:      cfg.Discovery.MaxLimit,
	})
	rateLimiter := ratesvc.NewLimiter(rateRepo, cfg.Limits.SwipesPerMinute, cfg.Limits.SwipesPer10Sec)
	matchService := matchsvc.NewService(matchsvc.Dependencies{
		MatchStore:   matchRepo,
		ProfileStore: profileRepo,
		MessageStore: messageRepo,
		Logger:       log,
	})
	chatService := chatsvc.NewService(chatsvc.Dependencies{
		MessageStore: messageRepo,
		MatchStore:   matchRepo,
		Metrics:      appMetrics,
	})

	hub := realtime.NewHub(appMetrics, log)
	swipeService := swipesvc.NewService(swipesvc.Dependencies{
		Pool:         pool,
		SwipeStore:   swipeRepo,
		MatchStore:   matchRepo,
		UserStore:    userRepo,
		ProfileStore: profileRepo,
		RateLimiter:  rateLimiter,
		Notifier:     hub,
		Metrics:      appMetrics,
		Logger:       log,
	})
	realtimeHandler := realtime.NewHandler(hub, authService, chatService, matchService, cfg.Realtime, log)

	RegisterRoutes(r, Dependencies{
		AuthService:      authService,
		ProfileService:   profileService,
		DiscoveryService: discoveryService,
		SwipeService:     swipeService,
		MatchService:     matchService,
		ChatService:      chatService,
		RealtimeHandler:  realtimeHandler,
		MetricsGatherer:  metricsRegistry,
		Logger:           log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
