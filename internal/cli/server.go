package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"knowledge-quiz/internal/app"
	"knowledge-quiz/internal/config"
	"knowledge-quiz/internal/infra/memory"
	"knowledge-quiz/internal/infra/postgres"
	rediscache "knowledge-quiz/internal/infra/redis"
	"knowledge-quiz/internal/infra/sqlite"
	"knowledge-quiz/internal/logger"
	transport "knowledge-quiz/internal/transport/http"
	"knowledge-quiz/internal/trivia"
)

const (
	defaultCacheTTL      = 30 * time.Second
	defaultTriviaTimeout = 10 * time.Second
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", "", "port to listen on (overrides config)")
	return cmd
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	players, closeStore, err := openPlayerStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	server := &http.Server{
		Addr: ":" + finalPort,
		Handler: transport.NewRouter(transport.Deps{
			Players:   players,
			Questions: newTriviaClient(cfg, log),
			Logger:    log,
		}),
		ReadHeaderTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting quiz server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down quiz server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newTriviaClient(cfg config.Config, log *zap.Logger) *trivia.Client {
	return trivia.NewClient(cfg.Trivia.BaseURL,
		trivia.WithTimeout(config.TTLDuration(cfg.Trivia.Timeout, defaultTriviaTimeout)),
		trivia.WithLogger(log),
	)
}

// openPlayerStore selects the backend named by the config and puts a
// leaderboard cache in front of it. The returned func releases everything.
func openPlayerStore(ctx context.Context, cfg config.Config, log *zap.Logger) (app.PlayerStore, func(), error) {
	var (
		store   memory.Store
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	driver := cfg.StoreDriver()
	switch driver {
	case config.DriverMemory:
		store = memory.NewPlayerStore()
	case config.DriverSQLite:
		s, err := sqlite.NewPlayerStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = s.Close() })
		store = s
	case config.DriverPostgres:
		if err := runMigrations(ctx, cfg, log); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		store = postgres.NewPlayerStore(pool)
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", driver)
	}
	log.Info("player store ready", zap.String("driver", driver))

	ttl := config.TTLDuration(cfg.Cache.TTL, defaultCacheTTL)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			// The cache falls back to the store on every redis error.
			log.Warn("redis unreachable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		return rediscache.NewCachedPlayerStore(client, store, ttl, log), closeAll, nil
	}
	return memory.NewCachedPlayerStore(store, ttl), closeAll, nil
}
