package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"fullscreen-quiz-service/internal/app"
	"fullscreen-quiz-service/internal/config"
	"fullscreen-quiz-service/internal/infra/memory"
	pgstore "fullscreen-quiz-service/internal/infra/postgres"
	redisstore "fullscreen-quiz-service/internal/infra/redis"
	"fullscreen-quiz-service/internal/infra/sqlite"
	"fullscreen-quiz-service/internal/logging"
	"fullscreen-quiz-service/internal/source"
	transport "fullscreen-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	questions, err := questionSource(cfg, pool)
	if err != nil {
		return err
	}

	var archive app.ResultArchive = memory.NewArchive()
	if pool != nil {
		archive = pgstore.NewResultArchive(pool)
	}

	settings := app.DefaultSettings()
	settings.Questions = cfg.Quiz.Amount
	settings.Budget = config.TTLDuration(cfg.Quiz.Budget, settings.Budget)
	settings.ResumeWindow = config.TTLDuration(cfg.Quiz.ResumeWindow, settings.ResumeWindow)

	persist := app.NewPersistence(store, log)
	service := app.NewQuizService(persist, questions, archive, settings, log)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(service, log, cfg.Server.CORSOrigins),
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"port": finalPort, "source": cfg.Quiz.Source}).Info("starting quiz service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStore picks the snapshot backend: Redis when configured, then SQLite, then memory.
func openStore(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (app.Store, func(), error) {
	ttl := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)
	switch {
	case cfg.Redis.Addr != "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		log.WithField("addr", cfg.Redis.Addr).Info("using redis store")
		return redisstore.NewStore(client, ttl), func() { client.Close() }, nil
	case cfg.SQLite.Path != "":
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, err
			}
		}
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("path", cfg.SQLite.Path).Info("using sqlite store")
		return store, func() { store.Close() }, nil
	default:
		log.Info("using in-memory store")
		return memory.NewStore(ttl), func() {}, nil
	}
}

func questionSource(cfg config.Config, pool *pgxpool.Pool) (app.QuestionSource, error) {
	switch cfg.Quiz.Source {
	case "postgres":
		if pool == nil {
			return nil, errPostgresRequired
		}
		return pgstore.NewQuestionBank(pool, ""), nil
	case "static":
		return memory.NewStaticSource(memory.SampleQuestions()), nil
	default:
		return source.NewOpenTDB(nil, cfg.Quiz.ProviderURL, cfg.Quiz.Category), nil
	}
}
