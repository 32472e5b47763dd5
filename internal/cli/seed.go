package cli

import (
	"context"

	"fullscreen-quiz-service/internal/config"
	"fullscreen-quiz-service/internal/infra/memory"
	pgstore "fullscreen-quiz-service/internal/infra/postgres"
	"fullscreen-quiz-service/internal/logging"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewSeedCmd fills the Postgres question bank with the built-in sample questions.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the question bank with sample questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	bank := pgstore.NewQuestionBank(pool, "")
	questions := memory.SampleQuestions()
	added := 0
	for _, q := range questions {
		inserted, err := bank.AddQuestion(ctx, q)
		if err != nil {
			return err
		}
		if inserted {
			added++
		}
	}
	log.WithFields(logrus.Fields{"added": added, "skipped": len(questions) - added}).Info("question bank seeded")
	return nil
}
