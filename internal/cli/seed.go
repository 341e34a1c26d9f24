package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"trivia-events-service/internal/domain"
	mongostore "trivia-events-service/internal/infra/mongo"
	pgloader "trivia-events-service/internal/infra/postgres"
	rediscache "trivia-events-service/internal/infra/redis"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// NewSeedCmd loads weekly events (and optionally quiz-bank entries) from a YAML file.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load weekly events and quizzes from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with events and quizzes")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

type seedFile struct {
	Events  []domain.WeeklyEvent
	Quizzes []domain.Quiz
}

// decodeSeed reads the YAML document and routes it through the JSON decoders of the domain
// types, so node configs are decoded and checked the same way as on every other path.
func decodeSeed(data []byte) (seedFile, error) {
	var raw struct {
		Events  []map[string]any `yaml:"events"`
		Quizzes []map[string]any `yaml:"quizzes"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return seedFile{}, fmt.Errorf("parse seed yaml: %w", err)
	}

	var out seedFile
	for i, e := range raw.Events {
		var event domain.WeeklyEvent
		if err := viaJSON(e, &event); err != nil {
			return seedFile{}, fmt.Errorf("event %d: %w", i, err)
		}
		if err := event.Validate(); err != nil {
			return seedFile{}, err
		}
		out.Events = append(out.Events, event)
	}
	for i, q := range raw.Quizzes {
		var quiz domain.Quiz
		if err := viaJSON(q, &quiz); err != nil {
			return seedFile{}, fmt.Errorf("quiz %d: %w", i, err)
		}
		if quiz.ID == "" {
			return seedFile{}, fmt.Errorf("quiz %d: missing id", i)
		}
		out.Quizzes = append(out.Quizzes, quiz)
	}
	return out, nil
}

func viaJSON(in map[string]any, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	seed, err := decodeSeed(data)
	if err != nil {
		return err
	}

	if len(seed.Events) > 0 {
		client, db, err := openMongo(ctx, cfg)
		if err != nil {
			return err
		}
		if client == nil {
			return fmt.Errorf("mongo uri not configured")
		}
		defer client.Disconnect(context.Background())

		store := mongostore.NewEventStore(db)
		for _, event := range seed.Events {
			if err := store.Upsert(ctx, event); err != nil {
				return err
			}
			logger.Info("weekly event seeded", zap.String("week_key", event.WeekKey), zap.Int("nodes", len(event.Nodes)))
		}
	}

	if len(seed.Quizzes) > 0 {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
		pool, err := openPostgres(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader := pgloader.NewQuizLoader(pool)
		for _, quiz := range seed.Quizzes {
			if err := loader.SaveQuiz(ctx, quiz); err != nil {
				return err
			}
			logger.Info("quiz seeded", zap.String("quiz_id", quiz.ID), zap.Int("questions", len(quiz.Questions)))
		}
	}

	redisClient, err := openRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient == nil {
		return nil
	}
	defer redisClient.Close()

	// Running instances pick the new data up on their next resolution.
	if err := rediscache.NewEventCache(redisClient, nil, 0).Invalidate(ctx); err != nil {
		return err
	}
	quizzes := rediscache.NewQuizRepository(redisClient, nil, 0)
	for _, quiz := range seed.Quizzes {
		if err := quizzes.Evict(ctx, quiz.ID); err != nil {
			return err
		}
	}
	return nil
}
