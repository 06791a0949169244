package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/spigell/talentpool/internal/ai"
	"github.com/spigell/talentpool/internal/ai/gemini"
	"github.com/spigell/talentpool/internal/logger"
	"github.com/spigell/talentpool/internal/progress"
	"github.com/spigell/talentpool/internal/resume"
	"github.com/spigell/talentpool/internal/secrets"
	"github.com/spigell/talentpool/internal/store"

	"github.com/manifoldco/promptui"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"

	strategyGemini    = "gemini"
	strategyHeuristic = "heuristic"
)

// setup builds the logger and loads the config shared by every command.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return logger, config
}

func newGateway(ctx context.Context, cfg *GeminiConfig, logger *zap.Logger) (*gemini.Gateway, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   envGeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrMissingCredential, err)
	}

	genLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", cfg.Model),
		zap.Int("ai_retry_attempts", cfg.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewGateway(generator, cfg.MaxLogLength, logger), nil
}

func newExtractor(ctx context.Context, strategy string, cfg *Config, logger *zap.Logger) (ai.Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", strategyGemini:
		return newGateway(ctx, cfg.Gemini, logger)
	case strategyHeuristic:
		return resume.HeuristicExtractor{Parser: resume.NewParser(nil, nil)}, nil
	default:
		return nil, fmt.Errorf("unsupported extraction strategy: %s", strategy)
	}
}

// newStore returns the Postgres store when a DSN is configured and an
// in-memory one otherwise.
func newStore(ctx context.Context, cfg StoreConfig, logger *zap.Logger) (store.Store, func(), error) {
	if cfg.PostgresDSN == "" {
		logger.Warn("store.postgres-dsn is not set, candidates are kept in memory for this run only")
		return store.NewMemory(), func() {}, nil
	}

	pool, err := store.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}

	pg := store.NewPostgres(pool, logger)
	if cfg.Migrate {
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrating candidate store: %w", err)
		}
	}
	return pg, pool.Close, nil
}

func newProgressStore(ctx context.Context, cfg ProgressConfig, logger *zap.Logger) (progress.Store, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Debug("progress.redis-addr is not set, progress is kept in memory")
		return progress.NewMemory(cfg.TTL), func() {}, nil
	}

	client, err := progress.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return progress.NewRedis(client, cfg.TTL), func() { client.Close() }, nil
}

// abortRun records a failure that happened before the run could start, so a
// poller reads an error instead of idle.
func abortRun(ctx context.Context, states progress.Store, key string, cause error) error {
	return states.Set(ctx, key, progress.Update{Status: progress.StatusError, Message: cause.Error()})
}

// confirm asks before a run that calls the inference service.
func confirm(label string) (bool, error) {
	prompt := promptui.Select{
		Label: label,
		Items: []string{PromptYes, PromptNo},
	}
	_, answer, err := prompt.Run()
	if err != nil {
		return false, err
	}
	return answer == PromptYes, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// progressLogger mirrors every update into the log.
func progressLogger(logger *zap.Logger) progress.Func {
	return func(u progress.Update) {
		fields := []zap.Field{
			zap.String("status", string(u.Status)),
			zap.Int("processed", u.Processed),
			zap.Int("total", u.Total),
			zap.Int("errors", u.Errors),
		}
		if u.Current != nil {
			fields = append(fields, zap.String("current", *u.Current))
		}
		logger.Info("progress", fields...)
	}
}
