package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spigell/talentpool/internal/pipeline"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "talentpool"

	envGeminiAPIKey = "GEMINI_API_KEY"
)

type Config struct {
	Gemini   *GeminiConfig  `mapstructure:"gemini"`
	Import   ImportConfig   `mapstructure:"import"`
	Store    StoreConfig    `mapstructure:"store"`
	Progress ProgressConfig `mapstructure:"progress"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type ImportConfig struct {
	Batch   pipeline.Options `mapstructure:",squash"`
	Weights map[string]int   `mapstructure:"weights"`
}

type StoreConfig struct {
	PostgresDSN string `mapstructure:"postgres-dsn"`
	Migrate     bool   `mapstructure:"migrate"`
}

type ProgressConfig struct {
	RedisAddr     string        `mapstructure:"redis-addr"`
	RedisPassword string        `mapstructure:"redis-password"`
	RedisDB       int           `mapstructure:"redis-db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talentpool imports résumé PDFs into a candidate pool and scores them against jobs",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"gemini.api-key-file":     "GEMINI_API_KEY_FILE",
		"store.postgres-dsn":      "TALENTPOOL_POSTGRES_DSN",
		"progress.redis-addr":     "TALENTPOOL_REDIS_ADDR",
		"progress.redis-password": "TALENTPOOL_REDIS_PASSWORD",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("gemini.max-retries", 4)
	viper.SetDefault("gemini.max-log-length", 200)
	viper.SetDefault("import.batch-size", pipeline.DefaultBatchSize)
	viper.SetDefault("import.batch-pause", pipeline.DefaultBatchPause)
	viper.SetDefault("import.retry-pause", pipeline.DefaultRetryPause)
	viper.SetDefault("import.weights", map[string]int{"skills": 40, "technologies": 35, "experience": 25})
	viper.SetDefault("store.migrate", true)
	viper.SetDefault("progress.ttl", time.Hour)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talentpool.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The default config file is optional, an explicit one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Gemini == nil {
		config.Gemini = &GeminiConfig{}
	}

	return config, nil
}
