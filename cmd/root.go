package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spigell/talentscore/internal/moderation"
	"github.com/spigell/talentscore/internal/ranking"
	"github.com/spigell/talentscore/internal/vectorindex"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "talentscore"

	providerGemini = "gemini"
	providerOpenAI = "openai"
	providerNone   = "none"

	backendSQLite = "sqlite"
	backendMemory = "memory"
	backendChroma = "chroma"
)

type Config struct {
	AI         *AIConfig          `mapstructure:"ai"`
	Index      *IndexConfig       `mapstructure:"index"`
	Cache      *CacheConfig       `mapstructure:"cache"`
	Storage    *StorageConfig     `mapstructure:"storage"`
	Moderation *ModerationConfig  `mapstructure:"moderation"`
	Ranking    ranking.Aggregator `mapstructure:"ranking"`
	Reindex    *ReindexConfig     `mapstructure:"reindex"`
}

type AIConfig struct {
	Provider      string        `mapstructure:"provider"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxInputChars int           `mapstructure:"max-input-chars"`
	Gemini        *GeminiConfig `mapstructure:"gemini"`
	OpenAI        *OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api-key"`
	APIKeyFile     string `mapstructure:"api-key-file"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding-model"`
	MaxRetries     int    `mapstructure:"max-retries"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
}

type OpenAIConfig struct {
	APIKey         string `mapstructure:"api-key"`
	APIKeyFile     string `mapstructure:"api-key-file"`
	BaseURL        string `mapstructure:"base-url"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding-model"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
}

type IndexConfig struct {
	Backend   string                   `mapstructure:"backend"`
	Overfetch int                      `mapstructure:"overfetch"`
	Chroma    vectorindex.ChromaConfig `mapstructure:"chroma"`
}

type CacheConfig struct {
	Redis *RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"`
}

type ModerationConfig struct {
	moderation.Thresholds `mapstructure:",squash"`
	Concurrency           int           `mapstructure:"concurrency"`
	Delay                 time.Duration `mapstructure:"delay"`
}

type ReindexConfig struct {
	Schedule string `mapstructure:"schedule"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talentscore extracts, scores, moderates and matches resumes and job postings",
	}
)

// Execute executes the root command. Cancelling ctx stops in-flight work
// before anything else is written.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	for key, env := range map[string]string{
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"ai.openai.api-key-file": "OPENAI_API_KEY_FILE",
		"cache.redis.url":        "TALENTSCORE_REDIS_URL",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("ai.provider", providerNone)
	viper.SetDefault("index.backend", backendSQLite)
	viper.SetDefault("storage.path", "data/talentscore.db")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talentscore.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("output", "o", "yaml", "result format: yaml or json")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// A missing default config is fine, every section has defaults. A broken or
	// explicitly requested one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.AI == nil {
		c.AI = &AIConfig{}
	}
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if c.AI.Provider == "" {
		c.AI.Provider = providerNone
	}
	if c.Index == nil {
		c.Index = &IndexConfig{}
	}
	c.Index.Backend = strings.ToLower(strings.TrimSpace(c.Index.Backend))
	if c.Index.Backend == "" {
		c.Index.Backend = backendSQLite
	}
	if c.Storage == nil {
		c.Storage = &StorageConfig{}
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		c.Storage.Path = "data/talentscore.db"
	}
	if c.Moderation == nil {
		c.Moderation = &ModerationConfig{}
	}
	if c.Moderation.Thresholds == (moderation.Thresholds{}) {
		c.Moderation.Thresholds = moderation.DefaultThresholds()
	}
	if c.Moderation.Delay == 0 {
		c.Moderation.Delay = moderation.DefaultDelay
	}
	if c.Reindex == nil {
		c.Reindex = &ReindexConfig{}
	}
}

// Validate checks the config after defaults were applied.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case providerNone:
	case providerGemini:
		if c.AI.Gemini == nil {
			c.AI.Gemini = &GeminiConfig{}
		}
	case providerOpenAI:
		if c.AI.OpenAI == nil {
			c.AI.OpenAI = &OpenAIConfig{}
		}
	default:
		return fmt.Errorf("unsupported ai provider: %s", c.AI.Provider)
	}
	if c.AI.Timeout < 0 {
		return fmt.Errorf("ai.timeout must not be negative, got %s", c.AI.Timeout)
	}

	switch c.Index.Backend {
	case backendSQLite, backendMemory:
	case backendChroma:
		if strings.TrimSpace(c.Index.Chroma.URL) == "" || strings.TrimSpace(c.Index.Chroma.Collection) == "" {
			return errors.New("index.chroma.url and index.chroma.collection are required for the chroma backend")
		}
	default:
		return fmt.Errorf("unsupported index backend: %s", c.Index.Backend)
	}

	if err := c.Moderation.Thresholds.Validate(); err != nil {
		return err
	}
	if c.Moderation.Concurrency > moderation.MaxConcurrency {
		return fmt.Errorf("moderation.concurrency must be at most %d, got %d", moderation.MaxConcurrency, c.Moderation.Concurrency)
	}
	if c.Ranking.RecentWindow < 0 {
		return fmt.Errorf("ranking.recent-window must not be negative, got %s", c.Ranking.RecentWindow)
	}

	return nil
}
