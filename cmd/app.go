package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/spigell/talentscore/internal/ai"
	"github.com/spigell/talentscore/internal/ai/gemini"
	"github.com/spigell/talentscore/internal/ai/openai"
	"github.com/spigell/talentscore/internal/extraction"
	"github.com/spigell/talentscore/internal/logger"
	"github.com/spigell/talentscore/internal/moderation"
	"github.com/spigell/talentscore/internal/secrets"
	"github.com/spigell/talentscore/internal/service"
	"github.com/spigell/talentscore/internal/source"
	"github.com/spigell/talentscore/internal/storage"
	"github.com/spigell/talentscore/internal/vectorindex"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// remoteClient is what both provider clients implement.
type remoteClient interface {
	ai.Generator
	ai.Embedder
}

// errNoEmbedder is returned when a command needs embeddings but no provider is set.
var errNoEmbedder = errors.New("an ai provider (gemini or openai) is required for embeddings")

// noEmbedder keeps attribute-only commands usable without a provider.
type noEmbedder struct{}

func (noEmbedder) Embed(context.Context, string) ([]float32, error) { return nil, errNoEmbedder }
func (noEmbedder) EmbeddingModel() string                           { return providerNone }

type application struct {
	config  *Config
	logger  *zap.Logger
	service *service.Service
	closers []io.Closer
}

// setup builds the logger, reads the config and wires every collaborator.
func setup(ctx context.Context) *application {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the talentscore", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	a, err := newApplication(ctx, config, logger)
	if err != nil {
		logger.Fatal("initializing", zap.Error(err))
	}
	return a
}

func newApplication(ctx context.Context, config *Config, log *zap.Logger) (*application, error) {
	a := &application{config: config, logger: log}

	client, err := newRemoteClient(ctx, config.AI, log)
	if err != nil {
		return nil, err
	}

	var (
		generator ai.Generator
		embedder  ai.Embedder = noEmbedder{}
	)
	if client != nil {
		generator, embedder = client, client
	}

	if config.Cache != nil && config.Cache.Redis != nil && strings.TrimSpace(config.Cache.Redis.URL) != "" && client != nil {
		rdb, err := vectorindex.NewRedisClient(ctx, config.Cache.Redis.URL)
		if err != nil {
			log.Warn("embedding cache disabled", zap.Error(err))
		} else {
			a.closers = append(a.closers, rdb)
			embedder = vectorindex.NewCachedEmbedder(embedder, rdb, config.Cache.Redis.TTL, log)
		}
	}

	store, err := storage.NewStore(config.Storage.Path)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, store)

	index, err := newIndexStore(config.Index, store, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	analyzer, err := moderation.New(generator, moderation.Options{
		Timeout:     config.AI.Timeout,
		Thresholds:  config.Moderation.Thresholds,
		Concurrency: config.Moderation.Concurrency,
		Delay:       config.Moderation.Delay,
	}, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	svc, err := service.New(service.Deps{
		Extractor: extraction.New(generator, extraction.Options{
			Timeout:       config.AI.Timeout,
			MaxInputChars: config.AI.MaxInputChars,
		}, log),
		Analyzer:  analyzer,
		Store:     store,
		Indexer:   vectorindex.NewIndexer(embedder, index, log),
		Retriever: vectorindex.NewRetriever(embedder, index, config.Index.Overfetch, log),
		Ranker:    config.Ranking,
		Fetcher:   source.New(log),
		Logger:    log,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.service = svc

	return a, nil
}

// Close releases the store and cache connections.
func (a *application) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("closing resource", zap.Error(err))
		}
	}
	a.closers = nil
}

// requireEmbeddings fails fast for commands that write or read the index.
func (a *application) requireEmbeddings() {
	if a.config.AI.Provider == providerNone {
		a.logger.Fatal("semantic index unavailable", zap.Error(errNoEmbedder),
			zap.String("hint", "set ai.provider in talentscore.yaml"),
		)
	}
}

// warmIndex fills a memory index from storage, since it starts empty in
// every process. Other backends are left alone.
func (a *application) warmIndex(ctx context.Context) {
	if a.config.Index.Backend != backendMemory {
		return
	}
	stats, err := a.service.Reindex(ctx)
	if err != nil {
		a.logger.Warn("rebuilding the memory index", zap.Error(err))
	}
	a.logger.Debug("memory index rebuilt", zap.Int("jobs", stats.Jobs), zap.Int("profiles", stats.Profiles))
}

func newRemoteClient(ctx context.Context, cfg *AIConfig, log *zap.Logger) (remoteClient, error) {
	switch cfg.Provider {
	case providerGemini:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			File:  cfg.Gemini.APIKeyFile,
			Env:   "GEMINI_API_KEY",
			Value: cfg.Gemini.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}
		genLogger := log.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))
		client, err := gemini.New(ctx, gemini.Options{
			APIKey:         apiKey,
			Model:          cfg.Gemini.Model,
			EmbeddingModel: cfg.Gemini.EmbeddingModel,
			MaxRetries:     cfg.Gemini.MaxRetries,
			MaxLogLength:   cfg.Gemini.MaxLogLength,
		}, genLogger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case providerOpenAI:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			File:  cfg.OpenAI.APIKeyFile,
			Env:   "OPENAI_API_KEY",
			Value: cfg.OpenAI.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.openai.api-key-file or OPENAI_API_KEY_FILE)", err)
		}
		client, err := openai.New(openai.Options{
			APIKey:         apiKey,
			BaseURL:        cfg.OpenAI.BaseURL,
			Model:          cfg.OpenAI.Model,
			EmbeddingModel: cfg.OpenAI.EmbeddingModel,
			MaxLogLength:   cfg.OpenAI.MaxLogLength,
		}, log)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, nil
	}
}

// newIndexStore picks the similarity index. The default keeps vectors next to
// the records in sqlite; memory lives only as long as the process.
func newIndexStore(cfg *IndexConfig, store *storage.Store, log *zap.Logger) (vectorindex.Store, error) {
	switch cfg.Backend {
	case backendChroma:
		return vectorindex.NewChromaStore(cfg.Chroma, nil)
	case backendMemory:
		log.Warn("memory index does not persist between runs, it is rebuilt from storage before searches")
		return vectorindex.NewMemoryStore(), nil
	default:
		return store.Vectors(), nil
	}
}

// redacted drops inline secrets before the config is logged.
func redacted(c *Config) Config {
	out := *c
	if c.AI != nil {
		aiCfg := *c.AI
		if aiCfg.Gemini != nil {
			g := *aiCfg.Gemini
			g.APIKey = mask(g.APIKey)
			aiCfg.Gemini = &g
		}
		if aiCfg.OpenAI != nil {
			o := *aiCfg.OpenAI
			o.APIKey = mask(o.APIKey)
			aiCfg.OpenAI = &o
		}
		out.AI = &aiCfg
	}
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}

// printResult writes v to w in the format chosen by --output.
func printResult(w io.Writer, v any) error {
	switch strings.ToLower(viper.GetString("output")) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "", "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", viper.GetString("output"))
	}
}
