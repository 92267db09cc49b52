package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spigell/talentscore/internal/moderation"
	"github.com/spigell/talentscore/internal/vectorindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	c := &Config{}
	c.applyDefaults()
	require.NoError(t, c.Validate())

	assert.Equal(t, providerNone, c.AI.Provider)
	assert.Equal(t, backendSQLite, c.Index.Backend)
	assert.Equal(t, moderation.DefaultDelay, c.Moderation.Delay)
	assert.Equal(t, "data/talentscore.db", c.Storage.Path)
	assert.Equal(t, moderation.DefaultThresholds(), c.Moderation.Thresholds)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{name: "gemini gets an empty section", modify: func(c *Config) { c.AI.Provider = " Gemini " }},
		{name: "unknown provider", modify: func(c *Config) { c.AI.Provider = "llama" }, errMsg: "unsupported ai provider"},
		{name: "negative timeout", modify: func(c *Config) { c.AI.Timeout = -time.Second }, errMsg: "ai.timeout"},
		{name: "chroma without url", modify: func(c *Config) { c.Index.Backend = backendChroma }, errMsg: "index.chroma.url"},
		{
			name: "chroma",
			modify: func(c *Config) {
				c.Index.Backend = backendChroma
				c.Index.Chroma = vectorindex.ChromaConfig{URL: "http://localhost:8000", Collection: "talents"}
			},
		},
		{name: "memory backend", modify: func(c *Config) { c.Index.Backend = " Memory " }},
		{name: "unknown backend", modify: func(c *Config) { c.Index.Backend = "faiss" }, errMsg: "unsupported index backend"},
		{
			name: "inverted thresholds",
			modify: func(c *Config) {
				c.Moderation.Thresholds = moderation.Thresholds{FlagAbove: 60, RejectAbove: 40}
			},
			errMsg: "flag-above",
		},
		{name: "too much concurrency", modify: func(c *Config) { c.Moderation.Concurrency = 6 }, errMsg: "concurrency"},
		{name: "negative recent window", modify: func(c *Config) { c.Ranking.RecentWindow = -time.Hour }, errMsg: "recent-window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// every section exists before the case edits it, and the second
			// pass normalizes what the case wrote
			c := &Config{}
			c.applyDefaults()
			tt.modify(c)
			c.applyDefaults()

			err := c.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, strings.ToLower(err.Error()), tt.errMsg)
		})
	}
}

func TestRedactedConfig(t *testing.T) {
	t.Parallel()

	c := &Config{AI: &AIConfig{Gemini: &GeminiConfig{APIKey: "secret", Model: "m"}}}
	out := redacted(c)

	assert.Equal(t, "***", out.AI.Gemini.APIKey)
	assert.Equal(t, "m", out.AI.Gemini.Model)
	assert.Equal(t, "secret", c.AI.Gemini.APIKey, "original config must not change")
}

func TestNewApplicationWithoutProvider(t *testing.T) {
	t.Parallel()

	c := &Config{Storage: &StorageConfig{Path: t.TempDir() + "/db/talentscore.db"}}
	c.applyDefaults()
	require.NoError(t, c.Validate())

	a, err := newApplication(context.Background(), c, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.service)
	_, err = noEmbedder{}.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, errNoEmbedder)
}

func TestNewApplicationMissingKey(t *testing.T) {
	c := &Config{AI: &AIConfig{Provider: providerGemini}, Storage: &StorageConfig{Path: t.TempDir() + "/talentscore.db"}}
	c.applyDefaults()
	require.NoError(t, c.Validate())
	t.Setenv("GEMINI_API_KEY", "")

	_, err := newApplication(context.Background(), c, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY_FILE")
}

func TestPrintResultDefaultsToYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, map[string]int{"overall": 83}))
	assert.Contains(t, buf.String(), "overall: 83")
}
