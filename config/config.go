package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/colloquy/agent"
	"github.com/poiesic/colloquy/ai"
	"github.com/poiesic/colloquy/ingestion"
	"github.com/poiesic/colloquy/intent"
	"github.com/poiesic/colloquy/search"
	"github.com/poiesic/colloquy/session"
)

// Config is the complete set of colloquy settings.
type Config struct {
	AI        AI        `toml:"ai"`
	Storage   Storage   `toml:"storage"`
	Retrieval Retrieval `toml:"retrieval"`
	Web       Web       `toml:"web"`
	Ingestion Ingestion `toml:"ingestion"`
	Timeouts  Timeouts  `toml:"timeouts"`
	Session   Session   `toml:"session"`
}

// AI configures the embedding and classification services.
// Host sets both hosts; the specific hosts win when given.
type AI struct {
	Host            string `toml:"host"`
	EmbeddingHost   string `toml:"embedding_host"`
	ClassifierHost  string `toml:"classifier_host"`
	EmbeddingModel  string `toml:"embedding_model"`
	ClassifierModel string `toml:"classifier_model"`
	APIToken        string `toml:"api_token"`
	HistoryTurns    int    `toml:"history_turns"`
}

// Storage locates the chunk database.
type Storage struct {
	Path string `toml:"path"`
}

// Retrieval tunes document search.
type Retrieval struct {
	Limit       int     `toml:"limit"`
	MinScore    float32 `toml:"min_score"`
	WebFallback bool    `toml:"web_fallback"`
}

// Web tunes the web search agent.
type Web struct {
	PageSize   int    `toml:"page_size"`
	UserAgent  string `toml:"user_agent"`
	SafeSearch bool   `toml:"safe_search"`
}

// Ingestion tunes chunking and embedding of new documents.
type Ingestion struct {
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`
	BatchSize    int `toml:"batch_size"`
	PoolSize     int `toml:"pool_size"`
}

// Timeouts bound each external call.
type Timeouts struct {
	Classification Duration `toml:"classification"`
	Document       Duration `toml:"document"`
	Web            Duration `toml:"web"`
}

// Session configures conversation state and turn concurrency.
type Session struct {
	TTL                Duration `toml:"ttl"`
	MaxConcurrentTurns int      `toml:"max_concurrent_turns"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		AI: AI{
			Host:            aiDefaults.EmbeddingHost,
			EmbeddingModel:  aiDefaults.EmbeddingModel,
			ClassifierModel: aiDefaults.ClassifierModel,
			APIToken:        aiDefaults.APIToken,
			HistoryTurns:    aiDefaults.HistoryTurns,
		},
		Storage: Storage{
			Path: "colloquy.db",
		},
		Retrieval: Retrieval{
			Limit:       agent.DefaultDocumentLimit,
			MinScore:    search.DefaultMinScore,
			WebFallback: true,
		},
		Web: Web{
			PageSize:   agent.DefaultWebPageSize,
			SafeSearch: true,
		},
		Ingestion: Ingestion{
			ChunkSize:    ingestion.DefaultChunkSize,
			ChunkOverlap: ingestion.DefaultChunkOverlap,
			BatchSize:    ingestion.DefaultBatchSize,
			PoolSize:     4,
		},
		Timeouts: Timeouts{
			Classification: Duration{intent.DefaultModelTimeout},
			Document:       Duration{agent.DefaultDocumentTimeout},
			Web:            Duration{agent.DefaultWebTimeout},
		},
		Session: Session{
			TTL:                Duration{session.DefaultTTL},
			MaxConcurrentTurns: 64,
		},
	}
}

// Load reads a TOML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and required values.
func (c *Config) Validate() error {
	switch {
	case c.Storage.Path == "":
		return fmt.Errorf("%w: storage.path is required", ErrInvalidConfig)
	case c.Retrieval.Limit <= 0:
		return fmt.Errorf("%w: retrieval.limit must be positive", ErrInvalidConfig)
	case c.Retrieval.MinScore < -1 || c.Retrieval.MinScore > 1:
		return fmt.Errorf("%w: retrieval.min_score must be between -1 and 1", ErrInvalidConfig)
	case c.Web.PageSize <= 0:
		return fmt.Errorf("%w: web.page_size must be positive", ErrInvalidConfig)
	case c.Ingestion.ChunkSize <= 0:
		return fmt.Errorf("%w: ingestion.chunk_size must be positive", ErrInvalidConfig)
	case c.Ingestion.ChunkOverlap < 0 || c.Ingestion.ChunkOverlap >= c.Ingestion.ChunkSize:
		return fmt.Errorf("%w: ingestion.chunk_overlap must be between 0 and chunk_size", ErrInvalidConfig)
	case c.Ingestion.BatchSize <= 0:
		return fmt.Errorf("%w: ingestion.batch_size must be positive", ErrInvalidConfig)
	case c.Ingestion.PoolSize <= 0:
		return fmt.Errorf("%w: ingestion.pool_size must be positive", ErrInvalidConfig)
	case c.Session.TTL.Duration < 0:
		return fmt.Errorf("%w: session.ttl must not be negative", ErrInvalidConfig)
	case c.Session.MaxConcurrentTurns <= 0:
		return fmt.Errorf("%w: session.max_concurrent_turns must be positive", ErrInvalidConfig)
	}

	timeouts := map[string]time.Duration{
		"timeouts.classification": c.Timeouts.Classification.Duration,
		"timeouts.document":       c.Timeouts.Document.Duration,
		"timeouts.web":            c.Timeouts.Web.Duration,
	}
	for name, timeout := range timeouts {
		if timeout <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, name)
		}
	}

	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// AIConfig converts the [ai] section to an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	var opts []ai.ConfigOption
	if c.AI.Host != "" {
		opts = append(opts, ai.WithHost(c.AI.Host))
	}
	if c.AI.EmbeddingHost != "" {
		opts = append(opts, ai.WithEmbeddingHost(c.AI.EmbeddingHost))
	}
	if c.AI.ClassifierHost != "" {
		opts = append(opts, ai.WithClassifierHost(c.AI.ClassifierHost))
	}
	opts = append(opts,
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithClassifierModel(c.AI.ClassifierModel),
		ai.WithAPIToken(c.AI.APIToken),
		ai.WithHistoryTurns(c.AI.HistoryTurns),
	)
	return ai.NewConfig(opts...)
}
