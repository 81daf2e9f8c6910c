// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package colloquy

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/colloquy/agent"
	"github.com/poiesic/colloquy/ai"
	"github.com/poiesic/colloquy/ai/openai"
	"github.com/poiesic/colloquy/config"
	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/ingestion"
	"github.com/poiesic/colloquy/intent"
	"github.com/poiesic/colloquy/orchestrator"
	"github.com/poiesic/colloquy/reembed"
	"github.com/poiesic/colloquy/search"
	"github.com/poiesic/colloquy/session"
	"github.com/poiesic/colloquy/storage"
	"github.com/poiesic/colloquy/storage/badger"
	"github.com/poiesic/colloquy/websearch"
)

// Engine wires storage, AI services, agents and the orchestrator from a
// single configuration.
type Engine struct {
	backend      *badger.Backend
	chunks       storage.ChunkRepository
	documents    storage.DocumentRepository
	provider     ai.AIProvider
	searcher     *search.Engine
	orchestrator *orchestrator.Orchestrator
	config       *config.Config
	logger       *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider ai.AIProvider
	web      websearch.Provider
	store    session.Store
	inMemory bool
	logger   *slog.Logger
}

// WithProvider replaces the OpenAI-compatible provider built from the [ai] section.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithWebProvider replaces the DuckDuckGo provider.
func WithWebProvider(web websearch.Provider) EngineOption {
	return func(o *engineOptions) {
		o.web = web
	}
}

// WithSessionStore replaces the in-memory session store.
func WithSessionStore(store session.Store) EngineOption {
	return func(o *engineOptions) {
		o.store = store
	}
}

// WithInMemoryStorage keeps chunks in memory instead of at the configured path.
func WithInMemoryStorage() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine opens storage and builds every component. A nil cfg uses
// config.Default().
func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger

	var (
		chunks    storage.ChunkRepository
		documents storage.DocumentRepository
		backend   *badger.Backend
		err       error
	)
	if options.inMemory {
		chunks, documents, backend, err = badger.NewMemoryRepositories()
	} else {
		chunks, documents, backend, err = badger.OpenRepositories(cfg.Storage.Path)
	}
	if err != nil {
		return nil, err
	}

	e := &Engine{
		backend:   backend,
		chunks:    chunks,
		documents: documents,
		provider:  options.provider,
		config:    cfg,
		logger:    logger,
	}
	if err := e.build(options); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) build(options *engineOptions) error {
	cfg := e.config
	logger := options.logger

	if e.provider == nil {
		provider, err := openai.NewProvider(cfg.AIConfig())
		if err != nil {
			return err
		}
		e.provider = provider
	}

	web := options.web
	if web == nil {
		webOpts := []websearch.Option{websearch.WithLogger(logger)}
		if cfg.Web.UserAgent != "" {
			webOpts = append(webOpts, websearch.WithUserAgent(cfg.Web.UserAgent))
		}
		if !cfg.Web.SafeSearch {
			webOpts = append(webOpts, websearch.WithSafetyFilter(nil))
		}
		provider, err := websearch.NewDuckDuckGo(webOpts...)
		if err != nil {
			return err
		}
		web = provider
	}

	searcher, err := search.NewEngine(e.chunks, e.provider.Embedder(), search.WithLogger(logger))
	if err != nil {
		return err
	}
	e.searcher = searcher

	documentAgent, err := agent.NewDocumentAgent(searcher,
		agent.WithCatalog(e.documents),
		agent.WithLimit(cfg.Retrieval.Limit),
		agent.WithMinScore(cfg.Retrieval.MinScore),
		agent.WithDocumentTimeout(cfg.Timeouts.Document.Duration),
		agent.WithDocumentLogger(logger),
	)
	if err != nil {
		return err
	}

	webAgent, err := agent.NewWebAgent(web,
		agent.WithPageSize(cfg.Web.PageSize),
		agent.WithWebTimeout(cfg.Timeouts.Web.Duration),
		agent.WithWebLogger(logger),
	)
	if err != nil {
		return err
	}

	model, err := intent.NewModelRule(e.provider.IntentClassifier(),
		intent.WithModelTimeout(cfg.Timeouts.Classification.Duration),
		intent.WithHistoryTurns(cfg.AI.HistoryTurns),
		intent.WithModelLogger(logger),
	)
	if err != nil {
		return err
	}
	chain, err := intent.NewChain(intent.DefaultClassifiers(model), intent.WithLogger(logger))
	if err != nil {
		return err
	}

	store := options.store
	if store == nil {
		store, err = session.NewMemoryStore(
			session.WithTTL(cfg.Session.TTL.Duration),
			session.WithLogger(logger),
		)
		if err != nil {
			return err
		}
	}

	e.orchestrator, err = orchestrator.New(chain,
		map[core.Intent]agent.Retriever{
			core.IntentPDFQuery:  documentAgent,
			core.IntentWebSearch: webAgent,
		},
		orchestrator.WithStore(store),
		orchestrator.WithWebFallback(cfg.Retrieval.WebFallback),
		orchestrator.WithMaxConcurrentTurns(cfg.Session.MaxConcurrentTurns),
		orchestrator.WithLogger(logger),
	)
	return err
}

// Close releases the AI provider, repositories and database.
func (e *Engine) Close() error {
	logger := e.logger.With("component", "engine")

	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			logger.Error("error closing AI provider", "err", err)
		}
	}

	if err := e.documents.Close(); err != nil {
		logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := e.chunks.Close(); err != nil {
		logger.Error("error closing chunk repository", "err", err)
		return err
	}

	if err := e.backend.Close(); err != nil {
		logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// HandleTurn runs one conversation turn.
func (e *Engine) HandleTurn(ctx context.Context, req orchestrator.TurnRequest) (*orchestrator.TurnResponse, error) {
	return e.orchestrator.HandleTurn(ctx, req)
}

// Search runs a raw similarity query over the collection using the
// configured threshold. A zero limit uses the configured limit.
func (e *Engine) Search(ctx context.Context, text string, limit int) ([]core.ScoredResult, error) {
	if limit <= 0 {
		limit = e.config.Retrieval.Limit
	}
	return e.searcher.Query(ctx, text, limit, e.config.Retrieval.MinScore, search.Filter{})
}

// Documents lists the ingested documents by name.
func (e *Engine) Documents(ctx context.Context) ([]*core.Document, error) {
	return e.documents.ListDocuments(ctx)
}

func (e *Engine) Orchestrator() *orchestrator.Orchestrator {
	return e.orchestrator
}

func (e *Engine) ChunkRepository() storage.ChunkRepository {
	return e.chunks
}

func (e *Engine) DocumentRepository() storage.DocumentRepository {
	return e.documents
}

// NewIngestionPipeline builds a pipeline with the [ingestion] settings.
// opts are applied after them. The caller must Release the pipeline.
func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	defaults := []ingestion.Option{
		ingestion.WithChunking(e.config.Ingestion.ChunkSize, e.config.Ingestion.ChunkOverlap),
		ingestion.WithBatchSize(e.config.Ingestion.BatchSize),
		ingestion.WithPoolSize(e.config.Ingestion.PoolSize),
		ingestion.WithLogger(e.logger),
	}
	return ingestion.NewPipeline(e.chunks, e.documents, e.provider.Embedder(), append(defaults, opts...)...)
}

// NewReembedder builds a reembedder over the collection. Progress is
// written to progress.
func (e *Engine) NewReembedder(reembedConfig *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(e.chunks, e.provider.Embedder(), reembedConfig, progress)
}
