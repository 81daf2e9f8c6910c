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


package ai

import (
	"fmt"
	"strings"
)

// DefaultHost is a local Ollama server's OpenAI-compatible endpoint.
const DefaultHost = "http://localhost:11434/v1"

// MaxHistoryTurns caps Config.HistoryTurns.
const MaxHistoryTurns = 50

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost and ClassifierHost are OpenAI-compatible base URLs.
	// They may point at different servers.
	EmbeddingHost  string
	ClassifierHost string

	// EmbeddingModel is the model identifier used for text embeddings,
	// e.g. "all-minilm" or "text-embedding-3-small".
	EmbeddingModel string

	// ClassifierModel is the chat model asked to route queries,
	// e.g. "qwen2.5:3b" or "gpt-4o-mini".
	ClassifierModel string

	// APIToken is sent as the bearer token. Local servers accept "none".
	APIToken string

	// HistoryTurns bounds how many prior turns are sent to the classifier.
	HistoryTurns int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithClassifierHost sets the classifier service host URL.
func WithClassifierHost(host string) ConfigOption {
	return func(c *Config) {
		c.ClassifierHost = host
	}
}

// WithHost points both services at the same server.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.ClassifierHost = host
	}
}

func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

func WithClassifierModel(model string) ConfigOption {
	return func(c *Config) {
		c.ClassifierModel = model
	}
}

// WithAPIToken sets the bearer token for hosted OpenAI-compatible services.
func WithAPIToken(token string) ConfigOption {
	return func(c *Config) {
		c.APIToken = token
	}
}

// WithHistoryTurns sets how many prior turns the classifier sees.
func WithHistoryTurns(n int) ConfigOption {
	return func(c *Config) {
		c.HistoryTurns = n
	}
}

// DefaultConfig targets a local Ollama server for both services.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:   DefaultHost,
		ClassifierHost:  DefaultHost,
		EmbeddingModel:  "all-minilm",
		ClassifierModel: "qwen2.5:3b",
		APIToken:        "none",
		HistoryTurns:    6,
	}
}

// NewConfig applies opts over DefaultConfig.
//
//	cfg := NewConfig(
//		WithHost("http://localhost:11434"),
//		WithEmbeddingModel("nomic-embed-text"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize appends the /v1 path OpenAI-compatible servers expect and
// fills in the placeholder token.
func (c *Config) Normalize() {
	c.EmbeddingHost = withAPIPath(c.EmbeddingHost)
	c.ClassifierHost = withAPIPath(c.ClassifierHost)
	if c.APIToken == "" {
		c.APIToken = "none"
	}
}

func withAPIPath(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate normalizes the config and reports the first missing or
// out-of-range field. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	c.Normalize()

	required := []struct {
		field string
		value string
	}{
		{"EmbeddingHost", c.EmbeddingHost},
		{"ClassifierHost", c.ClassifierHost},
		{"EmbeddingModel", c.EmbeddingModel},
		{"ClassifierModel", c.ClassifierModel},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidConfig, r.field)
		}
	}
	if c.HistoryTurns < 0 || c.HistoryTurns > MaxHistoryTurns {
		return fmt.Errorf("%w: HistoryTurns must be between 0 and %d", ErrInvalidConfig, MaxHistoryTurns)
	}
	return nil
}
