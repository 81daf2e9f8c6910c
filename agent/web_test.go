package agent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/retry"
	"github.com/poiesic/colloquy/websearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is a websearch.Provider driven by a function.
type fakeProvider struct {
	calls  atomic.Int32
	search func(ctx context.Context, query string, maxResults int) ([]websearch.Result, error)
}

func (p *fakeProvider) Search(ctx context.Context, query string, maxResults int) ([]websearch.Result, error) {
	p.calls.Add(1)
	return p.search(ctx, query, maxResults)
}

func fastRetry() WebOption {
	return WithRetryPolicy(retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, Retryable: retry.IsTransient})
}

func TestNewWebAgent(t *testing.T) {
	provider := &fakeProvider{}

	a, err := NewWebAgent(provider)
	require.NoError(t, err)
	assert.Equal(t, DefaultWebPageSize, a.pageSize)
	assert.Equal(t, DefaultWebTimeout, a.timeout)
	assert.Equal(t, 2, a.policy.MaxAttempts)

	_, err = NewWebAgent(nil)
	assert.Equal(t, ErrProviderRequired, err)

	_, err = NewWebAgent(provider, WithPageSize(0))
	assert.Equal(t, ErrInvalidLimit, err)

	_, err = NewWebAgent(provider, WithWebTimeout(-time.Second))
	assert.Equal(t, ErrInvalidTimeout, err)

	_, err = NewWebAgent(provider, WithRetryPolicy(retry.Policy{}))
	assert.Equal(t, retry.ErrInvalidMaxAttempts, err)
}

func TestWebAgent_Retrieve(t *testing.T) {
	provider := &fakeProvider{
		search: func(ctx context.Context, query string, maxResults int) ([]websearch.Result, error) {
			assert.Equal(t, DefaultWebPageSize, maxResults)
			return []websearch.Result{
				{Title: "Go 1.25 released", URL: "https://go.dev/blog/go1.25", Snippet: "Release notes."},
				{Title: "Go 1.25 (mirror)", URL: "http://www.go.dev/blog/go1.25/", Snippet: "Same page."},
				{Title: "Bad site", URL: "https://bad.example/x", Snippet: "nope", Unsafe: true},
				{Title: "", URL: "https://example.com/notes", Snippet: ""},
				{Title: "No link", URL: "", Snippet: "dropped"},
			}, nil
		},
	}
	a, err := NewWebAgent(provider)
	require.NoError(t, err)

	out := a.Retrieve(context.Background(), "latest Go release", nil)
	require.False(t, out.Failed())
	assert.Equal(t, core.AgentWeb, out.Agent)
	require.Len(t, out.Results, 2)

	first := out.Results[0]
	assert.Equal(t, core.SourceWeb, first.Source.Kind)
	assert.Equal(t, "Go 1.25 released", first.Source.Title)
	assert.Equal(t, "https://go.dev/blog/go1.25", first.Source.URL)
	assert.Equal(t, "Release notes.", first.Snippet)

	second := out.Results[1]
	assert.Equal(t, untitled, second.Source.Title)
	assert.Equal(t, noDescription, second.Snippet)
	assert.Greater(t, first.Score, second.Score)
}

func TestWebAgent_NoResults(t *testing.T) {
	provider := &fakeProvider{
		search: func(ctx context.Context, query string, maxResults int) ([]websearch.Result, error) {
			return []websearch.Result{{Title: "x", URL: "https://bad.example", Unsafe: true}}, nil
		},
	}
	a, err := NewWebAgent(provider)
	require.NoError(t, err)

	out := a.Retrieve(context.Background(), "latest Go release", nil)
	require.True(t, out.Failed())
	assert.Equal(t, core.KindNoResults, out.Error.Kind)
	assert.Equal(t, CapabilityWeb, out.Error.Capability)
	assert.Empty(t, out.Results)
}

func TestWebAgent_RateLimit(t *testing.T) {
	t.Run("retried once then succeeds", func(t *testing.T) {
		provider := &fakeProvider{}
		provider.search = func(ctx context.Context, query string, maxResults int) ([]websearch.Result, error) {
			if provider.calls.Load() == 1 {
				return nil, websearch.ErrRateLimited
			}
			return []websearch.Result{{Title: "ok", URL: "https://example.com"}}, nil
		}
		a, err := NewWebAgent(provider, fastRetry())
		require.NoError(t, err)

		out := a.Retrieve(context.Background(), "latest news", nil)
		require.False(t, out.Failed())
		assert.Len(t, out.Results, 1)
		assert.EqualValues(t, 2, provider.calls.Load())
	})

	t.Run("persistent rate limit surfaces as retrieval failure", func(t *testing.T) {
		provider := &fakeProvider{
			search: func(ctx context.Context, query string, maxResults int) ([]websearch.Result, error) {
				return nil, websearch.ErrRateLimited
			},
		}
		a, err := NewWebAgent(provider, fastRetry())
		require.NoError(t, err)

		out := a.Retrieve(context.Background(), "latest news", nil)
		require.True(t, out.Failed())
		assert.Equal(t, core.KindRetrievalFailure, out.Error.Kind)
		assert.ErrorIs(t, out.Error.Err, websearch.ErrRateLimited)
		assert.EqualValues(t, 2, provider.calls.Load())
	})
}

func TestWebAgent_Failures(t *testing.T) {
	t.Run("blank query is not sent", func(t *testing.T) {
		provider := &fakeProvider{}
		a, err := NewWebAgent(provider)
		require.NoError(t, err)

		out := a.Retrieve(context.Background(), "\t", nil)
		require.True(t, out.Failed())
		assert.Equal(t, core.KindMalformedInput, out.Error.Kind)
		assert.Zero(t, provider.calls.Load())
	})

	t.Run("timeout", func(t *testing.T) {
		provider := &fakeProvider{
			search: func(ctx context.Context, query string, maxResults int) ([]websearch.Result, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}
		a, err := NewWebAgent(provider, WithWebTimeout(20*time.Millisecond), fastRetry())
		require.NoError(t, err)

		out := a.Retrieve(context.Background(), "latest news", nil)
		require.True(t, out.Failed())
		assert.Equal(t, core.KindRetrievalFailure, out.Error.Kind)
		assert.True(t, errors.Is(out.Error.Err, context.DeadlineExceeded))
	})

	t.Run("network failure", func(t *testing.T) {
		provider := &fakeProvider{
			search: func(ctx context.Context, query string, maxResults int) ([]websearch.Result, error) {
				return nil, websearch.ErrSearchFailed
			},
		}
		a, err := NewWebAgent(provider, fastRetry())
		require.NoError(t, err)

		out := a.Retrieve(context.Background(), "latest news", nil)
		require.True(t, out.Failed())
		assert.Equal(t, core.KindRetrievalFailure, out.Error.Kind)
		assert.Equal(t, core.AgentWeb, out.Agent)
	})
}
