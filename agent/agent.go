package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/colloquy/core"
)

// Capabilities named in error markers and user-facing apologies.
const (
	CapabilityDocument = "document search"
	CapabilityWeb      = "web search"
)

// Retriever is the single capability every agent offers.
type Retriever interface {
	// Retrieve answers query given the prior turns of the conversation.
	// It always returns an output; failures are reported in its Error field.
	Retrieve(ctx context.Context, query string, history []core.Turn) core.AgentOutput
}

// failed builds an output carrying an error marker. A rate limit that
// survived its retry is reported as a retrieval failure.
func failed(agent, capability string, err error) core.AgentOutput {
	kind := core.KindOf(err)
	if kind == core.KindProviderRateLimited {
		kind = core.KindRetrievalFailure
	}
	return core.AgentOutput{
		Agent: agent,
		Error: &core.ErrorMarker{
			Kind:       kind,
			Capability: capability,
			Err:        err,
		},
	}
}

// recoverInto turns a panic inside Retrieve into a retrieval failure.
func recoverInto(out *core.AgentOutput, agent, capability string, logger *slog.Logger) {
	if r := recover(); r != nil {
		logger.Error("agent panicked", "panic", r)
		*out = failed(agent, capability, fmt.Errorf("%w: panic: %v", core.ErrRetrievalFailure, r))
	}
}
