package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/colloquy/agent"
	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/followup"
	"github.com/poiesic/colloquy/intent"
	"github.com/poiesic/colloquy/response"
	"github.com/poiesic/colloquy/session"
	"golang.org/x/sync/semaphore"
)

// SourceInputValidation marks decisions made without classification
// because the message was empty.
const SourceInputValidation = "input_validation"

// Decider classifies a message. *intent.Chain implements it.
type Decider interface {
	Decide(ctx context.Context, req intent.Request) (core.IntentDecision, error)
}

var _ Decider = (*intent.Chain)(nil)

// Orchestrator handles conversation turns.
type Orchestrator struct {
	decider     Decider
	retrievers  map[core.Intent]agent.Retriever
	store       session.Store
	locks       *keyedLocks
	turns       *semaphore.Weighted
	monitor     TurnMonitor
	webFallback bool
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithStore sets where sessions are kept. The default is a
// session.MemoryStore with its default TTL.
func WithStore(store session.Store) Option {
	return func(o *Orchestrator) error {
		if store == nil {
			return ErrStoreRequired
		}
		o.store = store
		return nil
	}
}

// WithMonitor sets the observer for state transitions.
func WithMonitor(monitor TurnMonitor) Option {
	return func(o *Orchestrator) error {
		if monitor == nil {
			monitor = NopMonitor{}
		}
		o.monitor = monitor
		return nil
	}
}

// WithWebFallback controls whether a document query with no matches is
// retried against the web agent. Enabled by default.
func WithWebFallback(enabled bool) Option {
	return func(o *Orchestrator) error {
		o.webFallback = enabled
		return nil
	}
}

// WithMaxConcurrentTurns bounds the number of turns in flight across all
// sessions.
func WithMaxConcurrentTurns(n int) Option {
	return func(o *Orchestrator) error {
		if n <= 0 {
			return ErrInvalidConcurrency
		}
		o.turns = semaphore.NewWeighted(int64(n))
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger.With("component", "orchestrator")
		return nil
	}
}

// New creates an Orchestrator. retrievers must hold an agent for
// core.IntentPDFQuery and core.IntentWebSearch; follow-ups reuse them.
func New(decider Decider, retrievers map[core.Intent]agent.Retriever, opts ...Option) (*Orchestrator, error) {
	if decider == nil {
		return nil, ErrDeciderRequired
	}
	for i, r := range retrievers {
		if i != core.IntentPDFQuery && i != core.IntentWebSearch {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedIntent, i)
		}
		if r == nil {
			return nil, fmt.Errorf("%w: %s", ErrRetrieverRequired, i)
		}
	}
	for _, i := range []core.Intent{core.IntentPDFQuery, core.IntentWebSearch} {
		if retrievers[i] == nil {
			return nil, fmt.Errorf("%w: %s", ErrRetrieverRequired, i)
		}
	}

	o := &Orchestrator{
		decider:     decider,
		retrievers:  maps.Clone(retrievers),
		locks:       newKeyedLocks(),
		monitor:     NopMonitor{},
		webFallback: true,
		logger:      slog.Default().With("component", "orchestrator"),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	if o.store == nil {
		store, err := session.NewMemoryStore(session.WithLogger(o.logger))
		if err != nil {
			return nil, err
		}
		o.store = store
	}

	return o, nil
}

// HandleTurn processes one message. Agent failures become apologies in
// the reply; the returned error is non-nil only when ctx ends before the
// turn completes or the session store fails, and in that case nothing is
// recorded.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	if o.turns != nil {
		if err := o.turns.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer o.turns.Release(1)
	}

	unlock, err := o.locks.lock(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	t := newTurn(req.SessionID, o.monitor)
	logger := o.logger.With("session", req.SessionID)

	text := strings.TrimSpace(req.Text)
	if err := core.ValidateQuery(text); err != nil {
		logger.Debug("rejected malformed input", "err", err)
		if err := t.advance(StateResponded); err != nil {
			return nil, err
		}
		return o.malformed(t), nil
	}

	s, err := o.load(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	history := s.History()

	decision, err := o.decider.Decide(ctx, intent.Request{
		Query:          text,
		History:        history,
		ForceWebSearch: req.ForceWebSearch,
	})
	if err != nil {
		return nil, err
	}
	if err := t.advance(StateClassified); err != nil {
		return nil, err
	}
	logger.Debug("classified turn", "intent", decision.Intent, "source", decision.Source)

	resp := &TurnResponse{
		SessionID:              req.SessionID,
		ClarificationQuestions: []string{},
		Sources:                []core.Source{},
	}

	switch decision.Intent {
	case core.IntentClarificationNeeded:
		if err := t.advance(StateClarifying); err != nil {
			return nil, err
		}
		resp.Reply = response.Clarification(decision)
		resp.NeedsClarification = true
		if len(decision.ClarificationQuestions) > 0 {
			resp.ClarificationQuestions = slices.Clone(decision.ClarificationQuestions)
		}
	case core.IntentGreeting:
		if err := t.advance(StateDispatched); err != nil {
			return nil, err
		}
		resp.Reply = response.Greeting
	default:
		out, updated, err := o.dispatch(ctx, t, text, history, decision)
		if err != nil {
			return nil, err
		}
		decision = updated
		resp.Reply = response.Assemble(out, decision)
		resp.Sources = response.Sources(out)
		resp.Agent = out.Agent
		if out.Failed() {
			logger.Warn("agent failed",
				"agent", out.Agent,
				"kind", out.Error.Kind,
				"err", out.Error.Err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := t.advance(StateResponded); err != nil {
		return nil, err
	}

	resp.Intent = decision.Intent
	resp.Decision = decision

	now := time.Now().UTC()
	s.Append(
		core.Turn{Role: core.RoleUser, Text: text, Timestamp: now, Decision: decision},
		core.Turn{Role: core.RoleSystem, Text: resp.Reply, Timestamp: now, Decision: decision, Agent: resp.Agent},
	)
	if err := o.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	o.monitor.TurnCompleted(req.SessionID, decision.Intent, time.Since(t.started))
	return resp, nil
}

// dispatch runs the agent chosen by decision and, when a document query
// comes back empty, the web agent after it.
func (o *Orchestrator) dispatch(ctx context.Context, t *turn, text string, history []core.Turn, decision core.IntentDecision) (core.AgentOutput, core.IntentDecision, error) {
	target := o.target(decision)
	query := text
	if decision.IsFollowUp {
		query = followup.Contextualize(text, history)
	}

	out, err := o.retrieve(ctx, t, target, query, history)
	if err != nil {
		return core.AgentOutput{}, decision, err
	}

	if o.webFallback && decision.Intent == core.IntentPDFQuery && !out.Failed() && len(out.Results) == 0 {
		o.logger.Debug("no document matches, falling back to web search", "session", t.sessionID)
		out, err = o.retrieve(ctx, t, core.IntentWebSearch, query, history)
		if err != nil {
			return core.AgentOutput{}, decision, err
		}
		decision.Intent = core.IntentWebSearch
		decision.Reasoning = appendReason(decision.Reasoning, "no document matches, fell back to web search")
	}

	return out, decision, nil
}

func (o *Orchestrator) retrieve(ctx context.Context, t *turn, target core.Intent, query string, history []core.Turn) (core.AgentOutput, error) {
	if err := t.advance(StateDispatched); err != nil {
		return core.AgentOutput{}, err
	}
	out := o.retrievers[target].Retrieve(ctx, query, history)
	o.monitor.AgentDispatched(t.sessionID, out.Agent)
	if err := ctx.Err(); err != nil {
		return core.AgentOutput{}, err
	}
	return out, nil
}

// target maps a decision to the intent whose agent should run. Follow-ups
// go back to the agent that handled the previous turn.
func (o *Orchestrator) target(decision core.IntentDecision) core.Intent {
	switch decision.Intent {
	case core.IntentWebSearch:
		return core.IntentWebSearch
	case core.IntentFollowUp:
		if decision.TargetAgent == core.AgentWeb {
			return core.IntentWebSearch
		}
	}
	return core.IntentPDFQuery
}

func (o *Orchestrator) malformed(t *turn) *TurnResponse {
	decision := core.IntentDecision{
		Intent:                 core.IntentClarificationNeeded,
		Confidence:             1,
		Reasoning:              "empty message",
		IsAmbiguous:            true,
		ClarificationQuestions: []string{response.MalformedInputPrompt},
		Source:                 SourceInputValidation,
	}
	o.monitor.TurnCompleted(t.sessionID, decision.Intent, time.Since(t.started))
	return &TurnResponse{
		SessionID:              t.sessionID,
		Intent:                 decision.Intent,
		Reply:                  response.MalformedInputPrompt,
		NeedsClarification:     true,
		ClarificationQuestions: []string{response.MalformedInputPrompt},
		Sources:                []core.Source{},
		Decision:               decision,
	}
}

// load returns the stored session or a new one.
func (o *Orchestrator) load(ctx context.Context, id string) (*session.Session, error) {
	s, err := o.store.Load(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		o.logger.Debug("starting session", "session", id)
		return session.New(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return s, nil
}

// ClearSession discards the session's turns. The next turn starts with an
// empty history. Clearing an unknown session does nothing.
func (o *Orchestrator) ClearSession(ctx context.Context, id string) error {
	unlock, err := o.locks.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	s, err := o.store.Load(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.Clear()
	return o.store.Save(ctx, s)
}

// EndSession removes the session entirely.
func (o *Orchestrator) EndSession(ctx context.Context, id string) error {
	unlock, err := o.locks.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	return o.store.Delete(ctx, id)
}

// History returns a copy of the session's turns, or session.ErrNotFound.
func (o *Orchestrator) History(ctx context.Context, id string) ([]core.Turn, error) {
	unlock, err := o.locks.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, err := o.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.History(), nil
}

func appendReason(reasoning, note string) string {
	if reasoning == "" {
		return note
	}
	return reasoning + "; " + note
}
