// Package orchestrator runs a conversation turn end to end.
//
// A turn moves through received, classified, dispatched or clarifying,
// and finally responded. The orchestrator owns session state: it loads the
// session, classifies the message against its history, dispatches to the
// agent registered for the intent, assembles the reply and appends both
// turns before saving. Turns on one session are serialized; turns on
// different sessions run in parallel.
//
//	orch, err := orchestrator.New(chain, map[core.Intent]agent.Retriever{
//		core.IntentPDFQuery:  docs,
//		core.IntentWebSearch: web,
//	})
//	resp, err := orch.HandleTurn(ctx, orchestrator.TurnRequest{SessionID: "s1", Text: "Hello!"})
package orchestrator
