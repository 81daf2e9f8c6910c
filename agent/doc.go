// Package agent implements the retrieval agents the orchestrator dispatches to.
//
// Every agent satisfies Retriever. An agent never returns a Go error and
// never panics: failures, timeouts and empty web results come back as an
// AgentOutput carrying a core.ErrorMarker, so the caller can always produce
// a reply. Agents hold no per-conversation state.
//
// DocumentAgent searches the ingested document collection through a
// search.Engine. WebAgent asks a websearch.Provider and de-duplicates the
// hits by normalized URL.
package agent
