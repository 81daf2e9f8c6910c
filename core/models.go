package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Chunk IDs come from a database sequence, so they also record insertion order.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Role identifies who produced a turn.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// Intent is the routing decision for a single turn.
type Intent string

const (
	IntentGreeting            Intent = "greeting"
	IntentPDFQuery            Intent = "pdf_query"
	IntentWebSearch           Intent = "web_search"
	IntentClarificationNeeded Intent = "clarification_needed"
	IntentFollowUp            Intent = "follow_up"
)

// Valid reports whether i is one of the known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentGreeting, IntentPDFQuery, IntentWebSearch, IntentClarificationNeeded, IntentFollowUp:
		return true
	}
	return false
}

// Agent tags identify which retrieval strategy handled a turn.
const (
	AgentDocument = "pdf_query_agent"
	AgentWeb      = "web_search_agent"
)

// Turn is one entry in a session's history. Turns are stored by value and
// never modified after being appended.
type Turn struct {
	Role      Role           `json:"role"`
	Text      string         `json:"text"`
	Timestamp time.Time      `json:"timestamp"`
	Decision  IntentDecision `json:"decision"`
	Agent     string         `json:"agent,omitempty"`
}

// IntentDecision is produced fresh for every turn by the classifier chain.
type IntentDecision struct {
	Intent                 Intent   `json:"intent"`
	Confidence             float64  `json:"confidence"`
	Reasoning              string   `json:"reasoning"`
	IsAmbiguous            bool     `json:"is_ambiguous"`
	ClarificationQuestions []string `json:"clarification_questions,omitempty"`

	// Clarification is the user-facing lead-in shown with the questions.
	Clarification string `json:"clarification,omitempty"`
	IsFollowUp    bool   `json:"is_follow_up"`
	// TargetAgent is the agent a follow-up continues.
	TargetAgent string `json:"target_agent,omitempty"`
	// Source names the classifier in the chain that made the decision.
	Source string `json:"source"`
}

// Chunk is a bounded span of normalized document text.
// Offsets are byte offsets into the normalized page text.
type Chunk struct {
	ID           ID        `json:"id"`
	DocumentID   ID        `json:"document_id"`
	DocumentName string    `json:"document_name"`
	Page         int       `json:"page"`
	Text         string    `json:"text"`
	StartOffset  int       `json:"start_offset"`
	EndOffset    int       `json:"end_offset"`
	ChunkNum     int       `json:"chunk_num"`
	TotalChunks  int       `json:"total_chunks"`
	Generation   uint64    `json:"generation"`
	InsertedAt   time.Time `json:"inserted_at"`
}

// Document describes an ingested document and its current generation.
// Chunks from older generations are superseded and excluded from search.
type Document struct {
	ID         ID        `json:"id"`
	Name       string    `json:"name"`
	Generation uint64    `json:"generation"`
	Pages      int       `json:"pages"`
	Chunks     int       `json:"chunks"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SourceKind distinguishes document attributions from web attributions.
type SourceKind string

const (
	SourceDocument SourceKind = "document"
	SourceWeb      SourceKind = "web"
)

// Source attributes a result to its origin.
type Source struct {
	Kind     SourceKind `json:"kind"`
	Document string     `json:"document,omitempty"`
	Page     int        `json:"page,omitempty"`
	Title    string     `json:"title,omitempty"`
	URL      string     `json:"url,omitempty"`
}

// ScoredResult is a transient search hit from either agent.
type ScoredResult struct {
	// Chunk is nil for web results.
	Chunk   *Chunk  `json:"chunk,omitempty"`
	Snippet string  `json:"snippet"`
	Score   float32 `json:"score"`
	Source  Source  `json:"source"`
}

// ErrorMarker records why an agent could not produce results.
type ErrorMarker struct {
	Kind       ErrorKind `json:"kind"`
	Capability string    `json:"capability"`
	Err        error     `json:"-"`
}

// AgentOutput is what a retrieval agent hands to the response assembler.
type AgentOutput struct {
	Agent   string         `json:"agent"`
	Results []ScoredResult `json:"results"`
	Error   *ErrorMarker   `json:"error,omitempty"`
}

// Failed reports whether the output carries an error marker.
func (o AgentOutput) Failed() bool {
	return o.Error != nil
}
