package ai

// ClassifiableIntents are the intents a model may return. Greetings never
// reach the model because they are resolved by the fast path.
var ClassifiableIntents = []string{
	"pdf_query",
	"web_search",
	"follow_up",
	"clarification_needed",
}

// HistoryMessage is one prior exchange passed to the classifier.
type HistoryMessage struct {
	// Role is "user" or "system".
	Role string
	Text string
}

// ClassificationRequest is the input to IntentClassifier.ClassifyIntent.
type ClassificationRequest struct {
	Query   string
	History []HistoryMessage
}

// ClassificationResult is the model's routing decision.
type ClassificationResult struct {
	// Intent is one of ClassifiableIntents.
	Intent string

	// Confidence is clamped to [0,1].
	Confidence float64

	// Reasoning is the model's short rationale.
	Reasoning string
}
