package intent

import (
	"regexp"
	"slices"

	"github.com/poiesic/colloquy/core"
)

// Heuristic names one ambiguity check.
type Heuristic string

const (
	HeuristicBrief      Heuristic = "brief"
	HeuristicQuantity   Heuristic = "quantity"
	HeuristicQuality    Heuristic = "quality"
	HeuristicComparison Heuristic = "comparison"
	HeuristicNoSubject  Heuristic = "no_subject"
)

// Finding is one ambiguity the Detector found in a message.
type Finding struct {
	Heuristic Heuristic

	// Clarification is a lead-in sentence for the user.
	Clarification string

	// Question asks for the missing information.
	Question string
}

var (
	vagueQuantityPattern = regexp.MustCompile(`(?i)\b(?:how\s+many|how\s+much|what\s+(?:is|are)\s+(?:the\s+)?(?:number|amount|quantity)\s+of)\b`)
	vagueBoundPattern    = regexp.MustCompile(`(?i)\b(?:enough|sufficient|good|required|necessary|adequate|appropriate|suitable|decent|reasonable|acceptable|satisfactory|optimal|ideal|recommended|suggested)\b`)
	numberOrUnitPattern  = regexp.MustCompile(`(?i)\d|%|\b(?:percent|percentage|seconds?|minutes?|hours?|days?|weeks?|months?|years?|bytes|kb|mb|gb|tb|meters?|km|kg|grams?|dollars?|usd|epochs?)\b`)

	// Yes/no questions passing a quality judgment.
	vagueQualityPattern = regexp.MustCompile(`(?i)^\s*(?:is|are|was|were|does|do|did|will|would|can|could|should|might|may)\b.*\b(?:good|bad|better|worse|great|poor|faster|slower|superior|inferior|preferable)\b`)
	comparisonPattern   = regexp.MustCompile(`(?i)\b(?:than|compared\s+(?:to|with)|vs\.?|versus|relative\s+to|against)\b`)

	vagueComparisonPattern = regexp.MustCompile(`(?i)\b(?:which|what)\s+(?:one\s+)?(?:is|are|was|would\s+be)\s+(?:the\s+)?(?:better|best|worse|worst|preferable)\b`)
	criterionPattern       = regexp.MustCompile(`(?i)\b(?:for|at|in\s+terms\s+of|when|regarding|on|than)\b`)
)

// Detector flags messages too vague to route. It is stateless and safe for
// concurrent use.
type Detector struct {
	greetingWords []string
	vagueWords    []string
}

// NewDetector creates a detector with the English word lists.
func NewDetector() *Detector {
	return &Detector{
		greetingWords: []string{"hi", "hello", "hey", "hiya", "howdy", "greetings", "thanks", "thank"},
		vagueWords: []string{
			"what", "which", "who", "whom", "whose", "when", "where", "why", "how",
			"am", "were", "been", "being", "does", "did", "done", "can", "could",
			"would", "should", "will", "shall", "may", "might", "must",
			"its", "these", "those", "there", "here", "i", "me", "my", "we", "us",
			"our", "your", "he", "she", "they", "them", "their", "one", "ones",
			"tell", "explain", "describe", "please", "more", "less", "so", "then",
			"also", "just", "really", "very", "some", "any", "anything", "something",
			"everything", "thing", "things", "stuff", "know", "mean", "means",
			"meant", "work", "works", "happen", "happens", "say", "said", "think",
			"help", "give", "show", "get", "else", "all", "like", "if", "or", "up",
			"out", "again", "now", "about",
		},
	}
}

// Detect runs every heuristic on query and returns the findings in
// heuristic order: brief, quantity, quality, comparison, no subject.
func (d *Detector) Detect(query string) []Finding {
	var findings []Finding
	words := core.Words(query)

	if len(words) <= 3 && !d.hasGreetingWord(words) {
		findings = append(findings, Finding{
			Heuristic:     HeuristicBrief,
			Clarification: "Your question seems a bit brief. Could you provide more details?",
			Question:      "What specifically would you like to know, and about which topic?",
		})
	}

	if vagueQuantityPattern.MatchString(query) && vagueBoundPattern.MatchString(query) && !numberOrUnitPattern.MatchString(query) {
		findings = append(findings, Finding{
			Heuristic:     HeuristicQuantity,
			Clarification: "I'm not sure what amount you have in mind.",
			Question:      "What quantity or metric should the answer use, and what baseline counts as enough?",
		})
	}

	if vagueQualityPattern.MatchString(query) && !comparisonPattern.MatchString(query) {
		findings = append(findings, Finding{
			Heuristic:     HeuristicQuality,
			Clarification: "Whether something is good or bad depends on what it is measured against.",
			Question:      "Compared to what? Which alternative or baseline should I compare against?",
		})
	}

	if vagueComparisonPattern.MatchString(query) && !criterionPattern.MatchString(query) {
		findings = append(findings, Finding{
			Heuristic:     HeuristicComparison,
			Clarification: "To compare effectively I need to know what matters to you.",
			Question:      "Which options are you comparing, and by which criterion, such as accuracy or cost?",
		})
	}

	if len(words) > 0 && !d.hasSubject(query) {
		findings = append(findings, Finding{
			Heuristic:     HeuristicNoSubject,
			Clarification: "I couldn't tell what your question is about.",
			Question:      "What topic or document is your question about?",
		})
	}

	return findings
}

func (d *Detector) hasGreetingWord(words []string) bool {
	for _, word := range words {
		if slices.Contains(d.greetingWords, word) {
			return true
		}
	}
	return false
}

// hasSubject reports whether query has a word that names a subject or
// object once stop words and question scaffolding are removed.
func (d *Detector) hasSubject(query string) bool {
	for _, word := range core.ContentWords(query) {
		if !slices.Contains(d.vagueWords, word) {
			return true
		}
	}
	return false
}
