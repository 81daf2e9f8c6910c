package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/colloquy/ai"
)

const classificationResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "intent": {
      "type": "string"
    },
    "confidence": {
      "type": "number",
      "minimum": 0,
      "maximum": 1
    },
    "reasoning": {
      "type": "string"
    }
  },
  "required": ["intent", "confidence", "reasoning"],
  "additionalProperties": false
}`

const classificationPromptTemplate = `Classify the user's message into exactly one intent and return the result as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Intents (the intent field must be exactly one of: %s):
- pdf_query: questions answerable from the ingested document collection (papers, manuals, reports).
- web_search: questions about current events, recent releases, prices, news, or anything time-sensitive.
- follow_up: the message only makes sense as a continuation of the previous exchange.
- clarification_needed: the message is too vague to route even with the conversation history.

Rules:
- Confidence is a number from 0 (guess) to 1 (certain).
- Reasoning is one short sentence.
- Prefer pdf_query when the message could be answered from documents and nothing suggests recency.`

// buildSystemPrompt renders the classification instructions.
func buildSystemPrompt() string {
	return fmt.Sprintf(classificationPromptTemplate, classificationResponseSchema, strings.Join(ai.ClassifiableIntents, ", "))
}

// buildUserPrompt renders the bounded history followed by the message to classify.
func buildUserPrompt(query string, history []ai.HistoryMessage) string {
	var sb strings.Builder
	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, msg := range history {
			sb.WriteString(msg.Role)
			sb.WriteString(": ")
			sb.WriteString(msg.Text)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Message to classify: ")
	sb.WriteString(query)
	return sb.String()
}
