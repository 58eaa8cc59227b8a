package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/passagedb/core"
)

const extractionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "passages": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "category": {
            "type": "string"
          },
          "text": {
            "type": "string"
          },
          "section_label": {
            "type": "string"
          },
          "page_number": {
            "type": "integer",
            "minimum": 1
          },
          "char_offset_start": {
            "type": "integer",
            "minimum": 0
          },
          "confidence": {
            "type": "number",
            "minimum": 0,
            "maximum": 1
          }
        },
        "required": ["category", "text"],
        "additionalProperties": false
      }
    }
  },
  "required": ["passages"],
  "additionalProperties": false
}`

const extractionPromptTemplate = `You are given the full extracted text of a legal document. Identify every
substantive clause-like passage and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- The category field must match exactly one of the listed values: %s. Use "other" when none fits.
- The text field must quote the passage verbatim from the document, without rewording or summarizing.
- char_offset_start is the approximate character position where the passage begins in the document text.
- section_label is the section heading or number the passage falls under, if one is visible.
- confidence is a number from 0 to 1 reflecting how certain you are of the category assignment.
- Do not invent passages that are not present in the document.
- If the document contains no identifiable passages, return "passages": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

// buildSystemPrompt creates the system prompt with the category set embedded.
func buildSystemPrompt() string {
	labels := make([]string, 0, len(core.Categories()))
	for _, c := range core.Categories() {
		labels = append(labels, string(c))
	}
	return fmt.Sprintf(extractionPromptTemplate,
		extractionResponseSchema,
		strings.Join(labels, ", "))
}
