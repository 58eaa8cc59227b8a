// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/poiesic/passagedb/ai"
	"github.com/poiesic/passagedb/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// defaultConfidence is assumed when the model omits a confidence score.
const defaultConfidence = 0.8

// PassageExtractor implements ai.PassageExtractor using OpenAI-compatible chat APIs.
type PassageExtractor struct {
	client     llms.Model
	maxRetries int
	logger     *slog.Logger
}

// candidate is an internal type used for JSON unmarshaling.
// Optional fields are pointers so absence can be told apart from zero.
type candidate struct {
	Category        string   `json:"category"`
	Text            string   `json:"text"`
	SectionLabel    string   `json:"section_label"`
	PageNumber      *int     `json:"page_number"`
	CharOffsetStart *int     `json:"char_offset_start"`
	Confidence      *float64 `json:"confidence"`
}

// extraction is the wrapper structure for the LLM's JSON response.
type extraction struct {
	Passages []candidate `json:"passages"`
}

// newPassageExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newPassageExtractor(config *ai.Config) (*PassageExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ExtractorHost),
		openai.WithToken("none"),
		openai.WithModel(config.ExtractorModel),
	)
	if err != nil {
		return nil, err
	}

	return &PassageExtractor{
		client:     client,
		maxRetries: config.MaxExtractRetries,
		logger:     slog.Default().With("component", "openai-extractor"),
	}, nil
}

// NewPassageExtractor creates a new passage extractor using the provided
// configuration.
//
// Returns ai.PassageExtractor interface to enforce abstraction.
func NewPassageExtractor(config *ai.Config) (ai.PassageExtractor, error) {
	return newPassageExtractor(config)
}

// ExtractPassages extracts categorized candidate passages from document text
// using an LLM. Responses are requested in JSON mode; malformed responses are
// repaired and retried up to the configured budget.
func (e *PassageExtractor) ExtractPassages(ctx context.Context, text string) ([]core.CandidatePassage, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildSystemPrompt())},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(text)},
		},
	}

	var result extraction
	var lastErr error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			e.logger.Debug("no choices returned from model")
			return []core.CandidatePassage{}, nil
		}

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(response.Choices[0].Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			e.logger.Warn("error parsing extraction response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		e.logger.Error("failed to parse extraction response after retries", "err", lastErr)
		return nil, lastErr
	}

	candidates := make([]core.CandidatePassage, 0, len(result.Passages))
	for _, c := range result.Passages {
		cand := core.CandidatePassage{
			Category:     c.Category,
			Text:         c.Text,
			SectionLabel: c.SectionLabel,
			PageNumber:   1,
			Confidence:   defaultConfidence,
		}
		if c.PageNumber != nil {
			cand.PageNumber = *c.PageNumber
		}
		if c.CharOffsetStart != nil {
			cand.CharOffsetStart = *c.CharOffsetStart
		}
		if c.Confidence != nil {
			cand.Confidence = *c.Confidence
		}
		candidates = append(candidates, cand)
	}

	e.logger.Debug("extracted candidate passages", "count", len(candidates))
	return candidates, nil
}
