// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package complexity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AleutianAI/AleutianInsight/services/llm"
)

// =============================================================================
// LLM Scorer
// =============================================================================

const scorePromptTemplate = `Rate the following analytics question on six dimensions,
each a number between 0.0 and 1.0:
- semantic: how much interpretation the phrasing needs
- technical: how much data-engineering knowledge it needs
- analytical: how much statistical or analytical depth it needs
- collaborative: how many specialist perspectives it needs
- temporal: how much it depends on time ranges or trends
- comparative: how much it compares entities or ranks them

Respond with ONLY a JSON object:
{"semantic":0.0,"technical":0.0,"analytical":0.0,"collaborative":0.0,"temporal":0.0,"comparative":0.0,"confidence":0.0}

Question: %s
Data source: %s`

// LLMScorer asks a model backend to rate the six dimensions and parses
// its JSON reply. Any malformed reply surfaces as an error so the
// analyzer can fall back.
type LLMScorer struct {
	backend llm.LLMClient
}

func NewLLMScorer(backend llm.LLMClient) *LLMScorer {
	return &LLMScorer{backend: backend}
}

func (s *LLMScorer) Name() string { return "llm" }

// Score implements DimensionScorer.
func (s *LLMScorer) Score(ctx context.Context, query, dataSourceHint string) (Dimensions, float64, error) {
	if s.backend == nil {
		return Dimensions{}, 0, NewScoreError(ErrCodeModelUnavailable, "no backend configured", false)
	}
	if dataSourceHint == "" {
		dataSourceHint = "unspecified"
	}

	temp := float32(0.1)
	maxTokens := 256
	response, err := s.backend.Generate(ctx, fmt.Sprintf(scorePromptTemplate, query, dataSourceHint),
		llm.GenerationParams{Temperature: &temp, MaxTokens: &maxTokens})
	if err != nil {
		if ctx.Err() != nil {
			return Dimensions{}, 0, NewScoreError(ErrCodeTimeout, err.Error(), true)
		}
		return Dimensions{}, 0, NewScoreError(ErrCodeModelUnavailable, err.Error(), true)
	}
	return parseScoreResponse(response)
}

// parseScoreResponse extracts the dimension JSON from a model reply,
// tolerating markdown fences and surrounding prose.
func parseScoreResponse(response string) (Dimensions, float64, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return Dimensions{}, 0, NewScoreError(ErrCodeParseError,
			fmt.Sprintf("no JSON object found in response: %s", truncate(response, 100)), false)
	}

	var result struct {
		Dimensions
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(response[startIdx:endIdx+1]), &result); err != nil {
		return Dimensions{}, 0, NewScoreError(ErrCodeParseError, "failed to parse JSON: "+err.Error(), false)
	}

	if !result.Dimensions.InRange() {
		return Dimensions{}, 0, NewScoreError(ErrCodeOutOfRange, "dimension score out of [0,1]", false)
	}
	if result.Confidence <= 0 || result.Confidence > 1 {
		result.Confidence = 0.7
	}
	return result.Dimensions, result.Confidence, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
