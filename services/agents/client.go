// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package agents invokes analytics agents over an LLM backend and
// post-processes their responses.
package agents

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/AleutianAI/AleutianInsight/services/llm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("insight.agents")

// Analysis is the structured result of an agent invocation.
type Analysis struct {
	AgentID           string  `json:"agent_id"`
	Text              string  `json:"text"`
	ExtractedSQLQuery string  `json:"extracted_sql_query,omitempty"`
	Confidence        float64 `json:"confidence"`
}

// Client runs prompts through a configured agent persona.
//
// # Thread Safety
//
// Client is safe for concurrent use; it holds no mutable state.
type Client struct {
	backend llm.LLMClient
	logger  *slog.Logger
}

// NewClient builds an agent client over any LLM backend.
func NewClient(backend llm.LLMClient, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{backend: backend, logger: logger}
}

// GenerateAnalysis asks the named agent to analyze a query, returning the
// response text with any SQL block pulled out separately.
func (c *Client) GenerateAnalysis(ctx context.Context, agentID, persona, query string) (Analysis, error) {
	ctx, span := tracer.Start(ctx, "agents.GenerateAnalysis")
	defer span.End()
	span.SetAttributes(attribute.String("agent.id", agentID))

	if c.backend == nil {
		err := fmt.Errorf("agents: no LLM backend configured")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Analysis{}, err
	}

	prompt := buildPrompt(persona, query)
	maxTokens := 2048
	text, err := c.backend.Generate(ctx, prompt, llm.GenerationParams{MaxTokens: &maxTokens})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Analysis{}, fmt.Errorf("agent %s generation failed: %w", agentID, err)
	}

	analysis := Analysis{
		AgentID:    agentID,
		Confidence: 0.8,
	}
	analysis.ExtractedSQLQuery, analysis.Text = ExtractSQL(text)

	c.logger.Debug("agent analysis complete",
		"agent_id", agentID,
		"response_chars", len(text),
		"has_sql", analysis.ExtractedSQLQuery != "",
	)
	return analysis, nil
}

func buildPrompt(persona, query string) string {
	var b strings.Builder
	if persona != "" {
		b.WriteString(persona)
		b.WriteString("\n\n")
	}
	b.WriteString("Analyze the following question. If a SQL query is needed ")
	b.WriteString("to answer it, include the query in a fenced ```sql block.\n\n")
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}

// sqlFence matches a fenced sql code block, capturing its body.
var sqlFence = regexp.MustCompile("(?s)```sql\\s*\\n(.*?)```")

// ExtractSQL splits a response into the first fenced SQL query and the
// remaining prose. Returns the text unchanged when no block is present.
func ExtractSQL(text string) (sql string, prose string) {
	match := sqlFence.FindStringSubmatchIndex(text)
	if match == nil {
		return "", text
	}
	sql = strings.TrimSpace(text[match[2]:match[3]])
	prose = strings.TrimSpace(text[:match[0]] + text[match[1]:])
	return sql, prose
}
