// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The backends expose exactly one operation; the router never holds a
// chat transcript, so the interface stays prompt-in, text-out.
var _ LLMClient = (*OllamaClient)(nil)
var _ LLMClient = (*OpenAIClient)(nil)

func newTestOllamaClient(baseURL string) *OllamaClient {
	return &OllamaClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		model:      "test-model",
	}
}

func TestOllamaGenerate(t *testing.T) {
	var gotPath string
	var gotReq ollamaGenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(ollamaGenerateResponse{
			Model:    "test-model",
			Response: `{"score": 0.7}`,
			Done:     true,
		})
	}))
	defer srv.Close()

	client := newTestOllamaClient(srv.URL)
	temp := float32(0.1)
	out, err := client.Generate(context.Background(), "score this query", GenerationParams{
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"score": 0.7}`, out)
	assert.Equal(t, "/api/generate", gotPath)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.False(t, gotReq.Stream)
	assert.InDelta(t, 0.1, gotReq.Options["temperature"], 1e-6)
}

func TestOllamaGenerate_ModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "model 'test-model' not found"})
	}))
	defer srv.Close()

	client := newTestOllamaClient(srv.URL)
	_, err := client.Generate(context.Background(), "hello", GenerationParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama pull test-model")
}

func TestApplyOptionsDefaults(t *testing.T) {
	options := applyOptions(GenerationParams{})
	assert.Equal(t, float32(0.2), options["temperature"])
	assert.Equal(t, 20, options["top_k"])
	assert.Equal(t, float32(0.9), options["top_p"])
	assert.Equal(t, 8192, options["num_predict"])
	assert.NotContains(t, options, "stop")
}
