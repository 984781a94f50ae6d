package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"invosight/internal/capability"
	"invosight/internal/config"
	"invosight/internal/domain"
	"invosight/internal/schema"
	"invosight/internal/translator"
)

const (
	apiURL = "https://api.openai.com/v1/chat/completions"
)

// Translator implements port.QueryTranslator using the OpenAI Chat Completions API.
type Translator struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewTranslator creates an OpenAI-based query translator from a provider config.
func NewTranslator(cfg *config.ProviderConfig) *Translator {
	return newTranslator(cfg, apiURL)
}

// NewTranslatorWithEndpoint creates a translator pointing at a custom API endpoint (for testing).
func NewTranslatorWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Translator {
	return newTranslator(cfg, endpoint)
}

func newTranslator(cfg *config.ProviderConfig, endpoint string) *Translator {
	model := cfg.DefaultModel
	if model == "" {
		model = "gpt-4o"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Translator{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (t *Translator) ProviderName() string {
	return "openai"
}

func (t *Translator) Translate(ctx context.Context, question string, desc *schema.Description) (*domain.CandidateQuery, error) {
	prompt := translator.BuildTranslationPrompt(question, desc)

	reqBody := map[string]interface{}{
		"model":                 t.model,
		"max_completion_tokens": 300,
		"temperature":           0,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"response_format": map[string]interface{}{
			"type": "json_object",
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &capability.ProviderError{Provider: "openai", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("openai API error: %s", truncate(string(respBody), 500))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := capability.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, capability.NewRateLimitError("openai", baseErr, retryAfter)
		}
		return nil, &capability.ProviderError{Provider: "openai", StatusCode: resp.StatusCode, Err: baseErr}
	}

	var api struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &api); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(api.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API: no choices")
	}

	return translator.ParseOutput(api.Choices[0].Message.Content)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
