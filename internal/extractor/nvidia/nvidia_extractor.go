package nvidia

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"invosight/internal/capability"
	"invosight/internal/config"
	"invosight/internal/extractor"
)

const (
	apiURL = "https://integrate.api.nvidia.com/v1/chat/completions"
)

// Extractor implements port.VisionExtractor using NVIDIA NIM chat completions.
type Extractor struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewExtractor creates an NVIDIA NIM vision extractor from a provider config.
func NewExtractor(cfg *config.ProviderConfig) *Extractor {
	return newExtractor(cfg, apiURL)
}

// NewExtractorWithEndpoint creates an extractor pointing at a custom API endpoint (for testing).
func NewExtractorWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Extractor {
	return newExtractor(cfg, endpoint)
}

func newExtractor(cfg *config.ProviderConfig, endpoint string) *Extractor {
	model := cfg.DefaultModel
	if model == "" {
		model = "meta/llama-3.2-90b-vision-instruct"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Extractor{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (e *Extractor) ProviderName() string {
	return "nvidia"
}

func (e *Extractor) Extract(ctx context.Context, image []byte, contentType string) (json.RawMessage, error) {
	prompt := extractor.BuildInvoicePrompt()
	encoded := base64.StdEncoding.EncodeToString(image)
	dataURI := fmt.Sprintf("data:%s;base64,%s", contentType, encoded)

	reqBody := map[string]interface{}{
		"model":       e.model,
		"max_tokens":  4096,
		"temperature": 0.2,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "image_url",
						"image_url": map[string]interface{}{
							"url": dataURI,
						},
					},
					{
						"type": "text",
						"text": prompt,
					},
				},
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &capability.ProviderError{Provider: "nvidia", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("nvidia API error: %s", truncate(string(respBody), 500))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := capability.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, capability.NewRateLimitError("nvidia", baseErr, retryAfter)
		}
		return nil, &capability.ProviderError{Provider: "nvidia", StatusCode: resp.StatusCode, Err: baseErr}
	}

	return parseResponse(respBody)
}

// apiResponse models the NIM chat completions response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte) (json.RawMessage, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API: no choices")
	}
	if resp.Choices[0].FinishReason == "length" {
		return nil, fmt.Errorf("output truncated (finish_reason: length)")
	}

	obj, err := capability.ExtractJSONObject(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("salvaging extraction output: %w", err)
	}
	return obj, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
