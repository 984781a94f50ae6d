package capability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject_Fenced(t *testing.T) {
	raw := "```json\n{\"sql\": \"SELECT 1\"}\n```"
	out, err := ExtractJSONObject(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sql": "SELECT 1"}`, string(out))
}

func TestExtractJSONObject_ProseWrapped(t *testing.T) {
	raw := "Here is the extracted data:\n{\"vendor\": {\"name\": \"Acme\"}}\nLet me know if you need anything else."
	out, err := ExtractJSONObject(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"vendor": {"name": "Acme"}}`, string(out))
}

func TestExtractJSONObject_Bare(t *testing.T) {
	out, err := ExtractJSONObject(`  {"a": 1}  `)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, string(out))
}

func TestExtractJSONObject_NoObject(t *testing.T) {
	_, err := ExtractJSONObject("I could not read the image.")
	require.Error(t, err)
}

func TestExtractJSONObject_InvalidJSON(t *testing.T) {
	_, err := ExtractJSONObject(`{"a": }`)
	require.Error(t, err)
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 30, ParseRetryAfterHeader("30"))
	assert.Equal(t, 0, ParseRetryAfterHeader(""))
	assert.Equal(t, 0, ParseRetryAfterHeader("Wed, 21 Oct 2026 07:28:00 GMT"))
}

func TestNewRateLimitError_DefaultsTo60s(t *testing.T) {
	err := NewRateLimitError("nvidia", fmt.Errorf("429"), 0)
	assert.Equal(t, 60*time.Second, err.RetryAfter)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(NewRateLimitError("nvidia", errors.New("429"), 10)))
	assert.True(t, IsTransient(&ProviderError{Provider: "nvidia", StatusCode: 500, Err: errors.New("boom")}))
	assert.True(t, IsTransient(&ProviderError{Provider: "nvidia", StatusCode: 0, Err: errors.New("dial refused")}))
	assert.True(t, IsTransient(context.DeadlineExceeded))

	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(&ProviderError{Provider: "nvidia", StatusCode: 401, Err: errors.New("bad key")}))
	assert.False(t, IsTransient(errors.New("parse failure")))
}

func TestIsTransient_WrappedProviderError(t *testing.T) {
	wrapped := fmt.Errorf("extract: %w", &ProviderError{Provider: "openai", StatusCode: 503, Err: errors.New("overloaded")})
	assert.True(t, IsTransient(wrapped))
}
