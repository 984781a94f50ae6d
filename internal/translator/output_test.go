package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invosight/internal/schema"
)

func TestParseOutput_JSONEnvelope(t *testing.T) {
	out, err := ParseOutput(`{"sql": "SELECT vendor_name FROM invoices", "confidence": 0.92}`)
	require.NoError(t, err)
	assert.Equal(t, "SELECT vendor_name FROM invoices", out.SQL)
	assert.Equal(t, 0.92, out.Confidence)
}

func TestParseOutput_FencedJSON(t *testing.T) {
	raw := "```json\n{\"sql\": \"SELECT count(*) FROM invoices\", \"confidence\": 0.8}\n```"
	out, err := ParseOutput(raw)
	require.NoError(t, err)
	assert.Equal(t, "SELECT count(*) FROM invoices", out.SQL)
	assert.Equal(t, 0.8, out.Confidence)
}

func TestParseOutput_BareSQLFallback(t *testing.T) {
	out, err := ParseOutput("```sql\nSELECT * FROM invoices\n```")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM invoices", out.SQL)
	assert.Equal(t, 0.5, out.Confidence)
}

func TestParseOutput_MissingConfidenceDefaults(t *testing.T) {
	out, err := ParseOutput(`{"sql": "SELECT 1"}`)
	require.NoError(t, err)
	assert.Equal(t, 0.5, out.Confidence)
}

func TestParseOutput_DeclinedQuestion(t *testing.T) {
	out, err := ParseOutput(`{"sql": "", "confidence": 0}`)
	require.NoError(t, err)
	assert.Empty(t, out.SQL)
	assert.Equal(t, 0.0, out.Confidence)
}

func TestParseOutput_ConfidenceClamped(t *testing.T) {
	out, err := ParseOutput(`{"sql": "SELECT 1", "confidence": 1.7}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.Confidence)
}

func TestParseOutput_Empty(t *testing.T) {
	_, err := ParseOutput("   ")
	require.Error(t, err)
}

func TestBuildTranslationPrompt_EmbedsSchemaAndQuestion(t *testing.T) {
	desc := schema.NewDescription([]schema.Table{
		{Name: "invoices", Columns: []schema.Column{{Name: "total_minor", DataType: "bigint"}}},
	})
	prompt := BuildTranslationPrompt("what did we spend last month?", desc)
	assert.Contains(t, prompt, "TABLE invoices")
	assert.Contains(t, prompt, "total_minor bigint")
	assert.Contains(t, prompt, "what did we spend last month?")
	assert.Contains(t, prompt, `{"sql":`)
}
