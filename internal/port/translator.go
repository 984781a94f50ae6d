package port

import (
	"context"

	"invosight/internal/domain"
	"invosight/internal/schema"
)

// QueryTranslator turns a natural-language question into a candidate SQL
// statement against the provided schema snapshot. The candidate is untrusted
// until the guard has passed it.
type QueryTranslator interface {
	Translate(ctx context.Context, question string, desc *schema.Description) (*domain.CandidateQuery, error)
	ProviderName() string
}
