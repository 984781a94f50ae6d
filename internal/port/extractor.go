package port

import (
	"context"
	"encoding/json"
)

// VisionExtractor turns an invoice image into the raw extraction envelope.
// Implementations call an external vision model and return its JSON output
// without validating it.
type VisionExtractor interface {
	// Extract returns the raw JSON envelope produced by the model.
	Extract(ctx context.Context, image []byte, contentType string) (json.RawMessage, error)
	// ProviderName identifies the backing provider for logs and errors.
	ProviderName() string
}
