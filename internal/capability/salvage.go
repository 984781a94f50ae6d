package capability

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONObject salvages a single JSON object from raw model output.
// It strips markdown code fences, then falls back to slicing between the
// first '{' and the last '}'. The returned bytes are verified to be valid
// JSON but not validated against any shape.
func ExtractJSONObject(raw string) (json.RawMessage, error) {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if !strings.HasPrefix(s, "{") {
		start := strings.Index(s, "{")
		end := strings.LastIndex(s, "}")
		if start < 0 || end < start {
			return nil, fmt.Errorf("no JSON object in output")
		}
		s = s[start : end+1]
	}

	if !json.Valid([]byte(s)) {
		return nil, fmt.Errorf("salvaged text is not valid JSON")
	}
	return json.RawMessage(s), nil
}
