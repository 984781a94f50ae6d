package translator

import (
	"encoding/json"
	"fmt"
	"strings"

	"invosight/internal/capability"
	"invosight/internal/domain"
)

// ParseOutput turns raw model text into a CandidateQuery. The happy path is
// the requested {"sql","confidence"} object; older models sometimes answer
// with bare SQL, which is accepted at a neutral confidence.
func ParseOutput(text string) (*domain.CandidateQuery, error) {
	obj, err := capability.ExtractJSONObject(text)
	if err == nil {
		var parsed struct {
			SQL        string   `json:"sql"`
			Confidence *float64 `json:"confidence"`
		}
		if uerr := json.Unmarshal(obj, &parsed); uerr == nil {
			if parsed.SQL != "" {
				conf := 0.5
				if parsed.Confidence != nil {
					conf = clamp(*parsed.Confidence)
				}
				return &domain.CandidateQuery{SQL: strings.TrimSpace(parsed.SQL), Confidence: conf}, nil
			}
			if parsed.Confidence != nil {
				// The model declined the question.
				return &domain.CandidateQuery{SQL: "", Confidence: clamp(*parsed.Confidence)}, nil
			}
		}
	}

	sql := stripFences(text)
	if sql == "" {
		return nil, fmt.Errorf("no statement in translator output")
	}
	return &domain.CandidateQuery{SQL: sql, Confidence: 0.5}, nil
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```sql")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
