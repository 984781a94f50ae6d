package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"invosight/internal/domain"
	"invosight/internal/guard"
	"invosight/internal/port"
)

// rejectionMessage is the only text a caller sees when the guard vetoes a
// statement. Which rule fired goes to the log, not the response.
const rejectionMessage = "could not safely answer that question"

// QueryService answers natural-language questions about persisted invoices:
// describe the schema, translate, guard, execute.
type QueryService struct {
	translator    port.QueryTranslator
	store         port.RecordStore
	guard         *guard.Guard
	retry         RetryPolicy
	minConfidence float64
	maxRows       int
}

// NewQueryService wires the query flow.
func NewQueryService(
	translator port.QueryTranslator,
	store port.RecordStore,
	g *guard.Guard,
	retry RetryPolicy,
	minConfidence float64,
	maxRows int,
) *QueryService {
	return &QueryService{
		translator:    translator,
		store:         store,
		guard:         g,
		retry:         retry,
		minConfidence: minConfidence,
		maxRows:       maxRows,
	}
}

// Ask answers one question. A guard veto is not an error: the result
// carries the attempted statement and a rejection reason so the caller can
// rephrase.
func (s *QueryService) Ask(ctx context.Context, question string) (*domain.QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	desc, err := s.store.DescribeSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("describing schema: %w", err)
	}

	var candidate *domain.CandidateQuery
	err = s.retry.Do(ctx, func(ctx context.Context) error {
		var terr error
		candidate, terr = s.translator.Translate(ctx, question, desc)
		return terr
	})
	if err != nil {
		return nil, fmt.Errorf("translating question: %w", err)
	}

	if candidate.SQL == "" || candidate.Confidence < s.minConfidence {
		log.Printf("service.QueryService.Ask: low-confidence translation (%.2f): %q", candidate.Confidence, question)
		return nil, domain.ErrAmbiguousQuestion
	}

	guarded, err := s.guard.Check(candidate.SQL, desc)
	if err != nil {
		log.Printf("service.QueryService.Ask: guard rejected statement: %v", err)
		return &domain.QueryResult{
			GeneratedSQL:          candidate.SQL,
			TranslationConfidence: candidate.Confidence,
			RejectionReason:       rejectionMessage,
		}, nil
	}

	columns, rows, err := s.store.RunReadOnly(ctx, guarded.SQL, s.maxRows)
	if err != nil {
		return nil, err
	}

	if rows == nil {
		rows = [][]interface{}{}
	}
	return &domain.QueryResult{
		GeneratedSQL:          guarded.SQL,
		Columns:               columns,
		Rows:                  rows,
		TranslationConfidence: candidate.Confidence,
		WasModified:           guarded.WasModified,
	}, nil
}
