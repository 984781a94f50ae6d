package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invosight/internal/capability"
	"invosight/internal/domain"
	"invosight/internal/guard"
	"invosight/internal/schema"
	"invosight/mocks"
)

func queryDescription() *schema.Description {
	return schema.NewDescription([]schema.Table{
		{Name: "invoices", Columns: []schema.Column{
			{Name: "id", DataType: "uuid"},
			{Name: "vendor_name", DataType: "text"},
			{Name: "total_minor", DataType: "bigint"},
		}},
	})
}

func newQueryFixture(t *testing.T) (*QueryService, *mocks.MockQueryTranslator, *mocks.MockRecordStore) {
	t.Helper()
	tr := new(mocks.MockQueryTranslator)
	store := new(mocks.MockRecordStore)
	svc := NewQueryService(tr, store, guard.New(500), DefaultRetryPolicy(2), 0.4, 500)
	return svc, tr, store
}

func TestAsk_HappyPath(t *testing.T) {
	svc, tr, store := newQueryFixture(t)
	desc := queryDescription()

	store.On("DescribeSchema", mock.Anything).Return(desc, nil).Once()
	tr.On("Translate", mock.Anything, "who do we owe the most?", desc).
		Return(&domain.CandidateQuery{SQL: "SELECT vendor_name, total_minor FROM invoices ORDER BY total_minor DESC", Confidence: 0.9}, nil).Once()
	store.On("RunReadOnly", mock.Anything,
		"SELECT vendor_name, total_minor FROM invoices ORDER BY total_minor DESC\nLIMIT 500", 500).
		Return([]domain.Column{{Name: "vendor_name", Type: "TEXT"}, {Name: "total_minor", Type: "INT8"}},
			[][]interface{}{{"Acme", int64(14600)}}, nil).Once()

	res, err := svc.Ask(context.Background(), "who do we owe the most?")
	require.NoError(t, err)

	assert.Empty(t, res.RejectionReason)
	assert.True(t, res.WasModified)
	assert.Equal(t, 0.9, res.TranslationConfidence)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Acme", res.Rows[0][0])

	tr.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	svc, _, _ := newQueryFixture(t)
	_, err := svc.Ask(context.Background(), "   ")
	require.ErrorIs(t, err, domain.ErrEmptyQuestion)
}

func TestAsk_LowConfidenceIsAmbiguous(t *testing.T) {
	svc, tr, store := newQueryFixture(t)
	desc := queryDescription()

	store.On("DescribeSchema", mock.Anything).Return(desc, nil).Once()
	tr.On("Translate", mock.Anything, mock.Anything, desc).
		Return(&domain.CandidateQuery{SQL: "SELECT id FROM invoices", Confidence: 0.1}, nil).Once()

	_, err := svc.Ask(context.Background(), "what is the meaning of life?")
	require.ErrorIs(t, err, domain.ErrAmbiguousQuestion)
	store.AssertNotCalled(t, "RunReadOnly", mock.Anything, mock.Anything, mock.Anything)
}

func TestAsk_DeclinedTranslationIsAmbiguous(t *testing.T) {
	svc, tr, store := newQueryFixture(t)
	desc := queryDescription()

	store.On("DescribeSchema", mock.Anything).Return(desc, nil).Once()
	tr.On("Translate", mock.Anything, mock.Anything, desc).
		Return(&domain.CandidateQuery{SQL: "", Confidence: 0.9}, nil).Once()

	_, err := svc.Ask(context.Background(), "how is the weather?")
	require.ErrorIs(t, err, domain.ErrAmbiguousQuestion)
}

func TestAsk_GuardVetoIsNotAnError(t *testing.T) {
	svc, tr, store := newQueryFixture(t)
	desc := queryDescription()

	store.On("DescribeSchema", mock.Anything).Return(desc, nil).Once()
	tr.On("Translate", mock.Anything, mock.Anything, desc).
		Return(&domain.CandidateQuery{SQL: "DELETE FROM invoices", Confidence: 0.9}, nil).Once()

	res, err := svc.Ask(context.Background(), "clear out the invoices")
	require.NoError(t, err)

	assert.Equal(t, "DELETE FROM invoices", res.GeneratedSQL)
	assert.Equal(t, rejectionMessage, res.RejectionReason)
	assert.Empty(t, res.Rows)
	store.AssertNotCalled(t, "RunReadOnly", mock.Anything, mock.Anything, mock.Anything)
}

func TestAsk_RetriesTransientTranslation(t *testing.T) {
	svc, tr, store := newQueryFixture(t)
	desc := queryDescription()

	store.On("DescribeSchema", mock.Anything).Return(desc, nil).Once()
	tr.On("Translate", mock.Anything, mock.Anything, desc).
		Return(nil, &capability.ProviderError{Provider: "nvidia", StatusCode: 502, Err: errors.New("bad gateway")}).Once()
	tr.On("Translate", mock.Anything, mock.Anything, desc).
		Return(&domain.CandidateQuery{SQL: "SELECT id FROM invoices LIMIT 5", Confidence: 0.8}, nil).Once()
	store.On("RunReadOnly", mock.Anything, "SELECT id FROM invoices LIMIT 5", 500).
		Return([]domain.Column{{Name: "id", Type: "UUID"}}, [][]interface{}{}, nil).Once()

	res, err := svc.Ask(context.Background(), "list some invoices")
	require.NoError(t, err)
	assert.False(t, res.WasModified)
	tr.AssertExpectations(t)
}

func TestAsk_ExecutionErrorsPropagate(t *testing.T) {
	svc, tr, store := newQueryFixture(t)
	desc := queryDescription()

	store.On("DescribeSchema", mock.Anything).Return(desc, nil).Once()
	tr.On("Translate", mock.Anything, mock.Anything, desc).
		Return(&domain.CandidateQuery{SQL: "SELECT id FROM invoices", Confidence: 0.8}, nil).Once()
	store.On("RunReadOnly", mock.Anything, mock.Anything, 500).
		Return(nil, nil, domain.ErrQueryTimeout).Once()

	_, err := svc.Ask(context.Background(), "list invoices")
	require.ErrorIs(t, err, domain.ErrQueryTimeout)
}

func TestAsk_SchemaUnavailable(t *testing.T) {
	svc, tr, store := newQueryFixture(t)

	store.On("DescribeSchema", mock.Anything).Return(nil, domain.ErrStoreUnavailable).Once()

	_, err := svc.Ask(context.Background(), "list invoices")
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	tr.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything)
}
