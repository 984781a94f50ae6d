// Package mocks provides hand-written testify mocks for the port interfaces.
package mocks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"invosight/internal/domain"
	"invosight/internal/schema"
)

// MockVisionExtractor mocks port.VisionExtractor.
type MockVisionExtractor struct {
	mock.Mock
}

func (m *MockVisionExtractor) Extract(ctx context.Context, image []byte, contentType string) (json.RawMessage, error) {
	args := m.Called(ctx, image, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockVisionExtractor) ProviderName() string {
	args := m.Called()
	return args.String(0)
}

// MockQueryTranslator mocks port.QueryTranslator.
type MockQueryTranslator struct {
	mock.Mock
}

func (m *MockQueryTranslator) Translate(ctx context.Context, question string, desc *schema.Description) (*domain.CandidateQuery, error) {
	args := m.Called(ctx, question, desc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CandidateQuery), args.Error(1)
}

func (m *MockQueryTranslator) ProviderName() string {
	args := m.Called()
	return args.String(0)
}

// MockInvoiceRepository mocks port.InvoiceRepository.
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Persist(ctx context.Context, rec *domain.InvoiceRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceRecord), args.Error(1)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) List(ctx context.Context, offset, limit int) ([]domain.InvoiceRecord, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.InvoiceRecord), args.Int(1), args.Error(2)
}

// MockFailureRepository mocks port.FailureRepository.
type MockFailureRepository struct {
	mock.Mock
}

func (m *MockFailureRepository) Record(ctx context.Context, f *domain.IngestionFailure) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

// MockRecordStore mocks port.RecordStore.
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) DescribeSchema(ctx context.Context) (*schema.Description, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schema.Description), args.Error(1)
}

func (m *MockRecordStore) RunReadOnly(ctx context.Context, sql string, maxRows int) ([]domain.Column, [][]interface{}, error) {
	args := m.Called(ctx, sql, maxRows)
	var cols []domain.Column
	if args.Get(0) != nil {
		cols = args.Get(0).([]domain.Column)
	}
	var rows [][]interface{}
	if args.Get(1) != nil {
		rows = args.Get(1).([][]interface{})
	}
	return cols, rows, args.Error(2)
}

// MockObjectStorage mocks port.ObjectStorage.
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *MockObjectStorage) Download(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockObjectStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
