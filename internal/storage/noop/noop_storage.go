// Package noop provides an ObjectStorage that discards everything. Used
// when no retention bucket is configured.
package noop

import (
	"context"
	"errors"
	"fmt"

	"invosight/internal/port"
)

// ErrRetentionDisabled is returned for every operation so callers never
// record a key that points at nothing.
var ErrRetentionDisabled = errors.New("image retention disabled")

type noopStorage struct{}

// NewStorage creates a no-op ObjectStorage.
func NewStorage() port.ObjectStorage {
	return noopStorage{}
}

func (noopStorage) Upload(_ context.Context, _ string, _ []byte, _ string) error {
	return ErrRetentionDisabled
}

func (noopStorage) Download(_ context.Context, key string) ([]byte, error) {
	return nil, fmt.Errorf("image retention disabled: no object for %q", key)
}

func (noopStorage) Delete(_ context.Context, _ string) error {
	return nil
}
