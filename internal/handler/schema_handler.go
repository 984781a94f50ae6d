package handler

import (
	"github.com/gin-gonic/gin"

	"invosight/internal/port"
)

// SchemaHandler exposes the queryable schema snapshot.
type SchemaHandler struct {
	store port.RecordStore
}

// NewSchemaHandler creates a SchemaHandler.
func NewSchemaHandler(store port.RecordStore) *SchemaHandler {
	return &SchemaHandler{store: store}
}

// Describe returns the current queryable tables and columns.
func (h *SchemaHandler) Describe(c *gin.Context) {
	desc, err := h.store.DescribeSchema(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, desc.Tables)
}
