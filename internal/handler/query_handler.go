package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"invosight/internal/service"
	"invosight/internal/xlsxexport"
)

// QueryHandler serves natural-language queries over persisted invoices.
type QueryHandler struct {
	svc *service.QueryService
}

// NewQueryHandler creates a QueryHandler.
func NewQueryHandler(svc *service.QueryService) *QueryHandler {
	return &QueryHandler{svc: svc}
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

// Ask answers one question as JSON. A guard rejection comes back as a
// successful response with a rejection_reason, not an error.
func (h *QueryHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "body must be JSON with a 'question' field")
		return
	}

	result, err := h.svc.Ask(c.Request.Context(), req.Question)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

// Export answers one question and streams the result as an xlsx workbook.
// Rejected or empty results export as a header-only sheet.
func (h *QueryHandler) Export(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "body must be JSON with a 'question' field")
		return
	}

	result, err := h.svc.Ask(c.Request.Context(), req.Question)
	if err != nil {
		HandleError(c, err)
		return
	}
	if result.RejectionReason != "" {
		RespondError(c, http.StatusUnprocessableEntity, "QUERY_REJECTED", result.RejectionReason)
		return
	}

	data, err := xlsxexport.WriteResult(result)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("query-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
