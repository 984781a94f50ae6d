package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invosight/internal/domain"
	"invosight/internal/service"
)

// IngestHandler serves invoice upload and retrieval.
type IngestHandler struct {
	svc *service.IngestionService
}

// NewIngestHandler creates an IngestHandler.
func NewIngestHandler(svc *service.IngestionService) *IngestHandler {
	return &IngestHandler{svc: svc}
}

// Upload accepts a multipart invoice image under the "image" field and runs
// the full ingestion flow.
func (h *IngestHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_IMAGE", "multipart field 'image' is required")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeFromName(fileHeader.Filename)
	}
	if _, ok := domain.AllowedImageTypes[contentType]; !ok {
		HandleError(c, domain.ErrUnsupportedImageType)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_IMAGE", "could not read uploaded image")
		return
	}
	defer func() { _ = f.Close() }()

	image, err := io.ReadAll(f)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_IMAGE", "could not read uploaded image")
		return
	}

	outcome, err := h.svc.Ingest(c.Request.Context(), image, contentType)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, outcome)
}

// GetByID returns one persisted invoice record with its line items.
func (h *IngestHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice id")
		return
	}

	rec, err := h.svc.GetInvoice(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

// GetImage streams the retained source image for a record.
func (h *IngestHandler) GetImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice id")
		return
	}

	data, contentType, err := h.svc.GetInvoiceImage(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

// Delete removes a persisted invoice record and its retained image.
func (h *IngestHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice id")
		return
	}

	if err := h.svc.DeleteInvoice(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List returns a page of persisted invoice records.
func (h *IngestHandler) List(c *gin.Context) {
	offset := intQuery(c, "offset", 0)
	limit := intQuery(c, "limit", 20)

	recs, total, err := h.svc.ListInvoices(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, recs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

func contentTypeFromName(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return domain.AllowedImageExtensions[strings.ToLower(name[idx+1:])]
}

func intQuery(c *gin.Context, key string, def int) int {
	val := c.Query(key)
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return def
	}
	return n
}
