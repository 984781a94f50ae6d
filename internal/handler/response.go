package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"invosight/internal/capability"
	"invosight/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	var execErr *domain.ExecError
	var provErr *capability.ProviderError
	var rlErr *capability.RateLimitError

	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound, "RECORD_NOT_FOUND", "invoice record not found"
	case errors.Is(err, domain.ErrImageNotRetained):
		return http.StatusNotFound, "IMAGE_NOT_RETAINED", "no source image was retained for this record"
	case errors.Is(err, domain.ErrEmptyQuestion):
		return http.StatusBadRequest, "EMPTY_QUESTION", "question must not be empty"
	case errors.Is(err, domain.ErrAmbiguousQuestion):
		return http.StatusUnprocessableEntity, "AMBIGUOUS_QUESTION", "the question could not be translated confidently; try rephrasing"
	case errors.Is(err, domain.ErrQueryTimeout):
		return http.StatusGatewayTimeout, "QUERY_TIMEOUT", "the query took too long to execute"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "the record store is unavailable; try again shortly"
	case errors.Is(err, domain.ErrUnsupportedImageType):
		return http.StatusBadRequest, "UNSUPPORTED_IMAGE_TYPE", "unsupported image type; allowed: jpg, png"
	case errors.Is(err, domain.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE", "image exceeds maximum allowed size"
	case errors.Is(err, domain.ErrMalformedExtraction):
		return http.StatusBadGateway, "MALFORMED_EXTRACTION", "the extraction model returned unusable output"
	case errors.As(err, &execErr):
		return http.StatusBadGateway, "QUERY_EXECUTION_FAILED", execErr.SafeMessage
	case errors.As(err, &rlErr):
		return http.StatusServiceUnavailable, "PROVIDER_RATE_LIMITED", "the model provider is rate limiting; try again shortly"
	case errors.As(err, &provErr):
		if provErr.Transient() {
			return http.StatusServiceUnavailable, "PROVIDER_UNAVAILABLE", "the model provider is unavailable; try again shortly"
		}
		return http.StatusBadGateway, "PROVIDER_ERROR", "the model provider rejected the request"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] %s: %v", requestID, code, err)
	}
	RespondError(c, status, code, msg)
}
