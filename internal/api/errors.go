package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hr-digital/surat-izin/internal/domain"
	"github.com/hr-digital/surat-izin/internal/middleware"
	"github.com/hr-digital/surat-izin/internal/records"
	"github.com/hr-digital/surat-izin/internal/service"
	"github.com/hr-digital/surat-izin/pkg/external"
)

// respondError maps workflow errors onto HTTP status codes and the APIError body.
func (s *Server) respondError(c *gin.Context, err error) {
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		apiErr := domain.NewAPIError(domain.ErrValidation, "Validasi gagal", err.Error(), c.GetString(middleware.CorrelationIDKey))
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error":  apiErr,
			"fields": verrs,
		})
		return
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		s.abort(c, http.StatusRequestEntityTooLarge, domain.ErrPayloadTooLarge, "Import document is too large", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		s.abort(c, http.StatusNotFound, domain.ErrNotFoundCode, "Record not found", err.Error())
	case errors.Is(err, domain.ErrDuplicateRecordID):
		s.abort(c, http.StatusConflict, domain.ErrConflict, "Record ID already exists", err.Error())
	case errors.Is(err, records.ErrInvalidExport):
		s.abort(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid export document", err.Error())
	case errors.Is(err, domain.ErrFileTooLarge):
		s.abort(c, http.StatusRequestEntityTooLarge, domain.ErrPayloadTooLarge, "Uploaded file is too large", err.Error())
	case errors.Is(err, domain.ErrUnsupportedFile):
		s.abort(c, http.StatusUnsupportedMediaType, domain.ErrUnsupportedMedia, "Only JPG, PNG and PDF letters are accepted", err.Error())
	case errors.Is(err, domain.ErrOCRUnavailable):
		s.abort(c, http.StatusServiceUnavailable, domain.ErrServiceUnavailable, "OCR is not configured, enter the letter manually", "")
	case errors.Is(err, domain.ErrOCRFailed):
		s.abort(c, http.StatusBadGateway, domain.ErrExternalAPI, "Letter could not be read", external.ErrorText(err))
	case errors.Is(err, context.DeadlineExceeded):
		s.abort(c, http.StatusGatewayTimeout, domain.ErrTimeout, "Request timed out", "")
	default:
		s.logger.WithError(err).WithField("correlation_id", c.GetString(middleware.CorrelationIDKey)).Error("Request failed")
		s.abort(c, http.StatusInternalServerError, domain.ErrInternalServer, "Internal server error", "")
	}
}

func (s *Server) abort(c *gin.Context, status int, code, message, details string) {
	apiErr := domain.NewAPIError(code, message, details, c.GetString(middleware.CorrelationIDKey))
	c.AbortWithStatusJSON(status, gin.H{"error": apiErr})
}

func parseRecordFilter(c *gin.Context) (service.RecordFilter, error) {
	var verrs domain.ValidationErrors
	filter := service.RecordFilter{Status: c.Query("status")}

	filter.DuplicateOnly = queryBool(c, "duplicate_only", &verrs)
	filter.WarningOnly = queryBool(c, "warning_only", &verrs)

	if len(verrs) > 0 {
		return filter, verrs
	}
	return filter, nil
}

func parseDashboardFilter(c *gin.Context) (service.DashboardFilter, error) {
	var verrs domain.ValidationErrors
	filter := service.DashboardFilter{
		Year:  queryInt(c, "year", &verrs),
		Month: queryInt(c, "month", &verrs),
		From:  queryDate(c, "from", &verrs),
		To:    queryDate(c, "to", &verrs),
	}

	if len(verrs) > 0 {
		return filter, verrs
	}
	return filter, nil
}

func queryBool(c *gin.Context, key string, verrs *domain.ValidationErrors) bool {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*verrs = append(*verrs, domain.NewValidationError(key, "harus true atau false", raw))
	}
	return v
}

func queryInt(c *gin.Context, key string, verrs *domain.ValidationErrors) int {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*verrs = append(*verrs, domain.NewValidationError(key, "harus berupa angka", raw))
	}
	return v
}

func queryDate(c *gin.Context, key string, verrs *domain.ValidationErrors) *time.Time {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil
	}
	v, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		*verrs = append(*verrs, domain.NewValidationError(key, "format tanggal harus YYYY-MM-DD", raw))
		return nil
	}
	return &v
}
