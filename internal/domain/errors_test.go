package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		message   string
		details   string
		requestID string
	}{
		{
			name:      "Validation error",
			code:      ErrValidation,
			message:   "Data NIK, Nama, Tanggal Izin, dan Diagnosa harus lengkap",
			details:   "nik is required",
			requestID: "req-123",
		},
		{
			name:      "Database error",
			code:      ErrDatabaseError,
			message:   "Failed to store record",
			details:   "disk I/O error",
			requestID: "req-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(tt.code, tt.message, tt.details, tt.requestID)

			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.details, err.Details)
			assert.Equal(t, tt.requestID, err.RequestID)
			assert.WithinDuration(t, time.Now().UTC(), err.Timestamp, time.Minute)
			assert.Equal(t, tt.code+": "+tt.message, err.Error())
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("nik", "NIK wajib diisi", "")

	assert.Equal(t, "nik", err.Field)
	assert.Equal(t, "validation error for field 'nik': NIK wajib diisi", err.Error())
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		NewValidationError("nik", "required", ""),
		NewValidationError("diagnosa", "required", ""),
	}

	assert.Equal(t,
		"validation error for field 'nik': required; validation error for field 'diagnosa': required",
		errs.Error())

	var target ValidationErrors
	wrapped := fmt.Errorf("saving letter: %w", errs)
	assert.True(t, errors.As(wrapped, &target))
	assert.Len(t, target, 2)
}

func TestSentinelErrorsWrap(t *testing.T) {
	wrapped := fmt.Errorf("inserting record SURAT_1: %w", ErrDuplicateRecordID)
	assert.ErrorIs(t, wrapped, ErrDuplicateRecordID)
	assert.NotErrorIs(t, wrapped, ErrNotFound)
}
