package service

import (
	"strings"

	"github.com/hr-digital/surat-izin/internal/domain"
)

// Warnings produced by the classifier.
const (
	WarningNotReimbursable = "Penyakit tidak dapat direimburse"
	WarningUnknownDisease  = "Diagnosis tidak ditemukan di master data"
)

// ClassifyDiagnosis looks a diagnosis up in the disease master table. An unknown
// diagnosis yields an unknown reimbursement state rather than false.
func ClassifyDiagnosis(diagnosis string) domain.Classification {
	info, ok := LookupDisease(strings.ToUpper(strings.TrimSpace(diagnosis)))
	if !ok {
		warning := WarningUnknownDisease
		return domain.Classification{
			IsReimbursable: nil,
			Category:       domain.CategoryTidakDiketahui,
			Warning:        &warning,
		}
	}

	reimbursable := info.Reimbursable
	result := domain.Classification{
		IsReimbursable: &reimbursable,
		Category:       info.Category,
	}
	if !reimbursable {
		warning := WarningNotReimbursable
		result.Warning = &warning
	}
	return result
}
