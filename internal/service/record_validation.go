package service

import (
	"strings"
	"time"

	"github.com/hr-digital/surat-izin/internal/domain"
)

// ValidateRecord checks a finalized record against the invariants SaveLetter
// guarantees: mandatory fields, normalized name and diagnosis, an ISO leave date,
// classification matching the disease master, and consistent duplicate and
// warning flags. Failures are returned as domain.ValidationErrors.
func ValidateRecord(r *domain.LeaveRecord) error {
	var verrs domain.ValidationErrors
	fail := func(field, message string, value interface{}) {
		verrs = append(verrs, domain.NewValidationError(field, message, value))
	}

	if strings.TrimSpace(r.ID) == "" {
		fail("surat_id", "wajib diisi", r.ID)
	}
	if strings.TrimSpace(r.NationalID) == "" || strings.TrimSpace(r.NationalID) != r.NationalID {
		fail("nik", "wajib diisi tanpa spasi di awal atau akhir", r.NationalID)
	}

	if r.Name == "" {
		fail("nama", "wajib diisi", r.Name)
	} else if NormalizeName(r.Name) != r.Name {
		fail("nama", "belum dinormalisasi", r.Name)
	}

	if r.Diagnosis == "" {
		fail("diagnosa", "wajib diisi", r.Diagnosis)
	} else if NormalizeDiagnosis(r.Diagnosis) != r.Diagnosis {
		fail("diagnosa", "belum dinormalisasi", r.Diagnosis)
	}

	if _, err := time.Parse(time.DateOnly, r.LeaveDate); err != nil {
		fail("tanggal_izin", "format tanggal harus YYYY-MM-DD", r.LeaveDate)
	}
	if r.DurationDays != nil && (*r.DurationDays < 1 || *r.DurationDays > 365) {
		fail("durasi", "harus antara 1 dan 365", *r.DurationDays)
	}
	if r.UploadedAt.IsZero() {
		fail("upload_date", "wajib diisi", nil)
	}

	if !r.Category.IsValid() {
		fail("kategori", "kategori tidak dikenal", string(r.Category))
	}
	classification := ClassifyDiagnosis(r.Diagnosis)
	if r.Category.IsValid() && r.Category != classification.Category {
		fail("kategori", "tidak sesuai master penyakit ("+classification.Category.String()+")", string(r.Category))
	}
	if !sameReimbursable(r.IsReimbursable, classification.IsReimbursable) {
		fail("is_reimburseable", "tidak sesuai master penyakit", r.IsReimbursable)
	}

	if r.DuplicateScore < 0 || r.DuplicateScore > 100 {
		fail("duplicate_score", "harus antara 0 dan 100", r.DuplicateScore)
	}
	if r.IsDuplicate && r.DuplicateScore < domain.DuplicateThreshold {
		fail("duplicate_score", "duplikat harus memiliki skor minimal 80", r.DuplicateScore)
	}
	if r.IsDuplicate != (r.DuplicateNote != nil) {
		fail("duplicate_note", "hanya diisi untuk duplikat", r.DuplicateNote)
	}

	wantWarning := r.IsDuplicate || classification.Warning != nil
	if r.WarningFlag != wantWarning {
		fail("warning_flag", "tidak sesuai status duplikasi dan master penyakit", r.WarningFlag)
	}
	if r.WarningFlag != (r.WarningReason != nil) {
		fail("warning_reason", "wajib diisi jika dan hanya jika warning_flag aktif", r.WarningReason)
	}

	if len(verrs) > 0 {
		return verrs
	}
	return nil
}

func sameReimbursable(a, b *bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
