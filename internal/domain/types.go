// Package domain contains the core entities of the leave letter (surat izin dokter)
// digitization service: parsed letters, persisted leave records, disease master data
// and the results of duplicate detection and disease classification.
package domain

import (
	"time"
)

// Category is the severity bucket of a diagnosis.
type Category string

const (
	CategoryRingan         Category = "RINGAN"
	CategorySedang         Category = "SEDANG"
	CategoryBerat          Category = "BERAT"
	CategoryTidakDiketahui Category = "TIDAK_DIKETAHUI"
)

// IsValid reports whether the category is one of the known buckets.
func (c Category) IsValid() bool {
	switch c {
	case CategoryRingan, CategorySedang, CategoryBerat, CategoryTidakDiketahui:
		return true
	default:
		return false
	}
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// DuplicateThreshold is the minimum score for an existing record to count as a
// probable resubmission of the same leave claim.
const DuplicateThreshold = 80.0

// LeaveRecord is a finalized, persisted leave letter. Records are never mutated once stored.
type LeaveRecord struct {
	ID             string    `json:"surat_id"`
	NationalID     string    `json:"nik"`
	Name           string    `json:"nama"`
	LeaveDate      string    `json:"tanggal_izin,omitempty"`
	DurationDays   *int      `json:"durasi"`
	Diagnosis      string    `json:"diagnosa"`
	Doctor         string    `json:"dokter,omitempty"`
	Hospital       string    `json:"rumah_sakit,omitempty"`
	IsReimbursable *bool     `json:"is_reimburseable"`
	Category       Category  `json:"kategori"`
	IsDuplicate    bool      `json:"is_duplicate"`
	DuplicateScore float64   `json:"duplicate_score"`
	DuplicateNote  *string   `json:"duplicate_note"`
	WarningFlag    bool      `json:"warning_flag"`
	WarningReason  *string   `json:"warning_reason"`
	UploadedAt     time.Time `json:"upload_date"`
	RawText        string    `json:"raw_text"`
}

// LogFields returns structured logging fields for audit trails. Raw text and the
// employee name are deliberately left out.
func (r *LeaveRecord) LogFields() map[string]any {
	return map[string]any{
		"surat_id":        r.ID,
		"tanggal_izin":    r.LeaveDate,
		"diagnosa":        r.Diagnosis,
		"kategori":        string(r.Category),
		"is_duplicate":    r.IsDuplicate,
		"duplicate_score": r.DuplicateScore,
		"warning_flag":    r.WarningFlag,
	}
}

// ParsedLetter is the candidate record produced from OCR text. Every field is optional.
type ParsedLetter struct {
	NationalID   *string `json:"nik"`
	Name         *string `json:"nama"`
	LeaveDate    *string `json:"tanggal_izin"`
	DurationDays *int    `json:"durasi"`
	Diagnosis    *string `json:"diagnosa"`
	Doctor       *string `json:"dokter"`
	Hospital     *string `json:"rumah_sakit"`
	RawText      string  `json:"raw_text"`

	// OCRError holds the collaborator's error text when the transcription failed.
	OCRError string `json:"ocr_error,omitempty"`
}

// HasFields reports whether at least one field was recognized.
func (p *ParsedLetter) HasFields() bool {
	return p.NationalID != nil || p.Name != nil || p.LeaveDate != nil || p.DurationDays != nil ||
		p.Diagnosis != nil || p.Doctor != nil || p.Hospital != nil
}

// Classification is the outcome of looking a diagnosis up in the disease master table.
type Classification struct {
	IsReimbursable *bool    `json:"is_reimburseable"`
	Category       Category `json:"kategori"`
	Warning        *string  `json:"warning"`
}

// DuplicateCandidate carries the normalized values compared by the duplicate detector.
// An empty field means the value is unknown and its criterion is skipped.
type DuplicateCandidate struct {
	NationalID string `json:"nik"`
	LeaveDate  string `json:"tanggal_izin"`
	Diagnosis  string `json:"diagnosa"`
}

// DuplicateResult is the outcome of scoring a candidate against stored records.
type DuplicateResult struct {
	IsDuplicate bool    `json:"is_duplicate"`
	Score       float64 `json:"score"`
	Note        string  `json:"note"`
}

// DiseaseInfo is one entry of the static disease master table.
type DiseaseInfo struct {
	Reimbursable          bool     `json:"reimburseable"`
	Category              Category `json:"kategori"`
	ReimbursableForMale   bool     `json:"reimburseable_male"`
	ReimbursableForFemale bool     `json:"reimburseable_female"`
	Note                  string   `json:"catatan"`
}

// GenderEligibility summarizes which genders the disease is reimbursable for.
func (d DiseaseInfo) GenderEligibility() string {
	switch {
	case d.ReimbursableForMale && d.ReimbursableForFemale:
		return "Semua"
	case d.ReimbursableForMale:
		return "Laki-laki"
	case d.ReimbursableForFemale:
		return "Perempuan"
	default:
		return "Tidak Ada"
	}
}

// DiseaseEntry pairs a canonical diagnosis name with its master data, for ordered listings.
type DiseaseEntry struct {
	Name string `json:"penyakit"`
	DiseaseInfo
	Gender string `json:"jenis_kelamin"`
}
