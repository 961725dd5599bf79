package service

import (
	"strings"

	"github.com/hr-digital/surat-izin/internal/domain"
)

// NotFoundValue is written by the OCR prompt for fields it cannot see.
const NotFoundValue = "TIDAK_DITEMUKAN"

// OCRErrorPrefix marks collaborator failures encoded as text.
const OCRErrorPrefix = "Error:"

// IsOCRError reports whether the transcription is a failure message rather than letter content.
func IsOCRError(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), OCRErrorPrefix)
}

// ParseLetter turns "Label: value" lines into a candidate record. Unknown labels and
// malformed lines are skipped; it never fails.
func ParseLetter(raw string) *domain.ParsedLetter {
	letter := &domain.ParsedLetter{RawText: raw}
	if IsOCRError(raw) {
		letter.OCRError = strings.TrimSpace(raw)
		return letter
	}

	for _, line := range strings.Split(raw, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(strings.Trim(key, "*-# \t")))
		value = strings.TrimSpace(strings.Trim(strings.TrimSpace(value), "*"))
		if value == "" || value == NotFoundValue {
			continue
		}

		switch key {
		case "nik":
			letter.NationalID = stringPtr(value)
		case "nama":
			letter.Name = stringPtr(value)
		case "tanggal izin":
			if date, ok := NormalizeDate(value); ok {
				letter.LeaveDate = stringPtr(date)
			}
		case "durasi":
			letter.DurationDays = ExtractDurationDays(value)
		case "diagnosa":
			letter.Diagnosis = stringPtr(NormalizeDiagnosis(value))
		case "dokter":
			letter.Doctor = stringPtr(value)
		case "rumah sakit":
			letter.Hospital = stringPtr(value)
		}
	}

	return letter
}

func stringPtr(s string) *string {
	return &s
}
