package service

import (
	"strings"

	"github.com/hr-digital/surat-izin/internal/domain"
)

// Criterion weights of the duplicate score.
const (
	weightNationalID = 50.0
	weightLeaveDate  = 30.0
	weightDiagnosis  = 20.0
)

// Note fragments naming the matched criteria.
const (
	noteSameNationalID = "NIK sama"
	noteSameLeaveDate  = "Tanggal sama"
	noteSameDiagnosis  = "Diagnosa sama"
)

// DetectDuplicate scores the candidate against every existing record. Only records
// reaching domain.DuplicateThreshold count as similar; when none do, the highest
// score seen is still returned so callers can show a near miss.
func DetectDuplicate(candidate domain.DuplicateCandidate, existing []domain.LeaveRecord) domain.DuplicateResult {
	if len(existing) == 0 {
		return domain.DuplicateResult{}
	}

	var (
		highest float64
		similar []*domain.LeaveRecord
	)
	for i := range existing {
		score := duplicateScore(candidate, &existing[i])
		if score > highest {
			highest = score
		}
		if score >= domain.DuplicateThreshold {
			similar = append(similar, &existing[i])
		}
	}

	if len(similar) == 0 {
		return domain.DuplicateResult{IsDuplicate: false, Score: highest}
	}

	var parts []string
	if anyMatch(similar, candidate.NationalID, func(r *domain.LeaveRecord) string { return r.NationalID }) {
		parts = append(parts, noteSameNationalID)
	}
	if anyMatch(similar, candidate.LeaveDate, func(r *domain.LeaveRecord) string { return r.LeaveDate }) {
		parts = append(parts, noteSameLeaveDate)
	}
	if anyMatch(similar, candidate.Diagnosis, func(r *domain.LeaveRecord) string { return r.Diagnosis }) {
		parts = append(parts, noteSameDiagnosis)
	}

	return domain.DuplicateResult{
		IsDuplicate: true,
		Score:       highest,
		Note:        strings.Join(parts, " & "),
	}
}

func duplicateScore(candidate domain.DuplicateCandidate, record *domain.LeaveRecord) float64 {
	var score float64
	if candidate.NationalID != "" && record.NationalID == candidate.NationalID {
		score += weightNationalID
	}
	if candidate.LeaveDate != "" && record.LeaveDate == candidate.LeaveDate {
		score += weightLeaveDate
	}
	if candidate.Diagnosis != "" && record.Diagnosis == candidate.Diagnosis {
		score += weightDiagnosis
	}
	return score
}

func anyMatch(records []*domain.LeaveRecord, want string, field func(*domain.LeaveRecord) string) bool {
	if want == "" {
		return false
	}
	for _, r := range records {
		if field(r) == want {
			return true
		}
	}
	return false
}
