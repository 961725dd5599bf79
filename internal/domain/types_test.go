package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryConstants(t *testing.T) {
	tests := []struct {
		name     string
		value    Category
		expected string
	}{
		{"Ringan", CategoryRingan, "RINGAN"},
		{"Sedang", CategorySedang, "SEDANG"},
		{"Berat", CategoryBerat, "BERAT"},
		{"Tidak diketahui", CategoryTidakDiketahui, "TIDAK_DIKETAHUI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value.String())
			assert.True(t, tt.value.IsValid())
		})
	}

	assert.False(t, Category("KRITIS").IsValid())
}

func TestDiseaseInfo_GenderEligibility(t *testing.T) {
	tests := []struct {
		name   string
		info   DiseaseInfo
		expect string
	}{
		{"both", DiseaseInfo{ReimbursableForMale: true, ReimbursableForFemale: true}, "Semua"},
		{"male only", DiseaseInfo{ReimbursableForMale: true}, "Laki-laki"},
		{"female only", DiseaseInfo{ReimbursableForFemale: true}, "Perempuan"},
		{"none", DiseaseInfo{}, "Tidak Ada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.info.GenderEligibility())
		})
	}
}

func TestParsedLetter_HasFields(t *testing.T) {
	empty := &ParsedLetter{RawText: "Error: 500"}
	assert.False(t, empty.HasFields())

	days := 2
	withDuration := &ParsedLetter{DurationDays: &days}
	assert.True(t, withDuration.HasFields())
}

func TestLeaveRecord_LogFieldsOmitsPersonalData(t *testing.T) {
	r := &LeaveRecord{ID: "SURAT_1", Name: "budi", RawText: "NIK: 123", Category: CategoryRingan}
	fields := r.LogFields()

	assert.Equal(t, "SURAT_1", fields["surat_id"])
	assert.Equal(t, "RINGAN", fields["kategori"])
	assert.NotContains(t, fields, "nama")
	assert.NotContains(t, fields, "raw_text")
}
