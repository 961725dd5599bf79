package service

import (
	"github.com/hr-digital/surat-izin/internal/domain"
)

// diseaseOrder fixes the listing order of the master table.
var diseaseOrder = []string{
	"DEMAM", "PILEK", "BATUK", "SAKIT KEPALA", "TIPES",
	"DBD", "DIARE", "ASMA", "HIPERTENSI", "DIABETES",
}

// diseaseMaster is populated once at package initialization and never written afterwards.
var diseaseMaster = map[string]domain.DiseaseInfo{
	"DEMAM": {
		Reimbursable: false, Category: domain.CategoryRingan,
		Note: "Penyakit ringan, tidak direimburse",
	},
	"PILEK": {
		Reimbursable: false, Category: domain.CategoryRingan,
		Note: "Penyakit ringan, tidak direimburse",
	},
	"BATUK": {
		Reimbursable: false, Category: domain.CategoryRingan,
		Note: "Penyakit ringan, tidak direimburse",
	},
	"SAKIT KEPALA": {
		Reimbursable: false, Category: domain.CategoryRingan,
		Note: "Penyakit ringan, tidak direimburse",
	},
	"TIPES": {
		Reimbursable: true, Category: domain.CategorySedang,
		ReimbursableForMale: true, ReimbursableForFemale: true,
		Note: "Penyakit menular, bisa direimburse semua gender",
	},
	"DBD": {
		Reimbursable: true, Category: domain.CategoryBerat,
		ReimbursableForMale: true, ReimbursableForFemale: true,
		Note: "Penyakit berat, bisa direimburse semua gender",
	},
	"DIARE": {
		Reimbursable: true, Category: domain.CategorySedang,
		ReimbursableForMale: true, ReimbursableForFemale: true,
		Note: "Penyakit menular, bisa direimburse semua gender",
	},
	"ASMA": {
		Reimbursable: true, Category: domain.CategorySedang,
		ReimbursableForMale: true, ReimbursableForFemale: true,
		Note: "Penyakit kronis, bisa direimburse semua gender",
	},
	"HIPERTENSI": {
		Reimbursable: true, Category: domain.CategorySedang,
		ReimbursableForMale: true, ReimbursableForFemale: true,
		Note: "Penyakit kronis, bisa direimburse semua gender",
	},
	"DIABETES": {
		Reimbursable: true, Category: domain.CategoryBerat,
		ReimbursableForMale: true, ReimbursableForFemale: true,
		Note: "Penyakit kronis berat, bisa direimburse semua gender",
	},
}

// DiseaseMaster returns a copy of the master table in declaration order.
func DiseaseMaster() []domain.DiseaseEntry {
	entries := make([]domain.DiseaseEntry, 0, len(diseaseOrder))
	for _, name := range diseaseOrder {
		info := diseaseMaster[name]
		entries = append(entries, domain.DiseaseEntry{
			Name:        name,
			DiseaseInfo: info,
			Gender:      info.GenderEligibility(),
		})
	}
	return entries
}

// LookupDisease returns the master data for a canonical diagnosis name.
func LookupDisease(name string) (domain.DiseaseInfo, bool) {
	info, ok := diseaseMaster[name]
	return info, ok
}
