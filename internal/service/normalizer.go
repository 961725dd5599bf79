package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	digitsPattern  = regexp.MustCompile(`\d+`)
	dayPattern     = regexp.MustCompile(`^\d{1,2}$`)
	yearPattern    = regexp.MustCompile(`^\d{4}$`)
)

type monthToken struct {
	name   string
	number string
}

// monthTokens is searched in order and the first contained token wins. Full names
// precede their abbreviations so "maret" is never read through "mar".
var monthTokens = []monthToken{
	{"januari", "01"}, {"january", "01"}, {"jan", "01"},
	{"februari", "02"}, {"february", "02"}, {"feb", "02"},
	{"maret", "03"}, {"march", "03"}, {"mar", "03"},
	{"april", "04"}, {"apr", "04"},
	{"mei", "05"}, {"may", "05"},
	{"juni", "06"}, {"june", "06"}, {"jun", "06"},
	{"juli", "07"}, {"july", "07"}, {"jul", "07"},
	{"agustus", "08"}, {"august", "08"}, {"aug", "08"},
	{"september", "09"}, {"sept", "09"}, {"sep", "09"},
	{"oktober", "10"}, {"october", "10"}, {"oct", "10"},
	{"november", "11"}, {"nov", "11"},
	{"desember", "12"}, {"december", "12"}, {"dec", "12"},
}

type synonymGroup struct {
	canonical string
	variants  []string
}

// diagnosisSynonyms is searched in declaration order; the first group with a variant
// contained in the diagnosis wins. As a consequence "DEMAM BERDARAH" resolves to DEMAM.
var diagnosisSynonyms = []synonymGroup{
	{"DEMAM", []string{"DEMAM", "FEBRIS", "PANAS", "FEVER"}},
	{"TIPES", []string{"TIPES", "TYPHUS", "TYPUS"}},
	{"DBD", []string{"DBD", "DENGUE", "DEMAM BERDARAH"}},
	{"PILEK", []string{"PILEK", "COMMON COLD", "RHINITIS"}},
	{"BATUK", []string{"BATUK", "COUGH"}},
	{"SAKIT KEPALA", []string{"SAKIT KEPALA", "HEADACHE", "MIGRAIN"}},
	{"DIARE", []string{"DIARE", "DIARRHEA"}},
	{"ASMA", []string{"ASMA", "ASTHMA"}},
	{"HIPERTENSI", []string{"HIPERTENSI", "HYPERTENSION"}},
	{"DIABETES", []string{"DIABETES"}},
}

// NormalizeDate converts "12 Januari 2026" style dates into YYYY-MM-DD. ISO input is
// returned unchanged. The second return value is false when no pattern matches.
func NormalizeDate(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if isoDatePattern.MatchString(trimmed) {
		return trimmed, true
	}

	lower := strings.ToLower(trimmed)
	for _, month := range monthTokens {
		if !strings.Contains(lower, month.name) {
			continue
		}

		parts := strings.Fields(lower)
		if len(parts) < 2 {
			return "", false
		}
		day := strings.Trim(parts[0], ",.")
		year := strings.Trim(parts[len(parts)-1], ",.")
		if !dayPattern.MatchString(day) || !yearPattern.MatchString(year) {
			return "", false
		}
		if len(day) == 1 {
			day = "0" + day
		}
		return fmt.Sprintf("%s-%s-%s", year, month.number, day), true
	}

	return "", false
}

// ExtractDurationDays returns the first run of digits in the input, or nil.
func ExtractDurationDays(input string) *int {
	match := digitsPattern.FindString(input)
	if match == "" {
		return nil
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &n
}

// NormalizeDiagnosis upper-cases and trims a diagnosis and maps known synonyms to
// their canonical name. Unknown diagnoses pass through in cleaned form.
func NormalizeDiagnosis(input string) string {
	diagnosis := collapseSpaces(strings.ToUpper(input))

	for _, group := range diagnosisSynonyms {
		for _, variant := range group.variants {
			if strings.Contains(diagnosis, variant) {
				return group.canonical
			}
		}
	}

	return diagnosis
}

// NormalizeName lower-cases and trims an employee name.
func NormalizeName(input string) string {
	return collapseSpaces(strings.ToLower(input))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
