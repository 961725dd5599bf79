package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hr-digital/surat-izin/internal/domain"
)

const (
	topDiagnosesLimit     = 5
	repeatEmployeeMinimum = 3
)

// DashboardFilter restricts the dashboard to records uploaded in a given month
// (Year and Month) or within an inclusive date range (From and To). The zero
// value selects every record.
type DashboardFilter struct {
	Year  int        `json:"year,omitempty"`
	Month int        `json:"month,omitempty"`
	From  *time.Time `json:"from,omitempty"`
	To    *time.Time `json:"to,omitempty"`
}

// Validate checks that at most one filter mode is used and that it is well formed.
func (f DashboardFilter) Validate() error {
	var verrs domain.ValidationErrors
	byMonth := f.Year != 0 || f.Month != 0
	byRange := f.From != nil || f.To != nil

	if byMonth && byRange {
		verrs = append(verrs, domain.NewValidationError("filter", "pilih filter bulan atau rentang tanggal, bukan keduanya", nil))
	}
	if byMonth {
		if f.Year < 1 {
			verrs = append(verrs, domain.NewValidationError("year", "wajib diisi bersama month", f.Year))
		}
		if f.Month < 1 || f.Month > 12 {
			verrs = append(verrs, domain.NewValidationError("month", "harus antara 1 dan 12", f.Month))
		}
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		verrs = append(verrs, domain.NewValidationError("from", "tidak boleh setelah to", f.From.Format(time.DateOnly)))
	}

	if len(verrs) > 0 {
		return verrs
	}
	return nil
}

func (f DashboardFilter) includes(uploadedAt time.Time) bool {
	uploadedAt = uploadedAt.UTC()
	if f.Year != 0 {
		return uploadedAt.Year() == f.Year && int(uploadedAt.Month()) == f.Month
	}
	day := truncateDay(uploadedAt)
	if f.From != nil && day.Before(truncateDay(*f.From)) {
		return false
	}
	if f.To != nil && day.After(truncateDay(*f.To)) {
		return false
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DashboardTotals are the headline counters. NotEligible includes records whose
// reimbursement state is unknown.
type DashboardTotals struct {
	Letters     int `json:"total_surat"`
	Eligible    int `json:"eligible"`
	NotEligible int `json:"tidak_eligible"`
	Duplicates  int `json:"duplikat"`
	NeedsReview int `json:"perlu_review"`
}

// LabelCount is one bar of a frequency chart.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ReimbursementSplit counts records with a known reimbursement state.
type ReimbursementSplit struct {
	Reimbursable    int `json:"bisa_direimburse"`
	NotReimbursable int `json:"tidak_bisa_direimburse"`
}

// RepeatEmployee is an employee with at least three letters in the period.
type RepeatEmployee struct {
	NationalID string `json:"nik"`
	Name       string `json:"nama"`
	Count      int    `json:"count"`
}

// DashboardSummary aggregates stored records for the analytics view.
type DashboardSummary struct {
	Filter             DashboardFilter    `json:"filter"`
	Totals             DashboardTotals    `json:"totals"`
	TopDiagnoses       []LabelCount       `json:"top_diagnoses"`
	TopNotReimbursable []LabelCount       `json:"top_not_reimbursable"`
	Reimbursement      ReimbursementSplit `json:"reimbursement"`
	Categories         []LabelCount       `json:"categories"`
	MonthlyTrend       []LabelCount       `json:"monthly_trend"`
	RepeatEmployees    []RepeatEmployee   `json:"repeat_employees"`
	DuplicateScores    []float64          `json:"duplicate_scores"`
}

// Dashboard loads every record and summarizes the ones selected by the filter.
func (s *LetterService) Dashboard(ctx context.Context, filter DashboardFilter) (*DashboardSummary, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records for dashboard: %w", err)
	}
	summary := BuildDashboard(records, filter)
	return &summary, nil
}

// BuildDashboard summarizes records, which are expected newest first. The
// monthly trend is keyed by leave date while the filter applies to upload date.
func BuildDashboard(records []domain.LeaveRecord, filter DashboardFilter) DashboardSummary {
	summary := DashboardSummary{
		Filter:             filter,
		TopDiagnoses:       []LabelCount{},
		TopNotReimbursable: []LabelCount{},
		Categories:         []LabelCount{},
		MonthlyTrend:       []LabelCount{},
		RepeatEmployees:    []RepeatEmployee{},
		DuplicateScores:    []float64{},
	}

	diagnoses := map[string]int{}
	notReimbursable := map[string]int{}
	categories := map[string]int{}
	months := map[string]int{}
	perEmployee := map[string]int{}
	employeeName := map[string]string{}

	for i := range records {
		r := &records[i]
		if !filter.includes(r.UploadedAt) {
			continue
		}

		summary.Totals.Letters++
		if r.IsReimbursable != nil {
			if *r.IsReimbursable {
				summary.Totals.Eligible++
				summary.Reimbursement.Reimbursable++
			} else {
				summary.Reimbursement.NotReimbursable++
				notReimbursable[r.Diagnosis]++
			}
		}
		if r.IsDuplicate {
			summary.Totals.Duplicates++
			summary.DuplicateScores = append(summary.DuplicateScores, r.DuplicateScore)
		}
		if r.WarningFlag {
			summary.Totals.NeedsReview++
		}

		diagnoses[r.Diagnosis]++
		categories[r.Category.String()]++
		if len(r.LeaveDate) >= 7 {
			if _, err := time.Parse("2006-01", r.LeaveDate[:7]); err == nil {
				months[r.LeaveDate[:7]]++
			}
		}
		perEmployee[r.NationalID]++
		if _, seen := employeeName[r.NationalID]; !seen {
			employeeName[r.NationalID] = r.Name
		}
	}
	summary.Totals.NotEligible = summary.Totals.Letters - summary.Totals.Eligible

	summary.TopDiagnoses = topCounts(diagnoses, topDiagnosesLimit)
	summary.TopNotReimbursable = topCounts(notReimbursable, topDiagnosesLimit)
	summary.Categories = topCounts(categories, 0)

	for month, count := range months {
		summary.MonthlyTrend = append(summary.MonthlyTrend, LabelCount{Label: month, Count: count})
	}
	sort.Slice(summary.MonthlyTrend, func(i, j int) bool {
		return summary.MonthlyTrend[i].Label < summary.MonthlyTrend[j].Label
	})

	for nik, count := range perEmployee {
		if count >= repeatEmployeeMinimum {
			summary.RepeatEmployees = append(summary.RepeatEmployees, RepeatEmployee{
				NationalID: nik,
				Name:       employeeName[nik],
				Count:      count,
			})
		}
	}
	sort.Slice(summary.RepeatEmployees, func(i, j int) bool {
		a, b := summary.RepeatEmployees[i], summary.RepeatEmployees[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.NationalID < b.NationalID
	})

	return summary
}

// topCounts orders by count descending then label; limit 0 keeps every entry.
func topCounts(counts map[string]int, limit int) []LabelCount {
	out := make([]LabelCount, 0, len(counts))
	for label, count := range counts {
		out = append(out, LabelCount{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
