package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hr-digital/surat-izin/internal/domain"
	"github.com/hr-digital/surat-izin/internal/service"
)

// ParseLetterTextParams defines parameters for parse_letter_text tool
type ParseLetterTextParams struct {
	Text string `json:"text" jsonschema:"the OCR transcription, one Label: value pair per line"`
}

// ParseLetterTextResult defines the result structure for parse_letter_text tool.
// Analysis is omitted when no diagnosis was parsed.
type ParseLetterTextResult struct {
	Letter    *domain.ParsedLetter   `json:"letter"`
	HasFields bool                   `json:"has_fields"`
	Analysis  *domain.Classification `json:"analysis,omitempty"`
}

// ClassifyDiagnosisParams defines parameters for classify_diagnosis tool
type ClassifyDiagnosisParams struct {
	Diagnosis string `json:"diagnosa" jsonschema:"diagnosis as written on the letter, synonyms are accepted"`
}

// ClassifyDiagnosisResult defines the result structure for classify_diagnosis tool
type ClassifyDiagnosisResult struct {
	Diagnosis string `json:"diagnosa"`
	domain.Classification
}

// CheckDuplicateParams defines parameters for check_duplicate tool
type CheckDuplicateParams struct {
	NationalID string `json:"nik,omitempty" jsonschema:"employee national ID"`
	LeaveDate  string `json:"tanggal_izin,omitempty" jsonschema:"leave date, YYYY-MM-DD or '12 Januari 2026'"`
	Diagnosis  string `json:"diagnosa,omitempty" jsonschema:"diagnosis"`
}

// ListRecordsParams defines parameters for list_records tool
type ListRecordsParams struct {
	Status        string `json:"status,omitempty" jsonschema:"eligible, review or not_reimbursable"`
	DuplicateOnly bool   `json:"duplicate_only,omitempty" jsonschema:"only records flagged as duplicates"`
	WarningOnly   bool   `json:"warning_only,omitempty" jsonschema:"only records with a warning"`
	Limit         int    `json:"limit,omitempty" jsonschema:"maximum number of records, 0 for all"`
}

// ListRecordsResult defines the result structure for list_records tool
type ListRecordsResult struct {
	Total   int                  `json:"total"`
	Records []domain.LeaveRecord `json:"records"`
}

// DashboardSummaryParams defines parameters for dashboard_summary tool
type DashboardSummaryParams struct {
	Year  int    `json:"year,omitempty" jsonschema:"upload year, used together with month"`
	Month int    `json:"month,omitempty" jsonschema:"upload month 1-12"`
	From  string `json:"from,omitempty" jsonschema:"first upload date YYYY-MM-DD (inclusive)"`
	To    string `json:"to,omitempty" jsonschema:"last upload date YYYY-MM-DD (inclusive)"`
}

// ListDiseasesResult defines the result structure for list_diseases tool
type ListDiseasesResult struct {
	Diseases []domain.DiseaseEntry `json:"diseases"`
}

func (s *Server) handleParseLetterText(ctx context.Context, req *mcp.CallToolRequest, params ParseLetterTextParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "parse_letter_text").Info("Tool invoked")

	if strings.TrimSpace(params.Text) == "" {
		return s.createErrorResult("Missing required parameter", errors.New("text is required")), nil, nil
	}

	letter := service.ParseLetter(params.Text)
	if letter.OCRError != "" {
		return s.createErrorResult("Transcription failed", errors.New(letter.OCRError)), nil, nil
	}

	result := ParseLetterTextResult{
		Letter:    letter,
		HasFields: letter.HasFields(),
	}
	if letter.Diagnosis != nil {
		analysis := service.ClassifyDiagnosis(*letter.Diagnosis)
		result.Analysis = &analysis
	}

	return nil, result, nil
}

func (s *Server) handleClassifyDiagnosis(ctx context.Context, req *mcp.CallToolRequest, params ClassifyDiagnosisParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "classify_diagnosis").Info("Tool invoked")

	if strings.TrimSpace(params.Diagnosis) == "" {
		return s.createErrorResult("Missing required parameter", errors.New("diagnosa is required")), nil, nil
	}

	diagnosis := service.NormalizeDiagnosis(params.Diagnosis)
	return nil, ClassifyDiagnosisResult{
		Diagnosis:      diagnosis,
		Classification: service.ClassifyDiagnosis(diagnosis),
	}, nil
}

func (s *Server) handleCheckDuplicate(ctx context.Context, req *mcp.CallToolRequest, params CheckDuplicateParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "check_duplicate").Info("Tool invoked")

	if strings.TrimSpace(params.NationalID+params.LeaveDate+params.Diagnosis) == "" {
		return s.createErrorResult("Missing required parameter", errors.New("at least one of nik, tanggal_izin, diagnosa is required")), nil, nil
	}

	result, err := s.letters.CheckDuplicate(ctx, domain.DuplicateCandidate{
		NationalID: params.NationalID,
		LeaveDate:  params.LeaveDate,
		Diagnosis:  params.Diagnosis,
	})
	if err != nil {
		return nil, nil, err
	}
	return nil, result, nil
}

func (s *Server) handleListRecords(ctx context.Context, req *mcp.CallToolRequest, params ListRecordsParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "list_records").Info("Tool invoked")

	if params.Limit < 0 {
		return s.createErrorResult("Invalid parameters", errors.New("limit must not be negative")), nil, nil
	}

	records, err := s.letters.ListRecords(ctx, service.RecordFilter{
		Status:        params.Status,
		DuplicateOnly: params.DuplicateOnly,
		WarningOnly:   params.WarningOnly,
	})
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		return s.createErrorResult("Invalid parameters", err), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	result := ListRecordsResult{Total: len(records), Records: records}
	if params.Limit > 0 && len(records) > params.Limit {
		result.Records = records[:params.Limit]
	}
	return nil, result, nil
}

func (s *Server) handleDashboardSummary(ctx context.Context, req *mcp.CallToolRequest, params DashboardSummaryParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "dashboard_summary").Info("Tool invoked")

	filter := service.DashboardFilter{Year: params.Year, Month: params.Month}
	for _, d := range []struct {
		value  string
		target **time.Time
		name   string
	}{
		{params.From, &filter.From, "from"},
		{params.To, &filter.To, "to"},
	} {
		if d.value == "" {
			continue
		}
		parsed, err := time.Parse(time.DateOnly, d.value)
		if err != nil {
			return s.createErrorResult("Invalid parameters", fmt.Errorf("%s must be YYYY-MM-DD", d.name)), nil, nil
		}
		*d.target = &parsed
	}

	summary, err := s.letters.Dashboard(ctx, filter)
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		return s.createErrorResult("Invalid parameters", err), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return nil, summary, nil
}

func (s *Server) handleListDiseases(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "list_diseases").Info("Tool invoked")

	return nil, ListDiseasesResult{Diseases: s.letters.Diseases()}, nil
}
