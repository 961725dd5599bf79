package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hr-digital/surat-izin/internal/domain"
)

const (
	diseasesURI        = "surat-izin://diseases"
	recordURIPrefix    = "surat-izin://records/"
	recordsURITemplate = recordURIPrefix + "{id}"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         diseasesURI,
		Name:        "diseases",
		Title:       "Disease master table",
		Description: "Known diagnoses with reimbursement eligibility and severity category.",
		MIMEType:    "application/json",
	}, s.readDiseases)

	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: recordsURITemplate,
		Name:        "record",
		Title:       "Leave record",
		Description: "A stored leave record by ID, e.g. surat-izin://records/SURAT_20260112080000_1a2b3c4d.",
		MIMEType:    "application/json",
	}, s.readRecord)
}

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(&mcp.Prompt{
		Name:        "review_letter",
		Title:       "Review a leave letter",
		Description: "Ask the assistant to review a stored leave record for reimbursement and possible resubmission.",
		Arguments: []*mcp.PromptArgument{
			{Name: "record_id", Description: "ID of the stored leave record", Required: true},
		},
	}, s.reviewLetterPrompt)
}

func (s *Server) readDiseases(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.letters.Diseases())
}

func (s *Server) readRecord(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	id := strings.TrimPrefix(uri, recordURIPrefix)
	if id == "" || strings.Contains(id, "/") {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	record, err := s.letters.GetRecord(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	if err != nil {
		return nil, err
	}
	return jsonResource(uri, record)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(data)},
		},
	}, nil
}

func (s *Server) reviewLetterPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	id := strings.TrimSpace(req.Params.Arguments["record_id"])
	if id == "" {
		return nil, errors.New("record_id is required")
	}

	record, err := s.letters.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Tinjau surat izin sakit berikut (ID %s).\n\n", record.ID)
	fmt.Fprintf(&b, "NIK: %s\nNama: %s\nTanggal izin: %s\n", record.NationalID, record.Name, record.LeaveDate)
	if record.DurationDays != nil {
		fmt.Fprintf(&b, "Durasi: %d hari\n", *record.DurationDays)
	}
	fmt.Fprintf(&b, "Diagnosa: %s\nKategori: %s\n", record.Diagnosis, record.Category)
	switch {
	case record.IsReimbursable == nil:
		b.WriteString("Reimbursement: tidak diketahui\n")
	case *record.IsReimbursable:
		b.WriteString("Reimbursement: ya\n")
	default:
		b.WriteString("Reimbursement: tidak\n")
	}
	if record.DuplicateNote != nil {
		fmt.Fprintf(&b, "Duplikasi: %g%% (%s)\n", record.DuplicateScore, *record.DuplicateNote)
	}
	if record.WarningReason != nil {
		fmt.Fprintf(&b, "Peringatan: %s\n", *record.WarningReason)
	}
	fmt.Fprintf(&b, "\nGunakan tool check_duplicate dan resource %s untuk memastikan, lalu berikan rekomendasi: setujui, minta klarifikasi, atau tolak.", diseasesURI)

	return &mcp.GetPromptResult{
		Description: "Review of leave record " + record.ID,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: b.String()}},
		},
	}, nil
}
