// Package mcp exposes the leave letter workflow as MCP tools, resources and prompts over stdio.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/hr-digital/surat-izin/internal/domain"
	"github.com/hr-digital/surat-izin/internal/service"
)

// Server represents the surat izin MCP server
type Server struct {
	mcpServer *mcp.Server
	letters   *service.LetterService
	logger    *logrus.Logger
}

// NewServer creates a new MCP server instance with every tool registered
func NewServer(cfg domain.MCPConfig, letters *service.LetterService, logger *logrus.Logger) *Server {
	serverInfo := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}

	server := &Server{
		mcpServer: mcp.NewServer(serverInfo, nil),
		letters:   letters,
		logger:    logger,
	}
	server.registerTools()
	server.registerResources()
	server.registerPrompts()

	return server
}

// Start serves MCP requests on stdin/stdout until ctx is cancelled or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting surat izin MCP server on stdio")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Connect serves a single session on the given transport.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcpServer.Connect(ctx, transport, nil)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "parse_letter_text",
		Description: "Parse an OCR transcription of a doctor's leave letter (\"Label: value\" lines) into structured fields.",
	}, s.handleParseLetterText)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "classify_diagnosis",
		Description: "Normalize a diagnosis and look up its reimbursement eligibility and severity category.",
	}, s.handleClassifyDiagnosis)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "check_duplicate",
		Description: "Score a leave claim (NIK, leave date, diagnosis) against stored records for probable resubmission.",
	}, s.handleCheckDuplicate)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_records",
		Description: "List stored leave records, newest first, optionally filtered by status, duplicates or warnings.",
	}, s.handleListRecords)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "dashboard_summary",
		Description: "Summarize stored leave records: totals, top diagnoses, reimbursement split, monthly trend and repeat employees.",
	}, s.handleDashboardSummary)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_diseases",
		Description: "List the disease master table used for reimbursement classification.",
	}, s.handleListDiseases)

	s.logger.WithField("tools", 6).Debug("Registered MCP tools")
}

// createErrorResult reports a tool-level failure to the client
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("%s: %v", message, err)},
		},
	}
}
