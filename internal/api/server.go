package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hr-digital/surat-izin/internal/domain"
	"github.com/hr-digital/surat-izin/internal/middleware"
	"github.com/hr-digital/surat-izin/internal/monitoring"
	"github.com/hr-digital/surat-izin/internal/records"
	"github.com/hr-digital/surat-izin/internal/service"
)

const defaultMaxImportBytes = 64 << 20

// RecordStore is the part of the record store used directly by the HTTP layer.
type RecordStore interface {
	Ping(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	ExportJSON(ctx context.Context, w io.Writer) error
	ImportJSON(ctx context.Context, r io.Reader, validate records.RecordValidator) (records.ImportResult, error)
}

// BreakerReporter exposes the OCR circuit breaker state for the health check.
type BreakerReporter interface {
	BreakerState() string
}

// Dependencies are the collaborators of the HTTP server. OCR and Metrics may be nil.
type Dependencies struct {
	Letters *service.LetterService
	Store   RecordStore
	OCR     BreakerReporter
	Metrics *monitoring.Metrics
	Logger  *logrus.Logger
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	letters       *service.LetterService
	store         RecordStore
	ocr           BreakerReporter
	metrics       *monitoring.Metrics
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, deps Dependencies) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if cfg.Upload.MaxBytes > 0 {
		router.MaxMultipartMemory = cfg.Upload.MaxBytes
	}

	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger(deps.Logger))
	router.Use(middleware.Metrics(deps.Metrics))
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))
	router.Use(corsMiddleware())

	server := &Server{
		configManager: configManager,
		letters:       deps.Letters,
		store:         deps.Store,
		ocr:           deps.OCR,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		router:        router,
	}

	server.setupRoutes()

	return server
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/letters/extract", s.handleExtractLetter)
		v1.POST("/letters", s.handleSaveLetter)

		v1.GET("/records", s.handleListRecords)
		v1.GET("/records/export.xlsx", s.handleExportXLSX)
		v1.GET("/records/export.json", s.handleExportJSON)
		v1.POST("/records/import", s.handleImportJSON)
		v1.GET("/records/:id", s.handleGetRecord)

		v1.GET("/dashboard", s.handleDashboard)
		v1.GET("/diseases", s.handleListDiseases)
	}
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Disposition, X-Correlation-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// handleHealth reports store reachability and the OCR breaker state.
func (s *Server) handleHealth(c *gin.Context) {
	ctx := c.Request.Context()
	status := http.StatusOK
	checks := gin.H{}

	if err := s.store.Ping(ctx); err != nil {
		s.logger.WithError(err).Error("Health check: database unreachable")
		status = http.StatusServiceUnavailable
		checks["database"] = "unreachable"
	} else {
		checks["database"] = "ok"
		if count, err := s.store.Count(ctx); err == nil {
			checks["records"] = count
		}
	}

	if s.ocr != nil {
		checks["ocr"] = s.ocr.BreakerState()
	} else {
		checks["ocr"] = "disabled"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"timestamp": time.Now().UTC(),
		"version":   s.configManager.GetConfig().MCP.ServerVersion,
		"checks":    checks,
	})
}

// handleExtractLetter transcribes an uploaded letter and returns the parsed fields.
func (s *Server) handleExtractLetter(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		s.respondError(c, domain.ValidationErrors{
			domain.NewValidationError("file", "upload surat izin (JPG, PNG, PDF) wajib", nil),
		})
		return
	}

	maxBytes := s.configManager.GetConfig().Upload.MaxBytes
	if maxBytes > 0 && header.Size > maxBytes {
		s.respondError(c, fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, header.Size))
		return
	}

	file, err := header.Open()
	if err != nil {
		s.respondError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(c, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	letter, err := s.letters.ExtractLetter(c.Request.Context(), header.Filename, data)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"letter":     letter,
		"has_fields": letter.HasFields(),
	})
}

// handleSaveLetter validates, analyses and stores a confirmed letter.
func (s *Server) handleSaveLetter(c *gin.Context) {
	var req service.SaveLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid JSON body", err.Error())
		return
	}

	record, err := s.letters.SaveLetter(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (s *Server) handleListRecords(c *gin.Context) {
	filter, err := parseRecordFilter(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	records, err := s.letters.ListRecords(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(records),
		"records": records,
	})
}

func (s *Server) handleGetRecord(c *gin.Context) {
	record, err := s.letters.GetRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// handleExportXLSX exports the (optionally filtered) review listing as a workbook.
func (s *Server) handleExportXLSX(c *gin.Context) {
	filter, err := parseRecordFilter(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	records, err := s.letters.ListRecords(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := WriteRecordsXLSX(&buf, records); err != nil {
		s.respondError(c, fmt.Errorf("failed to build workbook: %w", err))
		return
	}

	filename := fmt.Sprintf("surat_izin_%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (s *Server) handleExportJSON(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.store.ExportJSON(c.Request.Context(), &buf); err != nil {
		s.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("surat_izin_%s.json", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

// handleImportJSON restores records from a JSON export. Existing IDs are skipped
// and records that a save could not have produced are rejected.
func (s *Server) handleImportJSON(c *gin.Context) {
	limit := s.configManager.GetConfig().Upload.MaxImportBytes
	if limit <= 0 {
		limit = defaultMaxImportBytes
	}
	body := http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	result, err := s.store.ImportJSON(c.Request.Context(), body, service.ValidateRecord)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleDashboard(c *gin.Context) {
	filter, err := parseDashboardFilter(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	summary, err := s.letters.Dashboard(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleListDiseases(c *gin.Context) {
	diseases := s.letters.Diseases()
	c.JSON(http.StatusOK, gin.H{
		"count":    len(diseases),
		"diseases": diseases,
	})
}
