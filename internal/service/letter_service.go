package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hr-digital/surat-izin/internal/domain"
	"github.com/hr-digital/surat-izin/internal/monitoring"
)

// Review filters accepted by ListRecords.
const (
	StatusAll             = ""
	StatusEligible        = "eligible"
	StatusReview          = "review"
	StatusNotReimbursable = "not_reimbursable"
)

const recordIDPrefix = "SURAT_"

// SaveLetterRequest carries the fields confirmed by the HR user after extraction.
type SaveLetterRequest struct {
	NationalID   string `json:"nik" validate:"required,max=32"`
	Name         string `json:"nama" validate:"required,max=128"`
	LeaveDate    string `json:"tanggal_izin" validate:"required,max=64"`
	DurationDays *int   `json:"durasi" validate:"omitempty,min=1,max=365"`
	Diagnosis    string `json:"diagnosa" validate:"required,max=128"`
	Doctor       string `json:"dokter" validate:"max=128"`
	Hospital     string `json:"rumah_sakit" validate:"max=256"`
	RawText      string `json:"raw_text"`
}

func (r *SaveLetterRequest) trim() {
	r.NationalID = strings.TrimSpace(r.NationalID)
	r.Name = strings.TrimSpace(r.Name)
	r.LeaveDate = strings.TrimSpace(r.LeaveDate)
	r.Diagnosis = strings.TrimSpace(r.Diagnosis)
	r.Doctor = strings.TrimSpace(r.Doctor)
	r.Hospital = strings.TrimSpace(r.Hospital)
}

// RecordFilter narrows the review listing.
type RecordFilter struct {
	Status        string `json:"status"`
	DuplicateOnly bool   `json:"duplicate_only"`
	WarningOnly   bool   `json:"warning_only"`
}

// LetterService runs the extract and save workflow on top of the record store.
type LetterService struct {
	repo     domain.RecordRepository
	reader   domain.LetterReader
	validate *validator.Validate
	newID    func(time.Time) (string, error)
	now      func() time.Time
	metrics  *monitoring.Metrics
	logger   *logrus.Logger

	maxUploadBytes    int64
	allowedExtensions map[string]bool
}

// LetterServiceOption customizes a LetterService.
type LetterServiceOption func(*LetterService)

// WithClock replaces the wall clock used for upload timestamps.
func WithClock(now func() time.Time) LetterServiceOption {
	return func(s *LetterService) { s.now = now }
}

// WithIDGenerator replaces the record ID generator.
func WithIDGenerator(newID func(time.Time) (string, error)) LetterServiceOption {
	return func(s *LetterService) { s.newID = newID }
}

// WithMetrics reports workflow metrics to m.
func WithMetrics(m *monitoring.Metrics) LetterServiceOption {
	return func(s *LetterService) { s.metrics = m }
}

// WithUploadLimits restricts uploads by size and extension.
func WithUploadLimits(config domain.UploadConfig) LetterServiceOption {
	return func(s *LetterService) {
		if config.MaxBytes > 0 {
			s.maxUploadBytes = config.MaxBytes
		}
		if len(config.AllowedExtensions) > 0 {
			s.allowedExtensions = extensionSet(config.AllowedExtensions)
		}
	}
}

// NewLetterService creates a letter service. reader may be nil, in which case
// extraction reports domain.ErrOCRUnavailable and only manual entry works.
func NewLetterService(repo domain.RecordRepository, reader domain.LetterReader, logger *logrus.Logger, opts ...LetterServiceOption) *LetterService {
	s := &LetterService{
		repo:              repo,
		reader:            reader,
		validate:          newValidator(),
		newID:             NewRecordID,
		now:               time.Now,
		logger:            logger,
		maxUploadBytes:    10 << 20,
		allowedExtensions: extensionSet([]string{"jpg", "jpeg", "png", "pdf"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func extensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		set[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return set
}

// NewRecordID returns SURAT_<yyyymmddHHMMSS>_<8 hex>, the suffix taken from the
// random tail of a UUIDv7 so IDs minted within the same second stay distinct.
func NewRecordID(now time.Time) (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate record id: %w", err)
	}
	hex := strings.ReplaceAll(u.String(), "-", "")
	return recordIDPrefix + now.Format("20060102150405") + "_" + hex[len(hex)-8:], nil
}

// ExtractLetter transcribes an uploaded letter and parses it into a candidate for
// manual correction. Nothing is stored.
func (s *LetterService) ExtractLetter(ctx context.Context, filename string, data []byte) (*domain.ParsedLetter, error) {
	if s.reader == nil {
		return nil, domain.ErrOCRUnavailable
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !s.allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFile, ext)
	}
	if int64(len(data)) > s.maxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrFileTooLarge, len(data), s.maxUploadBytes)
	}

	start := time.Now()
	text, err := s.reader.ReadLetter(ctx, filename, data)
	if err == nil && IsOCRError(text) {
		err = fmt.Errorf("%w: %s", domain.ErrOCRFailed, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), OCRErrorPrefix)))
	}
	if err != nil {
		s.metrics.ObserveOCR("error", time.Since(start))
		return nil, err
	}
	s.metrics.ObserveOCR("success", time.Since(start))

	letter := ParseLetter(text)
	s.logger.WithFields(logrus.Fields{
		"file":       filepath.Base(filename),
		"has_fields": letter.HasFields(),
	}).Info("Letter extracted")

	return letter, nil
}

// SaveLetter validates and normalizes the confirmed fields, scores them against
// the stored records, classifies the diagnosis and appends the finalized record.
// Validation failures are returned as domain.ValidationErrors.
func (s *LetterService) SaveLetter(ctx context.Context, req SaveLetterRequest) (*domain.LeaveRecord, error) {
	req.trim()

	leaveDate, err := s.validateSave(&req)
	if err != nil {
		return nil, err
	}

	name := NormalizeName(req.Name)
	diagnosis := NormalizeDiagnosis(req.Diagnosis)

	existing, err := s.repo.ListAllUnordered(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records for duplicate check: %w", err)
	}

	duplicate := DetectDuplicate(domain.DuplicateCandidate{
		NationalID: req.NationalID,
		LeaveDate:  leaveDate,
		Diagnosis:  diagnosis,
	}, existing)
	classification := ClassifyDiagnosis(diagnosis)

	uploadedAt := s.now().UTC().Truncate(time.Microsecond)
	id, err := s.newID(uploadedAt)
	if err != nil {
		return nil, err
	}

	record := &domain.LeaveRecord{
		ID:             id,
		NationalID:     req.NationalID,
		Name:           name,
		LeaveDate:      leaveDate,
		DurationDays:   req.DurationDays,
		Diagnosis:      diagnosis,
		Doctor:         req.Doctor,
		Hospital:       req.Hospital,
		IsReimbursable: classification.IsReimbursable,
		Category:       classification.Category,
		IsDuplicate:    duplicate.IsDuplicate,
		DuplicateScore: duplicate.Score,
		WarningFlag:    duplicate.IsDuplicate || classification.Warning != nil,
		WarningReason:  warningReason(classification, duplicate),
		UploadedAt:     uploadedAt,
		RawText:        req.RawText,
	}
	if duplicate.IsDuplicate {
		record.DuplicateNote = stringPtr(duplicate.Note)
	}

	if err := s.repo.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save letter: %w", err)
	}

	s.metrics.ObserveSave(record.Category.String(), record.IsDuplicate, record.DuplicateScore)
	s.logger.WithFields(logrus.Fields(record.LogFields())).Info("Letter saved")

	return record, nil
}

func (s *LetterService) validateSave(req *SaveLetterRequest) (string, error) {
	var verrs domain.ValidationErrors

	if err := s.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return "", fmt.Errorf("failed to validate save request: %w", err)
		}
		for _, fe := range fieldErrs {
			verrs = append(verrs, domain.NewValidationError(fe.Field(), validationMessage(fe), fe.Value()))
		}
	}

	var leaveDate string
	if req.LeaveDate != "" {
		date, ok := NormalizeDate(req.LeaveDate)
		if ok {
			if _, err := time.Parse(time.DateOnly, date); err != nil {
				ok = false
			}
		}
		if !ok {
			verrs = append(verrs, domain.NewValidationError("tanggal_izin", "tanggal tidak valid, gunakan YYYY-MM-DD", req.LeaveDate))
		}
		leaveDate = date
	}

	if len(verrs) > 0 {
		s.metrics.ObserveValidationFailure()
		return "", verrs
	}
	return leaveDate, nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "wajib diisi"
	case "min":
		return "minimal " + fe.Param()
	case "max":
		return "maksimal " + fe.Param()
	default:
		return "tidak valid (" + fe.Tag() + ")"
	}
}

// warningReason lists the classifier warning first, then the duplicate finding.
func warningReason(classification domain.Classification, duplicate domain.DuplicateResult) *string {
	var reasons []string
	if classification.Warning != nil {
		reasons = append(reasons, *classification.Warning)
	}
	if duplicate.IsDuplicate {
		reasons = append(reasons, fmt.Sprintf("Duplikasi (%g%%): %s", duplicate.Score, duplicate.Note))
	}
	if len(reasons) == 0 {
		return nil
	}
	return stringPtr(strings.Join(reasons, "; "))
}

// CheckDuplicate normalizes the candidate values and scores them against the
// stored records without saving anything.
func (s *LetterService) CheckDuplicate(ctx context.Context, candidate domain.DuplicateCandidate) (domain.DuplicateResult, error) {
	candidate.NationalID = strings.TrimSpace(candidate.NationalID)
	if candidate.LeaveDate != "" {
		if date, ok := NormalizeDate(candidate.LeaveDate); ok {
			candidate.LeaveDate = date
		}
	}
	if strings.TrimSpace(candidate.Diagnosis) != "" {
		candidate.Diagnosis = NormalizeDiagnosis(candidate.Diagnosis)
	}

	existing, err := s.repo.ListAllUnordered(ctx)
	if err != nil {
		return domain.DuplicateResult{}, fmt.Errorf("failed to load records for duplicate check: %w", err)
	}
	return DetectDuplicate(candidate, existing), nil
}

// ListRecords returns stored records, newest first, narrowed by the filter.
func (s *LetterService) ListRecords(ctx context.Context, filter RecordFilter) ([]domain.LeaveRecord, error) {
	switch filter.Status {
	case StatusAll, StatusEligible, StatusReview, StatusNotReimbursable:
	default:
		return nil, domain.ValidationErrors{
			domain.NewValidationError("status", "harus salah satu dari eligible, review, not_reimbursable", filter.Status),
		}
	}

	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	filtered := make([]domain.LeaveRecord, 0, len(all))
	for _, r := range all {
		if filter.matches(&r) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func (f RecordFilter) matches(r *domain.LeaveRecord) bool {
	switch f.Status {
	case StatusEligible:
		if r.IsReimbursable == nil || !*r.IsReimbursable {
			return false
		}
	case StatusNotReimbursable:
		if r.IsReimbursable == nil || *r.IsReimbursable {
			return false
		}
	case StatusReview:
		if !r.WarningFlag {
			return false
		}
	}
	if f.DuplicateOnly && !r.IsDuplicate {
		return false
	}
	if f.WarningOnly && !r.WarningFlag {
		return false
	}
	return true
}

// GetRecord returns one stored record or an error wrapping domain.ErrNotFound.
func (s *LetterService) GetRecord(ctx context.Context, id string) (*domain.LeaveRecord, error) {
	return s.repo.Get(ctx, strings.TrimSpace(id))
}

// Diseases returns the disease master table in listing order.
func (s *LetterService) Diseases() []domain.DiseaseEntry {
	return DiseaseMaster()
}
