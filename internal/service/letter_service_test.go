package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hr-digital/surat-izin/internal/database"
	"github.com/hr-digital/surat-izin/internal/domain"
	"github.com/hr-digital/surat-izin/internal/records"
)

type memoryRepo struct {
	mu      sync.Mutex
	records []domain.LeaveRecord
	listErr error
}

func (m *memoryRepo) Insert(_ context.Context, record *domain.LeaveRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == record.ID {
			return domain.ErrDuplicateRecordID
		}
	}
	m.records = append(m.records, *record)
	return nil
}

func (m *memoryRepo) ListAll(ctx context.Context) ([]domain.LeaveRecord, error) {
	out, err := m.ListAllUnordered(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (m *memoryRepo) ListAllUnordered(context.Context) ([]domain.LeaveRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]domain.LeaveRecord(nil), m.records...), nil
}

func (m *memoryRepo) Get(_ context.Context, id string) (*domain.LeaveRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			rec := r
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
}

type fakeReader struct {
	text  string
	err   error
	calls int
}

func (f *fakeReader) ReadLetter(context.Context, string, []byte) (string, error) {
	f.calls++
	return f.text, f.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fixedClock advances one second per call so consecutive saves order deterministically.
func fixedClock(start time.Time) func() time.Time {
	current := start.Add(-time.Second)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func newTestService(repo domain.RecordRepository, reader domain.LetterReader) *LetterService {
	return NewLetterService(repo, reader, quietLogger(),
		WithClock(fixedClock(time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC))))
}

func validRequest() SaveLetterRequest {
	return SaveLetterRequest{
		NationalID:   "123",
		Name:         "Budi",
		LeaveDate:    "2026-01-01",
		DurationDays: intPtr(2),
		Diagnosis:    "DEMAM",
		Doctor:       "dr. A",
		Hospital:     "RS X",
		RawText:      sampleLetter,
	}
}

func TestNewRecordID(t *testing.T) {
	now := time.Date(2026, 1, 2, 8, 30, 15, 0, time.UTC)
	first, err := NewRecordID(now)
	require.NoError(t, err)
	second, err := NewRecordID(now)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^SURAT_20260102083015_[0-9a-f]{8}$`), first)
	assert.NotEqual(t, first, second)
}

func TestLetterService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Path: filepath.Join(t.TempDir(), "letters.db")}, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := records.NewSQLiteStore(db.SQL, quietLogger())
	svc := newTestService(store, &fakeReader{text: sampleLetter})

	letter, err := svc.ExtractLetter(ctx, "surat.jpg", []byte("image"))
	require.NoError(t, err)
	require.True(t, letter.HasFields())

	req := SaveLetterRequest{
		NationalID:   *letter.NationalID,
		Name:         *letter.Name,
		LeaveDate:    *letter.LeaveDate,
		DurationDays: letter.DurationDays,
		Diagnosis:    *letter.Diagnosis,
		Doctor:       *letter.Doctor,
		Hospital:     *letter.Hospital,
		RawText:      letter.RawText,
	}
	record, err := svc.SaveLetter(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "budi", record.Name)
	assert.Equal(t, "DEMAM", record.Diagnosis)
	require.NotNil(t, record.IsReimbursable)
	assert.False(t, *record.IsReimbursable)
	assert.Equal(t, domain.CategoryRingan, record.Category)
	assert.False(t, record.IsDuplicate)
	assert.Equal(t, 0.0, record.DuplicateScore)
	assert.Nil(t, record.DuplicateNote)
	assert.True(t, record.WarningFlag)
	require.NotNil(t, record.WarningReason)
	assert.Equal(t, WarningNotReimbursable, *record.WarningReason)

	stored, err := svc.GetRecord(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, stored.ID)
	assert.Equal(t, sampleLetter, stored.RawText)
	assert.True(t, record.UploadedAt.Equal(stored.UploadedAt))

	again, err := svc.SaveLetter(ctx, req)
	require.NoError(t, err)
	assert.True(t, again.IsDuplicate)
	assert.Equal(t, 100.0, again.DuplicateScore)
	require.NotNil(t, again.DuplicateNote)
	assert.Equal(t, "NIK sama & Tanggal sama & Diagnosa sama", *again.DuplicateNote)
	require.NotNil(t, again.WarningReason)
	assert.Equal(t, WarningNotReimbursable+"; Duplikasi (100%): NIK sama & Tanggal sama & Diagnosa sama", *again.WarningReason)
	assert.NotEqual(t, record.ID, again.ID)

	all, err := svc.ListRecords(ctx, RecordFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, again.ID, all[0].ID)
}

func TestLetterService_SaveNormalizesInput(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo, nil)

	req := validRequest()
	req.Name = "  Budi   SANTOSO "
	req.LeaveDate = "5 Maret 2026"
	req.Diagnosis = " typhus abdominalis "

	record, err := svc.SaveLetter(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "budi santoso", record.Name)
	assert.Equal(t, "2026-03-05", record.LeaveDate)
	assert.Equal(t, "TIPES", record.Diagnosis)
	require.NotNil(t, record.IsReimbursable)
	assert.True(t, *record.IsReimbursable)
	assert.False(t, record.WarningFlag)
	assert.Nil(t, record.WarningReason)
	assert.Equal(t, time.UTC, record.UploadedAt.Location())
}

func TestLetterService_SaveUnknownDiagnosis(t *testing.T) {
	svc := newTestService(&memoryRepo{}, nil)

	req := validRequest()
	req.Diagnosis = "patah tulang"

	record, err := svc.SaveLetter(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "PATAH TULANG", record.Diagnosis)
	assert.Nil(t, record.IsReimbursable)
	assert.Equal(t, domain.CategoryTidakDiketahui, record.Category)
	assert.True(t, record.WarningFlag)
	require.NotNil(t, record.WarningReason)
	assert.Equal(t, WarningUnknownDisease, *record.WarningReason)
}

func TestLetterService_SaveDuplicateOfReimbursable(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(repo, nil)
	ctx := context.Background()

	req := validRequest()
	req.Diagnosis = "DBD"
	_, err := svc.SaveLetter(ctx, req)
	require.NoError(t, err)

	req.Diagnosis = "TIPES"
	record, err := svc.SaveLetter(ctx, req)
	require.NoError(t, err)

	assert.True(t, record.IsDuplicate)
	assert.Equal(t, 80.0, record.DuplicateScore)
	assert.True(t, record.WarningFlag)
	require.NotNil(t, record.WarningReason)
	assert.Equal(t, "Duplikasi (80%): NIK sama & Tanggal sama", *record.WarningReason)
}

func TestLetterService_SaveValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SaveLetterRequest)
		fields []string
	}{
		{
			name:   "missing required fields",
			mutate: func(r *SaveLetterRequest) { r.NationalID = ""; r.Name = "  "; r.Diagnosis = "" },
			fields: []string{"nik", "nama", "diagnosa"},
		},
		{
			name:   "missing date",
			mutate: func(r *SaveLetterRequest) { r.LeaveDate = "" },
			fields: []string{"tanggal_izin"},
		},
		{
			name:   "unparseable date",
			mutate: func(r *SaveLetterRequest) { r.LeaveDate = "kemarin" },
			fields: []string{"tanggal_izin"},
		},
		{
			name:   "impossible calendar date",
			mutate: func(r *SaveLetterRequest) { r.LeaveDate = "2026-02-30" },
			fields: []string{"tanggal_izin"},
		},
		{
			name:   "zero duration",
			mutate: func(r *SaveLetterRequest) { r.DurationDays = intPtr(0) },
			fields: []string{"durasi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memoryRepo{}
			svc := newTestService(repo, nil)

			req := validRequest()
			tt.mutate(&req)

			record, err := svc.SaveLetter(context.Background(), req)
			require.Error(t, err)
			assert.Nil(t, record)

			var verrs domain.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			var fields []string
			for _, v := range verrs {
				fields = append(fields, v.Field)
			}
			assert.ElementsMatch(t, tt.fields, fields)
			assert.Empty(t, repo.records)
		})
	}
}

func TestLetterService_SaveWithoutDuration(t *testing.T) {
	svc := newTestService(&memoryRepo{}, nil)

	req := validRequest()
	req.DurationDays = nil

	record, err := svc.SaveLetter(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, record.DurationDays)
}

func TestLetterService_SaveStoreFailure(t *testing.T) {
	repo := &memoryRepo{listErr: errors.New("disk I/O error")}
	svc := newTestService(repo, nil)

	_, err := svc.SaveLetter(context.Background(), validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
}

func TestLetterService_SaveIDCollision(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewLetterService(repo, nil, quietLogger(),
		WithIDGenerator(func(time.Time) (string, error) { return "SURAT_FIXED", nil }))
	ctx := context.Background()

	_, err := svc.SaveLetter(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.SaveLetter(ctx, validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateRecordID)
	assert.Len(t, repo.records, 1)
}

func TestLetterService_ExtractLetter(t *testing.T) {
	tests := []struct {
		name     string
		reader   *fakeReader
		filename string
		data     []byte
		wantErr  error
		calls    int
	}{
		{
			name:     "unsupported extension",
			reader:   &fakeReader{text: sampleLetter},
			filename: "surat.gif",
			data:     []byte("gif"),
			wantErr:  domain.ErrUnsupportedFile,
		},
		{
			name:     "file too large",
			reader:   &fakeReader{text: sampleLetter},
			filename: "surat.png",
			data:     make([]byte, 11),
			wantErr:  domain.ErrFileTooLarge,
		},
		{
			name:     "reader failure",
			reader:   &fakeReader{err: fmt.Errorf("%w: quota exceeded", domain.ErrOCRFailed)},
			filename: "surat.png",
			data:     []byte("png"),
			wantErr:  domain.ErrOCRFailed,
			calls:    1,
		},
		{
			name:     "error text is not parsed",
			reader:   &fakeReader{text: "Error: model overloaded"},
			filename: "surat.PDF",
			data:     []byte("pdf"),
			wantErr:  domain.ErrOCRFailed,
			calls:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewLetterService(&memoryRepo{}, tt.reader, quietLogger(),
				WithUploadLimits(domain.UploadConfig{MaxBytes: 10, AllowedExtensions: []string{"png", ".pdf"}}))

			letter, err := svc.ExtractLetter(context.Background(), tt.filename, tt.data)
			require.Error(t, err)
			assert.Nil(t, letter)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.calls, tt.reader.calls)
		})
	}
}

func TestLetterService_ExtractWithoutReader(t *testing.T) {
	svc := newTestService(&memoryRepo{}, nil)

	_, err := svc.ExtractLetter(context.Background(), "surat.jpg", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrOCRUnavailable)
}

func TestLetterService_ExtractPartialLetter(t *testing.T) {
	svc := newTestService(&memoryRepo{}, &fakeReader{text: "NIK: 999\nDiagnosa: TIDAK_DITEMUKAN"})

	letter, err := svc.ExtractLetter(context.Background(), "surat.jpeg", []byte("x"))
	require.NoError(t, err)
	require.NotNil(t, letter.NationalID)
	assert.Equal(t, "999", *letter.NationalID)
	assert.Nil(t, letter.Diagnosis)
}

func TestLetterService_CheckDuplicate(t *testing.T) {
	repo := &memoryRepo{records: []domain.LeaveRecord{existingRecord("123", "2026-01-01", "DBD")}}
	svc := newTestService(repo, nil)

	result, err := svc.CheckDuplicate(context.Background(), domain.DuplicateCandidate{
		NationalID: " 123 ",
		LeaveDate:  "1 Januari 2026",
		Diagnosis:  "dengue",
	})
	require.NoError(t, err)
	assert.True(t, result.IsDuplicate)
	assert.Equal(t, 100.0, result.Score)
}

func TestLetterService_ListRecordsFilters(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	reimbursable := true
	notReimbursable := false
	repo := &memoryRepo{records: []domain.LeaveRecord{
		{ID: "A", IsReimbursable: &reimbursable, UploadedAt: base},
		{ID: "B", IsReimbursable: &notReimbursable, WarningFlag: true, UploadedAt: base.Add(time.Hour)},
		{ID: "C", IsReimbursable: nil, WarningFlag: true, UploadedAt: base.Add(2 * time.Hour)},
		{ID: "D", IsReimbursable: &reimbursable, IsDuplicate: true, WarningFlag: true, UploadedAt: base.Add(3 * time.Hour)},
	}}
	svc := newTestService(repo, nil)

	tests := []struct {
		name   string
		filter RecordFilter
		want   []string
	}{
		{name: "all newest first", filter: RecordFilter{}, want: []string{"D", "C", "B", "A"}},
		{name: "eligible", filter: RecordFilter{Status: StatusEligible}, want: []string{"D", "A"}},
		{name: "not reimbursable excludes unknown", filter: RecordFilter{Status: StatusNotReimbursable}, want: []string{"B"}},
		{name: "review", filter: RecordFilter{Status: StatusReview}, want: []string{"D", "C", "B"}},
		{name: "duplicates only", filter: RecordFilter{DuplicateOnly: true}, want: []string{"D"}},
		{name: "eligible with warning", filter: RecordFilter{Status: StatusEligible, WarningOnly: true}, want: []string{"D"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListRecords(context.Background(), tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	_, err := svc.ListRecords(context.Background(), RecordFilter{Status: "bogus"})
	var verrs domain.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestLetterService_GetRecordNotFound(t *testing.T) {
	svc := newTestService(&memoryRepo{}, nil)

	_, err := svc.GetRecord(context.Background(), "SURAT_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLetterService_Diseases(t *testing.T) {
	svc := newTestService(&memoryRepo{}, nil)

	diseases := svc.Diseases()
	require.Len(t, diseases, 10)
	assert.Equal(t, "DEMAM", diseases[0].Name)
	assert.Equal(t, "Tidak Ada", diseases[0].Gender)
	assert.Equal(t, "DIABETES", diseases[9].Name)
}

func TestLetterService_ExtractErrorTextDropsPrefix(t *testing.T) {
	svc := newTestService(&memoryRepo{}, &fakeReader{text: "  Error: model overloaded\n"})

	_, err := svc.ExtractLetter(context.Background(), "surat.jpg", []byte("x"))
	require.ErrorIs(t, err, domain.ErrOCRFailed)
	assert.Equal(t, "ocr transcription failed: model overloaded", err.Error())
}
