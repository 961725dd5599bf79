package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hr-digital/surat-izin/internal/domain"
)

// uploadDateLayout has a fixed width so that lexical order equals time order.
const uploadDateLayout = "2006-01-02 15:04:05.000000"

const selectColumns = `
	SELECT surat_id, nik, nama, tanggal_izin, durasi, diagnosa, dokter, rumah_sakit,
		is_reimburseable, kategori, is_duplicate, duplicate_score, duplicate_note,
		warning_flag, warning_reason, upload_date, raw_text
	FROM surat_izin`

const insertRecord = `
	INSERT INTO surat_izin (
		surat_id, nik, nama, tanggal_izin, durasi, diagnosa, dokter, rumah_sakit,
		is_reimburseable, kategori, is_duplicate, duplicate_score, duplicate_note,
		warning_flag, warning_reason, upload_date, raw_text
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *logrus.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a store over an already migrated database handle.
func NewSQLiteStore(db *sql.DB, logger *logrus.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:     db,
		logger: logger,
	}
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord scans a row into a LeaveRecord, mapping NULL columns back to empty or nil values.
func scanRecord(s scanner) (*domain.LeaveRecord, error) {
	r := &domain.LeaveRecord{}
	var (
		leaveDate, doctor, hospital  sql.NullString
		duplicateNote, warningReason sql.NullString
		duration                     sql.NullInt64
		reimbursable                 sql.NullBool
		category, uploadedAt         string
	)

	err := s.Scan(
		&r.ID, &r.NationalID, &r.Name, &leaveDate, &duration, &r.Diagnosis, &doctor, &hospital,
		&reimbursable, &category, &r.IsDuplicate, &r.DuplicateScore, &duplicateNote,
		&r.WarningFlag, &warningReason, &uploadedAt, &r.RawText,
	)
	if err != nil {
		return nil, err
	}

	r.LeaveDate = leaveDate.String
	r.Doctor = doctor.String
	r.Hospital = hospital.String
	r.Category = domain.Category(category)
	if duration.Valid {
		d := int(duration.Int64)
		r.DurationDays = &d
	}
	if reimbursable.Valid {
		b := reimbursable.Bool
		r.IsReimbursable = &b
	}
	if duplicateNote.Valid {
		r.DuplicateNote = &duplicateNote.String
	}
	if warningReason.Valid {
		r.WarningReason = &warningReason.String
	}

	r.UploadedAt, err = time.Parse(uploadDateLayout, uploadedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse upload_date %q: %w", uploadedAt, err)
	}
	return r, nil
}

// Insert stores a new record. The existence check and the insert share one transaction.
func (s *SQLiteStore) Insert(ctx context.Context, record *domain.LeaveRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM surat_izin WHERE surat_id = ?", record.ID).Scan(&exists)
	if err == nil {
		return fmt.Errorf("insert %s: %w", record.ID, domain.ErrDuplicateRecordID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check existing: %w", err)
	}

	_, err = tx.ExecContext(ctx, insertRecord,
		record.ID,
		record.NationalID,
		record.Name,
		nullString(record.LeaveDate),
		nullInt(record.DurationDays),
		record.Diagnosis,
		nullString(record.Doctor),
		nullString(record.Hospital),
		nullBool(record.IsReimbursable),
		string(record.Category),
		record.IsDuplicate,
		record.DuplicateScore,
		nullStringPtr(record.DuplicateNote),
		record.WarningFlag,
		nullStringPtr(record.WarningReason),
		record.UploadedAt.UTC().Format(uploadDateLayout),
		record.RawText,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert %s: %w", record.ID, domain.ErrDuplicateRecordID)
		}
		return fmt.Errorf("failed to insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	s.logger.WithFields(logrus.Fields(record.LogFields())).Debug("Leave record stored")
	return nil
}

// ListAll returns all records ordered by upload date, newest first.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.LeaveRecord, error) {
	return s.query(ctx, selectColumns+" ORDER BY upload_date DESC, rowid DESC")
}

// ListAllUnordered returns all records without sorting.
func (s *SQLiteStore) ListAllUnordered(ctx context.Context) ([]domain.LeaveRecord, error) {
	return s.query(ctx, selectColumns)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...interface{}) ([]domain.LeaveRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	result := []domain.LeaveRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return result, nil
}

// Get retrieves a record by its ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.LeaveRecord, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE surat_id = ?", id)

	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return r, nil
}

// Count returns the total number of records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM surat_izin").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return count, nil
}

// ExportJSON exports all records to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	all, err := s.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}

	export := &RecordExport{
		Version:    "1.0",
		ExportedAt: time.Now().UTC(),
		Count:      len(all),
		Records:    all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// ImportJSON imports records from a JSON reader. Every record must pass validate
// before it is inserted.
func (s *SQLiteStore) ImportJSON(ctx context.Context, reader io.Reader, validate RecordValidator) (ImportResult, error) {
	result := ImportResult{Rejections: []ImportRejection{}}
	if validate == nil {
		return result, errors.New("import requires a record validator")
	}

	var export RecordExport
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return result, fmt.Errorf("%w: %w", ErrInvalidExport, err)
	}

	for i := range export.Records {
		record := &export.Records[i]
		if err := validate(record); err != nil {
			result.Rejected++
			if len(result.Rejections) < maxRejections {
				result.Rejections = append(result.Rejections, ImportRejection{Index: i, ID: record.ID, Reason: err.Error()})
			}
			continue
		}

		err := s.Insert(ctx, record)
		if errors.Is(err, domain.ErrDuplicateRecordID) {
			result.Skipped++
			continue
		}
		if err != nil {
			return result, fmt.Errorf("failed to import %s: %w", record.ID, err)
		}
		result.Imported++
	}

	s.logger.WithFields(logrus.Fields{
		"imported": result.Imported,
		"skipped":  result.Skipped,
		"rejected": result.Rejected,
	}).Info("Leave records imported")
	return result, nil
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

// isUniqueViolation matches SQLite's primary key and unique constraint failures.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: PRIMARY KEY")
}
