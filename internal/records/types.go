// Package records persists finalized leave records in SQLite. The store is
// append-only: corrections are saved as new records.
package records

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/hr-digital/surat-izin/internal/domain"
)

// ErrInvalidExport is returned by ImportJSON when the document cannot be decoded.
var ErrInvalidExport = errors.New("invalid export document")

// Store defines the record persistence operations.
type Store interface {
	// Insert persists one record atomically. It fails with domain.ErrDuplicateRecordID
	// when the ID is already taken.
	Insert(ctx context.Context, record *domain.LeaveRecord) error

	// ListAll returns every record, most recently uploaded first.
	ListAll(ctx context.Context) ([]domain.LeaveRecord, error)

	// ListAllUnordered returns every record in storage order.
	ListAllUnordered(ctx context.Context) ([]domain.LeaveRecord, error)

	// Get returns a single record or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.LeaveRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// ExportJSON writes every record to the writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON inserts records from a previous export. Records rejected by
	// validate are counted and not stored; records whose ID already exists are skipped.
	ImportJSON(ctx context.Context, reader io.Reader, validate RecordValidator) (ImportResult, error)

	// Close releases the underlying database.
	Close() error
}

// RecordValidator checks that an imported record satisfies the storage invariants.
type RecordValidator func(record *domain.LeaveRecord) error

// maxRejections bounds the rejection details returned by ImportJSON.
const maxRejections = 50

// ImportResult summarizes an import.
type ImportResult struct {
	Imported   int               `json:"imported"`
	Skipped    int               `json:"skipped"`
	Rejected   int               `json:"rejected"`
	Rejections []ImportRejection `json:"rejections"`
}

// ImportRejection explains why one record of the document was not stored.
type ImportRejection struct {
	Index  int    `json:"index"`
	ID     string `json:"surat_id"`
	Reason string `json:"reason"`
}

// RecordExport is the JSON document produced by ExportJSON.
type RecordExport struct {
	Version    string               `json:"version"`
	ExportedAt time.Time            `json:"exported_at"`
	Count      int                  `json:"count"`
	Records    []domain.LeaveRecord `json:"records"`
}
