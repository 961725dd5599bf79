package api

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/hr-digital/surat-izin/internal/domain"
)

const exportSheet = "Surat Izin"

var exportHeader = []interface{}{
	"surat_id", "nik", "nama", "tanggal_izin", "durasi", "diagnosa", "dokter", "rumah_sakit",
	"is_reimburseable", "kategori", "is_duplicate", "duplicate_score", "duplicate_note",
	"warning_flag", "warning_reason", "upload_date",
}

// WriteRecordsXLSX streams records into a single-sheet workbook. Raw OCR text is
// not exported.
func WriteRecordsXLSX(w io.Writer, records []domain.LeaveRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}
	if err := sw.SetColWidth(1, len(exportHeader), 18); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := sw.SetPanes(&excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}
	if err := sw.SetRow("A1", exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, exportRow(&records[i])); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	return f.Write(w)
}

func exportRow(r *domain.LeaveRecord) []interface{} {
	return []interface{}{
		r.ID,
		r.NationalID,
		r.Name,
		r.LeaveDate,
		optionalInt(r.DurationDays),
		r.Diagnosis,
		r.Doctor,
		r.Hospital,
		optionalBool(r.IsReimbursable),
		r.Category.String(),
		r.IsDuplicate,
		r.DuplicateScore,
		optionalString(r.DuplicateNote),
		r.WarningFlag,
		optionalString(r.WarningReason),
		r.UploadedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

func optionalInt(n *int) interface{} {
	if n == nil {
		return ""
	}
	return *n
}

func optionalBool(b *bool) interface{} {
	if b == nil {
		return ""
	}
	return *b
}

func optionalString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
