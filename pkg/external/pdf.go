package external

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFPageCount returns the number of pages declared by a PDF document.
func PDFPageCount(data []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF: %w", err)
	}

	pages = reader.NumPage()
	if pages < 1 {
		return 0, fmt.Errorf("PDF has no pages")
	}
	return pages, nil
}
