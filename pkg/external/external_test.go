package external

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hr-digital/surat-izin/internal/domain"
)

type fakeGenerator struct {
	text     string
	err      error
	calls    int
	lastMIME string
}

func (f *fakeGenerator) GenerateText(_ context.Context, mimeType string, _ []byte, prompt string) (string, error) {
	f.calls++
	f.lastMIME = mimeType
	if prompt != LetterPrompt {
		return "", errors.New("unexpected prompt")
	}
	return f.text, f.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testReader(gen TextGenerator, cache TranscriptCache) *LetterReader {
	return NewLetterReader(gen, cache, LetterReaderConfig{
		Timeout:   time.Second,
		RateLimit: 1000,
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold: 2,
			Timeout:          time.Minute,
		},
	}, quietLogger())
}

// buildPDF writes a minimal PDF with the given number of empty pages and a correct xref table.
func buildPDF(pages int) []byte {
	var buf bytes.Buffer
	var offsets []int

	buf.WriteString("%PDF-1.4\n")
	object := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	object("<< /Type /Catalog /Pages 2 0 R >>")
	object(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))
	for i := 0; i < pages; i++ {
		object("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestMIMEType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
		ok       bool
	}{
		{"surat.jpg", "image/jpeg", true},
		{"SURAT.JPEG", "image/jpeg", true},
		{"scan.png", "image/png", true},
		{"scan.pdf", "application/pdf", true},
		{"scan.webp", "image/webp", true},
		{"notes.docx", "", false},
		{"noextension", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, ok := MIMEType(tt.filename)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "", ErrorText(nil))
	assert.Equal(t, "Error: 503 - unavailable", ErrorText(errors.New("503 - unavailable")))
}

func TestPDFPageCount(t *testing.T) {
	pages, err := PDFPageCount(buildPDF(1))
	require.NoError(t, err)
	assert.Equal(t, 1, pages)

	pages, err = PDFPageCount(buildPDF(3))
	require.NoError(t, err)
	assert.Equal(t, 3, pages)

	_, err = PDFPageCount([]byte("definitely not a pdf"))
	assert.Error(t, err)
}

func TestLetterReader_ReadLetter(t *testing.T) {
	gen := &fakeGenerator{text: "NIK: 123\nNama: Budi"}
	reader := testReader(gen, nil)

	text, err := reader.ReadLetter(context.Background(), "surat.png", []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	assert.Equal(t, "NIK: 123\nNama: Budi", text)
	assert.Equal(t, "image/png", gen.lastMIME)
}

func TestLetterReader_PDF(t *testing.T) {
	gen := &fakeGenerator{text: "NIK: 123"}
	reader := testReader(gen, nil)

	_, err := reader.ReadLetter(context.Background(), "surat.pdf", buildPDF(2))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", gen.lastMIME)

	_, err = reader.ReadLetter(context.Background(), "broken.pdf", []byte("%PDF-1.4\ngarbage"))
	assert.True(t, errors.Is(err, domain.ErrOCRFailed))
	assert.Equal(t, 1, gen.calls)
}

func TestLetterReader_UnsupportedFile(t *testing.T) {
	gen := &fakeGenerator{text: "NIK: 1"}
	reader := testReader(gen, nil)

	_, err := reader.ReadLetter(context.Background(), "surat.docx", []byte("x"))
	assert.True(t, errors.Is(err, domain.ErrUnsupportedFile))
	assert.Zero(t, gen.calls)
}

func TestLetterReader_EmptyFile(t *testing.T) {
	reader := testReader(&fakeGenerator{}, nil)

	_, err := reader.ReadLetter(context.Background(), "surat.jpg", nil)
	assert.True(t, errors.Is(err, domain.ErrOCRFailed))
}

func TestLetterReader_GeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("status 500")}
	reader := testReader(gen, nil)

	_, err := reader.ReadLetter(context.Background(), "surat.jpg", []byte("img"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOCRFailed))
	assert.Contains(t, err.Error(), "status 500")
}

func TestLetterReader_ErrorTextIsFailure(t *testing.T) {
	gen := &fakeGenerator{text: "Error: quota exceeded"}
	reader := testReader(gen, nil)

	_, err := reader.ReadLetter(context.Background(), "surat.jpg", []byte("img"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOCRFailed))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestLetterReader_BreakerOpens(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("unavailable")}
	reader := testReader(gen, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := reader.ReadLetter(ctx, "surat.jpg", []byte(fmt.Sprintf("img-%d", i)))
		require.Error(t, err)
	}
	assert.Equal(t, "open", reader.BreakerState())

	_, err := reader.ReadLetter(ctx, "surat.jpg", []byte("img-3"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOCRFailed))
	assert.Equal(t, 2, gen.calls, "open breaker must not reach the model")
}

func TestLetterReader_CacheHit(t *testing.T) {
	gen := &fakeGenerator{text: "NIK: 777"}
	cache := NewMemoryCache(8, time.Minute)
	reader := testReader(gen, cache)
	ctx := context.Background()

	first, err := reader.ReadLetter(ctx, "a.jpg", []byte("same bytes"))
	require.NoError(t, err)
	second, err := reader.ReadLetter(ctx, "b.jpg", []byte("same bytes"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 1, cache.Len())
}

func TestLetterReader_FailuresAreNotCached(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("timeout")}
	cache := NewMemoryCache(8, time.Minute)
	reader := testReader(gen, cache)

	_, err := reader.ReadLetter(context.Background(), "a.jpg", []byte("bytes"))
	require.Error(t, err)
	assert.Zero(t, cache.Len())
}

func TestTranscriptKey(t *testing.T) {
	assert.Equal(t, TranscriptKey([]byte("a")), TranscriptKey([]byte("a")))
	assert.NotEqual(t, TranscriptKey([]byte("a")), TranscriptKey([]byte("b")))
	assert.Len(t, TranscriptKey([]byte("a")), len("ocr:")+64)
}

func TestMemoryCache_Expiry(t *testing.T) {
	cache := NewMemoryCache(2, 20*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v"))
	got, found, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", got)

	time.Sleep(60 * time.Millisecond)
	_, found, _ = cache.Get(ctx, "k")
	assert.False(t, found)
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not-a-redis-url", time.Minute)
	assert.Error(t, err)
}

func TestNewGeminiClient_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), domain.OCRConfig{})
	assert.Error(t, err)
}
