package external

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/hr-digital/surat-izin/internal/domain"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// LetterPrompt instructs the model to answer with one "Label: value" line per field.
const LetterPrompt = `Ekstrak data dari surat izin dokter ini:

Berikan output dalam format:
NIK: [nilai]
Nama: [nilai]
Tanggal Izin: [nilai dalam format DD MMMM YYYY]
Durasi: [nilai dalam hari]
Diagnosa: [nilai]
Dokter: [nilai]
Rumah Sakit: [nilai]

Jika ada field yang tidak terlihat, tulis TIDAK_DITEMUKAN`

// GeminiClient calls the Gemini generateContent API through google.golang.org/genai.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini API client from the OCR configuration.
func NewGeminiClient(ctx context.Context, config domain.OCRConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}
	if config.Model == "" {
		config.Model = DefaultGeminiModel
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  config.Model,
	}, nil
}

// GenerateText sends the document inline together with the prompt.
func (g *GeminiClient) GenerateText(ctx context.Context, mimeType string, data []byte, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}},
				{Text: prompt},
			},
		},
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini GenerateContent failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}
