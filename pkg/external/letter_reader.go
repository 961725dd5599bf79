package external

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/hr-digital/surat-izin/internal/domain"
)

// mimeTypes maps accepted upload extensions to the MIME type sent to the model.
var mimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"pdf":  "application/pdf",
}

// MIMEType returns the MIME type for a file name, or false when the extension is not supported.
func MIMEType(filename string) (string, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	mime, ok := mimeTypes[ext]
	return mime, ok
}

// LetterReaderConfig configures a LetterReader.
type LetterReaderConfig struct {
	Timeout        time.Duration
	RateLimit      int
	CircuitBreaker CircuitBreakerConfig
}

// LetterReader transcribes uploaded letters with rate limiting, a circuit breaker and
// a transcript cache in front of the model. It implements domain.LetterReader.
type LetterReader struct {
	generator TextGenerator
	cache     TranscriptCache
	breaker   *gobreaker.CircuitBreaker
	rateLimit *rate.Limiter
	timeout   time.Duration
	logger    *logrus.Logger
}

// NewLetterReader wraps a text generator. cache may be nil.
func NewLetterReader(generator TextGenerator, cache TranscriptCache, config LetterReaderConfig, logger *logrus.Logger) *LetterReader {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	if config.CircuitBreaker.MaxRequests == 0 {
		config.CircuitBreaker.MaxRequests = 1
	}
	if config.CircuitBreaker.Interval == 0 {
		config.CircuitBreaker.Interval = 60 * time.Second
	}
	if config.CircuitBreaker.Timeout == 0 {
		config.CircuitBreaker.Timeout = 30 * time.Second
	}
	if config.CircuitBreaker.FailureThreshold == 0 {
		config.CircuitBreaker.FailureThreshold = 5
	}

	threshold := config.CircuitBreaker.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "Gemini",
		MaxRequests: config.CircuitBreaker.MaxRequests,
		Interval:    config.CircuitBreaker.Interval,
		Timeout:     config.CircuitBreaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &LetterReader{
		generator: generator,
		cache:     cache,
		breaker:   breaker,
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		timeout:   config.Timeout,
		logger:    logger,
	}
}

// ReadLetter returns the model's "Label: value" transcription of the document.
// Failures wrap domain.ErrOCRFailed or domain.ErrUnsupportedFile.
func (l *LetterReader) ReadLetter(ctx context.Context, filename string, data []byte) (string, error) {
	mime, ok := MIMEType(filename)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, filepath.Ext(filename))
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", domain.ErrOCRFailed)
	}

	log := l.logger.WithFields(logrus.Fields{
		"file": filepath.Base(filename),
		"mime": mime,
		"size": len(data),
	})

	if mime == "application/pdf" {
		pages, err := PDFPageCount(data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrOCRFailed, err)
		}
		if pages > 1 {
			log.WithField("pages", pages).Warn("Multi-page PDF uploaded, only the first page is expected to hold the letter")
		}
	}

	key := TranscriptKey(data)
	if l.cache != nil {
		text, found, err := l.cache.Get(ctx, key)
		if err != nil {
			log.WithError(err).Warn("Transcript cache lookup failed")
		} else if found {
			log.Debug("Transcript served from cache")
			return text, nil
		}
	}

	if err := l.rateLimit.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limit wait failed: %v", domain.ErrOCRFailed, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	result, err := l.breaker.Execute(func() (interface{}, error) {
		text, err := l.generator.GenerateText(callCtx, mime, data, LetterPrompt)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(text, strings.TrimSpace(ErrorPrefix)) {
			return nil, errors.New(text)
		}
		return text, nil
	})
	if err != nil {
		log.WithError(err).Error("Letter transcription failed")
		return "", fmt.Errorf("%w: %v", domain.ErrOCRFailed, err)
	}

	text := result.(string)
	if l.cache != nil {
		if err := l.cache.Set(ctx, key, text); err != nil {
			log.WithError(err).Warn("Transcript cache store failed")
		}
	}

	log.Info("Letter transcribed")
	return text, nil
}

// BreakerState reports the circuit breaker state for health output.
func (l *LetterReader) BreakerState() string {
	return l.breaker.State().String()
}
