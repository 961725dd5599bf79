package domain

import (
	"context"
)

// LetterReader transcribes a scanned leave letter into "Label: value" lines.
type LetterReader interface {
	ReadLetter(ctx context.Context, filename string, data []byte) (string, error)
}

// RecordRepository is the persistence contract the letter workflow depends on.
// Implementations are append-only.
type RecordRepository interface {
	Insert(ctx context.Context, record *LeaveRecord) error
	ListAll(ctx context.Context) ([]LeaveRecord, error)
	ListAllUnordered(ctx context.Context) ([]LeaveRecord, error)
	Get(ctx context.Context, id string) (*LeaveRecord, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetOCRConfig() *OCRConfig
	GetServerConfig() *ServerConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
