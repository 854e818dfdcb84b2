package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Metadata describes where a document came from.
type Metadata struct {
	Source     string    `json:"source"`
	URL        string    `json:"url,omitempty"`
	Filename   string    `json:"filename,omitempty"`
	AcquiredAt time.Time `json:"acquired_at"`
	SHA256     string    `json:"sha256"`
	Chars      int       `json:"chars"`
	FromCache  bool      `json:"from_cache,omitempty"`
}

// NewMetadata stamps text acquired from source.
func NewMetadata(source, text string) *Metadata {
	sum := sha256.Sum256([]byte(text))
	return &Metadata{
		Source:     source,
		AcquiredAt: time.Now().UTC(),
		SHA256:     hex.EncodeToString(sum[:]),
		Chars:      utf8.RuneCountInString(text),
	}
}

// Fields returns the metadata as log fields. The text itself is never logged.
func (m *Metadata) Fields() []zap.Field {
	fields := []zap.Field{
		zap.String("source", m.Source),
		zap.Int("chars", m.Chars),
		zap.String("sha256", m.SHA256[:min(12, len(m.SHA256))]),
	}
	if m.URL != "" {
		fields = append(fields, zap.String("url", m.URL), zap.Bool("from_cache", m.FromCache))
	}
	if m.Filename != "" {
		fields = append(fields, zap.String("filename", m.Filename))
	}
	return fields
}
