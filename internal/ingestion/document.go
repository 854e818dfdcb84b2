// Package ingestion acquires policy text from pasted text, local files, uploads and URLs.
package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/anupalankarta/internal/fetch"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Input sources.
const (
	SourceText   = "text"
	SourceFile   = "file"
	SourceUpload = "upload"
	SourceURL    = "url"
)

// acceptedExtensions lists the upload types the checker accepts.
var acceptedExtensions = []string{".txt", ".md", ".pdf"}

// Document is acquired policy text ready for evaluation.
type Document struct {
	Text     string
	Metadata *Metadata
	// Warning notes a lossy acquisition, such as a PDF decoded as raw bytes.
	Warning string
}

// TextFetcher returns extracted page text for a URL.
type TextFetcher interface {
	FetchText(ctx context.Context, url string) (*fetch.CachedResult, error)
}

// Input names exactly one source of text.
type Input struct {
	Text     string
	URL      string
	FilePath string
}

// Acquire reads text from whichever single source in is set.
func Acquire(ctx context.Context, in Input, fetcher TextFetcher) (*Document, error) {
	set := 0
	for _, v := range []string{in.Text, in.URL, in.FilePath} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return nil, ErrMultipleInputs
	}

	switch {
	case in.URL != "":
		return FromURL(ctx, fetcher, in.URL)
	case in.FilePath != "":
		return FromFile(in.FilePath)
	default:
		return FromText(in.Text)
	}
}

// FromText wraps pasted text. Whitespace-only text yields ErrNoInput.
func FromText(text string) (*Document, error) {
	return newDocument(SourceText, CleanText(text))
}

// FromFile reads a local .txt, .md or .pdf file.
func FromFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return fromBytes(SourceFile, filepath.Base(path), data)
}

// FromUpload decodes an uploaded file by name and content.
func FromUpload(filename string, data []byte) (*Document, error) {
	return fromBytes(SourceUpload, filename, data)
}

// FromURL fetches a page through fetcher and wraps its extracted text.
func FromURL(ctx context.Context, fetcher TextFetcher, url string) (*Document, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured for %s", url)
	}
	result, err := fetcher.FetchText(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := newDocument(SourceURL, result.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: no paragraph or list text at %s", err, url)
	}
	doc.Metadata.URL = url
	doc.Metadata.FromCache = result.FromCache
	return doc, nil
}

// DecodeUpload turns uploaded bytes into text. A UTF-8 or UTF-16 byte order mark selects the
// decoding; otherwise bytes are read as UTF-8 and invalid sequences are dropped.
func DecodeUpload(data []byte) string {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		decoded = data
	}
	return strings.ToValidUTF8(string(decoded), "")
}

func fromBytes(source, filename string, data []byte) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !isAccepted(ext) {
		return nil, &UnsupportedFileError{Filename: filename, Extension: ext}
	}

	doc, err := newDocument(source, CleanText(DecodeUpload(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is empty", err, filename)
	}
	doc.Metadata.Filename = filename
	if ext == ".pdf" {
		// TODO: extract PDF text streams instead of decoding the raw file bytes.
		doc.Warning = "PDF content was decoded as raw bytes; results may be unreliable"
	}
	return doc, nil
}

func newDocument(source, text string) (*Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoInput
	}
	return &Document{
		Text:     text,
		Metadata: NewMetadata(source, text),
	}, nil
}

func isAccepted(ext string) bool {
	for _, accepted := range acceptedExtensions {
		if ext == accepted {
			return true
		}
	}
	return false
}

func acceptedList() string {
	return strings.Join(acceptedExtensions, ", ")
}
