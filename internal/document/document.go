// Package document extracts narration source text from input documents.
//
// PDF files are read page by page with ledongthuc/pdf; plain text and
// markdown files are read directly. Every format goes through the same
// whitespace normalization so downstream prompts see stable text.
package document

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"shortreel/internal/services"
)

// Supported reports whether path has an extension Extract understands.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md", ".markdown":
		return true
	}
	return false
}

// Extract returns the normalized text content of the document at path.
func Extract(ctx context.Context, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", services.Wrap(services.ErrValidation, "extract", "open document", "document path required", nil)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, "extract", "open document", path, err)
		}
		return "", services.Wrap(services.ErrExtraction, "extract", "stat document", path, err)
	}

	var (
		raw string
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		raw, err = extractPDF(ctx, path)
	case ".txt", ".md", ".markdown":
		var data []byte
		data, err = os.ReadFile(path)
		raw = string(data)
	default:
		return "", services.Wrap(services.ErrValidation, "extract", "detect format", fmt.Sprintf("unsupported document type %q", ext), nil)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", services.Wrap(services.ErrExtraction, "extract", "read document", path, err)
	}

	text := Normalize(raw)
	if text == "" {
		return "", services.Wrap(services.ErrExtraction, "extract", "read document", "no text extracted from "+filepath.Base(path), nil)
	}
	return text, nil
}

func extractPDF(ctx context.Context, path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// Normalize collapses runs of spaces within lines, trims every line, and
// squeezes consecutive blank lines down to one paragraph break.
func Normalize(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var out []string
	blank := false
	for _, line := range strings.Split(raw, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
