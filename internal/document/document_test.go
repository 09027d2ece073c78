package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shortreel/internal/services"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestExtractText(t *testing.T) {
	path := writeFile(t, "notes.txt", "  First   line\r\n\r\n\r\nSecond\tline  \n\n")
	got, err := Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "First line\n\nSecond line" {
		t.Fatalf("Extract = %q", got)
	}
}

func TestExtractMarkdown(t *testing.T) {
	path := writeFile(t, "post.md", "# Heading\n\nBody text.")
	got, err := Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "# Heading\n\nBody text." {
		t.Fatalf("Extract = %q", got)
	}
}

func TestExtractErrors(t *testing.T) {
	empty := writeFile(t, "empty.txt", " \n\t\n")
	unsupported := writeFile(t, "slides.pptx", "x")
	badPDF := writeFile(t, "broken.pdf", "not a pdf")

	tests := []struct {
		name   string
		path   string
		marker error
	}{
		{name: "missing", path: filepath.Join(t.TempDir(), "nope.txt"), marker: services.ErrNotFound},
		{name: "blank path", path: " ", marker: services.ErrValidation},
		{name: "empty text", path: empty, marker: services.ErrExtraction},
		{name: "unsupported", path: unsupported, marker: services.ErrValidation},
		{name: "corrupt pdf", path: badPDF, marker: services.ErrExtraction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(context.Background(), tt.path)
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
		})
	}
}

func TestSupported(t *testing.T) {
	for path, want := range map[string]bool{
		"a.pdf": true, "b.PDF": true, "c.txt": true, "d.md": true,
		"e.docx": false, "f": false,
	} {
		if got := Supported(path); got != want {
			t.Fatalf("Supported(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("\n\n a  b \n\n\n c\n"); got != "a b\n\nc" {
		t.Fatalf("Normalize = %q", got)
	}
}
