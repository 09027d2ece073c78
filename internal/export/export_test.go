package export

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shortreel/internal/captions"
)

var segments = []captions.Segment{
	{Start: 0, End: 2.5, Text: "Hello there"},
	{Start: 2.5, End: 65.25, Text: "General Kenobi"},
}

func TestSidecarPath(t *testing.T) {
	if got := SidecarPath("/out/final.mp4", ".srt"); got != "/out/final.srt" {
		t.Fatalf("SidecarPath = %q", got)
	}
	if got := SidecarPath("/out/final", ".docx"); got != "/out/final.docx" {
		t.Fatalf("SidecarPath = %q", got)
	}
}

func TestWriteSRT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "final.srt")
	if err := WriteSRT(path, segments); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != captions.FormatSRT(segments) {
		t.Fatalf("srt = %q", data)
	}
	parsed, err := captions.ParseSRT(data)
	if err != nil || len(parsed) != 2 || parsed[1].Text != "General Kenobi" {
		t.Fatalf("reparse = %+v, %v", parsed, err)
	}
}

func TestWriteScriptDocx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final.docx")
	if err := WriteScriptDocx(path, "Solar power", "First paragraph.\n\nSecond paragraph.", segments); err != nil {
		t.Fatalf("WriteScriptDocx: %v", err)
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open docx: %v", err)
	}
	defer zr.Close()
	var body string
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open document.xml: %v", err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		body = string(data)
	}
	for _, want := range []string{"Solar power", "Second paragraph.", "General Kenobi", "1:05.250"} {
		if !strings.Contains(body, want) {
			t.Fatalf("document.xml missing %q", want)
		}
	}
}

func TestClock(t *testing.T) {
	for in, want := range map[float64]string{0: "0:00.000", 2.5: "0:02.500", 65.25: "1:05.250", 600: "10:00.000"} {
		if got := clock(in); got != want {
			t.Fatalf("clock(%v) = %q, want %q", in, got, want)
		}
	}
}
