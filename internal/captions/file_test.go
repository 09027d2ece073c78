package captions

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
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

func TestLoadFileFormats(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"list.yaml", "- start: 0\n  end: 1.5\n  text: Hello there\n- start: 1.5\n  end: 3\n  text: General Kenobi\n"},
		{"doc.yml", "segments:\n  - {start: 0, end: 1.5, text: Hello there}\n  - {start: 1.5, end: 3, text: General Kenobi}\n"},
		{"list.json", `[{"start":0,"end":1.5,"text":"Hello there"},{"start":1.5,"end":3,"text":"General Kenobi"}]`},
		{"doc.json", `{"segments":[{"start":0,"end":1.5,"text":"Hello there"},{"start":1.5,"end":3,"text":"General Kenobi"}]}`},
		{"subs.srt", "1\n00:00:00,000 --> 00:00:01,500\nHello there\n\n2\n00:00:01,500 --> 00:00:03,000\nGeneral\nKenobi\n"},
	}
	for _, tc := range cases {
		segments, err := LoadFile(writeFile(t, tc.name, tc.content))
		if err != nil {
			t.Fatalf("%s: LoadFile: %v", tc.name, err)
		}
		if len(segments) != 2 {
			t.Fatalf("%s: got %d segments", tc.name, len(segments))
		}
		if segments[1] != (Segment{Start: 1.5, End: 3, Text: "General Kenobi"}) {
			t.Fatalf("%s: segment 1 = %v", tc.name, segments[1])
		}
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("missing file err = %v", err)
	}
	if _, err := LoadFile(writeFile(t, "subs.vtt", "WEBVTT")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("unsupported extension err = %v", err)
	}
	if _, err := LoadFile(writeFile(t, "bad.srt", "1\n00:00 --> 00:01\nhi\n")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("bad srt err = %v", err)
	}
}

func TestFormatSRT(t *testing.T) {
	got := FormatSRT([]Segment{
		{Start: 0, End: 1.25, Text: "first"},
		{Start: 3661.5, End: 3662.0004, Text: "second"},
	})
	want := "1\n00:00:00,000 --> 00:00:01,250\nfirst\n\n2\n01:01:01,500 --> 01:01:02,000\nsecond\n"
	if got != want {
		t.Fatalf("FormatSRT =\n%s\nwant\n%s", got, want)
	}
	parsed, err := ParseSRT([]byte(got))
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(parsed) != 2 || parsed[1].Text != "second" || parsed[1].Start != 3661.5 {
		t.Fatalf("parsed = %v", parsed)
	}
}

func TestMarshalYAMLLoadsBack(t *testing.T) {
	data, err := MarshalYAML([]Segment{{Start: 0, End: 2, Text: "hello"}})
	if err != nil {
		t.Fatalf("MarshalYAML: %v", err)
	}
	if !strings.Contains(string(data), "text: hello") {
		t.Fatalf("yaml = %s", data)
	}
}
