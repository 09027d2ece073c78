package layout

import (
	"os"
	"path/filepath"
	"testing"

	"shortreel/internal/logging"
	"shortreel/internal/services"
)

func TestStripNonASCII(t *testing.T) {
	cases := map[string]string{
		"plain":         "plain",
		"café":          "cafe",
		"naïve résumé":  "naive resume",
		"emoji 😀 here": "emoji  here",
		"日本語":           "",
	}
	for in, want := range cases {
		if got := StripNonASCII(in); got != want {
			t.Fatalf("StripNonASCII(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuiltinMeasureFallsBackForMissingGlyphs(t *testing.T) {
	f, err := BasicFontProvider{}.Load(24)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := f.Measure("abc"); got != 21 {
		t.Fatalf("Measure(abc) = %v, want 21", got)
	}
	if f.CoversAll("ab😀") {
		t.Fatalf("builtin face should not cover emoji")
	}
	if got := f.Measure("ab😀"); got != 14 {
		t.Fatalf("Measure with emoji = %v, want 14", got)
	}
	if f.LineHeight() <= 0 {
		t.Fatalf("LineHeight = %v", f.LineHeight())
	}
}

func TestFontChainFallsBackToBuiltin(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "broken.ttf")
	if err := os.WriteFile(garbage, []byte("not a font"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	chain := NewFontChain(logging.NewNop(),
		NewFileFontProvider(filepath.Join(dir, "missing.ttf")),
		NewFileFontProvider(garbage),
	)
	names := chain.Providers()
	if len(names) != 3 || names[2] != "builtin" {
		t.Fatalf("providers = %v", names)
	}

	f, degraded := chain.Resolve(32)
	if !f.Builtin || f.Face == nil {
		t.Fatalf("expected builtin face, got %+v", f)
	}
	if len(degraded) != 1 || degraded[0].Event != services.EventFontFallback {
		t.Fatalf("degradations = %+v", degraded)
	}
}

func TestFileFontProviderCachesParseError(t *testing.T) {
	p := NewFileFontProvider(filepath.Join(t.TempDir(), "missing.ttf"))
	_, first := p.Load(12)
	_, second := p.Load(12)
	if first == nil || second == nil || first.Error() != second.Error() {
		t.Fatalf("errors = %v / %v", first, second)
	}
}

func TestSystemFontChainOrdersConfiguredFirst(t *testing.T) {
	chain := NewSystemFontChain(logging.NewNop(), []string{"/custom/font.ttf", " ", "/custom/font.ttf", DefaultFontPaths[0]})
	names := chain.Providers()
	if names[0] != "/custom/font.ttf" || names[1] != DefaultFontPaths[0] {
		t.Fatalf("providers = %v", names)
	}
	if len(names) != len(DefaultFontPaths)+2 {
		t.Fatalf("got %d providers, want %d", len(names), len(DefaultFontPaths)+2)
	}
	if names[len(names)-1] != "builtin" {
		t.Fatalf("last provider = %s", names[len(names)-1])
	}
}
