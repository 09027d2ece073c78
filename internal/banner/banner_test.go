package banner

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"shortreel/internal/config"
	"shortreel/internal/layout"
	"shortreel/internal/logging"
	"shortreel/internal/services"
)

func builtinRenderer() *Renderer {
	return NewRenderer(layout.NewFontChain(logging.NewNop()), logging.NewNop())
}

func TestSanitize(t *testing.T) {
	in := "\u201cWait\u2026\u201d \u2014 it\u2019s fine\u200b \u2013 ok"
	want := `"Wait..." - it's fine - ok`
	if got := Sanitize(in); got != want {
		t.Fatalf("Sanitize = %q, want %q", got, want)
	}
}

func TestPlaceFloors(t *testing.T) {
	style := DefaultStyle()
	small := style.Place(320, 240)
	if small.Height != 50 || small.BottomMargin != 9 || small.Y != 181 || small.Width != 320 {
		t.Fatalf("small placement = %+v", small)
	}
	tiny := style.Place(100, 100)
	if tiny.Height != 50 || tiny.BottomMargin != 8 || tiny.Y != 42 {
		t.Fatalf("tiny placement = %+v", tiny)
	}
	tall := style.Place(1080, 1920)
	if tall.Height != 115 || tall.BottomMargin != 76 || tall.Y != 1729 {
		t.Fatalf("portrait placement = %+v", tall)
	}
}

func TestResolveMetrics(t *testing.T) {
	m := DefaultStyle().Resolve(1080, 115)
	want := Metrics{Radius: 19, FontSize: 41, SideMargin: 54, StrokeWidth: 3, LineStep: 49, MaxLineW: 972}
	if m != want {
		t.Fatalf("Resolve = %+v, want %+v", m, want)
	}
	floor := DefaultStyle().Resolve(200, 50)
	if floor.FontSize != 18 || floor.SideMargin != 16 || floor.StrokeWidth != 1 || floor.Radius != 10 || floor.LineStep != 24 {
		t.Fatalf("floored metrics = %+v", floor)
	}
}

func TestNormalizeResetsInvalidValues(t *testing.T) {
	s := Style{BannerHeightRatio: 0, BottomMarginRatio: 1.5, SideMarginRatio: 0.1, FontHeightRatio: -1, BackgroundOpacity: 300, StrokeRatio: 0.1, ShadowBlurPx: -4}.Normalize()
	def := DefaultStyle()
	if s.BannerHeightRatio != def.BannerHeightRatio || s.BottomMarginRatio != def.BottomMarginRatio || s.FontHeightRatio != def.FontHeightRatio {
		t.Fatalf("ratios not reset: %+v", s)
	}
	if s.SideMarginRatio != 0.1 || s.StrokeRatio != 0.1 {
		t.Fatalf("valid ratios changed: %+v", s)
	}
	if s.BackgroundOpacity != 255 || s.ShadowBlurPx != 0 {
		t.Fatalf("opacity/blur = %d/%d", s.BackgroundOpacity, s.ShadowBlurPx)
	}
}

func TestStyleFromConfig(t *testing.T) {
	s := StyleFromConfig(config.Style{BannerRatio: 0.1, BackgroundOpacity: 90, ShadowPx: 0, KeepSubImages: true})
	if s.BannerHeightRatio != 0.1 || s.BackgroundOpacity != 90 || !s.KeepIntermediateImages {
		t.Fatalf("style = %+v", s)
	}
	if s.FontHeightRatio != DefaultStyle().FontHeightRatio {
		t.Fatalf("unset ratio should default, got %v", s.FontHeightRatio)
	}
}

func TestRenderBackgroundAndText(t *testing.T) {
	out, err := builtinRenderer().Render("hello banner", 400, 60, DefaultStyle())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b := out.Image.Bounds()
	if b.Dx() != 400 || b.Dy() != 60 {
		t.Fatalf("bounds = %v", b)
	}
	if len(out.Lines) != 1 || out.Lines[0] != "hello banner" {
		t.Fatalf("lines = %q", out.Lines)
	}

	_, _, _, corner := out.Image.At(0, 0).RGBA()
	if corner>>8 >= 80 {
		t.Fatalf("corner alpha = %d, want rounded corner", corner>>8)
	}

	white := false
	for y := b.Min.Y; y < b.Max.Y && !white; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := out.Image.At(x, y).RGBA()
			if a>>8 == 255 && r>>8 > 240 && g>>8 > 240 && bl>>8 > 240 {
				white = true
				break
			}
		}
	}
	if !white {
		t.Fatalf("no white text pixels drawn")
	}

	events := map[string]bool{}
	for _, d := range out.Degradations {
		events[d.Event] = true
	}
	if !events[services.EventFontFallback] || !events[services.EventStrokeUnsupported] {
		t.Fatalf("degradations = %+v", out.Degradations)
	}
}

func TestRenderEmptyTextKeepsBackground(t *testing.T) {
	out, err := builtinRenderer().Render("   ", 400, 60, DefaultStyle())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	_, _, _, a := out.Image.At(200, 30).RGBA()
	if got := int(a >> 8); got < 157 || got > 163 {
		t.Fatalf("interior alpha = %d, want ~160", got)
	}
}

func TestRenderNeverFailsOnUnencodableText(t *testing.T) {
	out, err := builtinRenderer().Render("日本語 😀 ok", 300, 50, DefaultStyle())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	found := false
	for _, d := range out.Degradations {
		if d.Event == services.EventGlyphFallback {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected glyph fallback, got %+v", out.Degradations)
	}
}

func TestRenderRejectsEmptyCanvas(t *testing.T) {
	_, err := builtinRenderer().Render("x", 0, 50, DefaultStyle())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestRenderFileWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subtitle.png")
	if _, err := builtinRenderer().RenderFile(path, "a much longer caption that will need to wrap", 200, 80, DefaultStyle()); err != nil {
		t.Fatalf("RenderFile: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 80 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
}

func TestRenderConcurrent(t *testing.T) {
	r := builtinRenderer()
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Render("parallel caption", 320, 50, DefaultStyle())
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
	}
}
