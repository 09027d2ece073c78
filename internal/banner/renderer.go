// Package banner rasterizes one caption segment into a translucent rounded
// banner with outlined white text.
package banner

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"shortreel/internal/layout"
	"shortreel/internal/logging"
	"shortreel/internal/services"
)

// Renderer draws banners. It is safe for concurrent use; each call resolves
// its own font face.
type Renderer struct {
	fonts  *layout.FontChain
	logger *slog.Logger
}

// NewRenderer returns a Renderer resolving faces through fonts. A nil chain
// uses only the built-in face.
func NewRenderer(fonts *layout.FontChain, logger *slog.Logger) *Renderer {
	if fonts == nil {
		fonts = layout.NewFontChain(logger)
	}
	return &Renderer{fonts: fonts, logger: logging.NewComponentLogger(logger, "banner")}
}

// Output is a rendered banner plus any quality fallbacks taken.
type Output struct {
	Image        image.Image
	Lines        []string
	Font         string
	Degradations []services.Degradation
}

// Render draws text on a width x height transparent canvas. Missing fonts and
// unencodable characters lower fidelity but never fail the call.
func (r *Renderer) Render(text string, width, height int, style Style) (Output, error) {
	if width <= 0 || height <= 0 {
		return Output{}, services.Wrap(services.ErrValidation, "banner", "render", fmt.Sprintf("invalid canvas %dx%d", width, height), nil)
	}
	style = style.Normalize()
	m := style.Resolve(width, height)
	text = Sanitize(text)

	font, degraded := r.fonts.Resolve(m.FontSize)
	out := Output{Font: font.Source, Degradations: degraded}
	if !font.CoversAll(text) {
		out.Degradations = append(out.Degradations, services.Degradation{
			Event:  services.EventGlyphFallback,
			Detail: fmt.Sprintf("%s lacks glyphs for %q", font.Source, text),
			Impact: "some characters may render as boxes",
		})
	}

	canvas := gg.NewContextForImage(background(width, height, m.Radius, style))

	out.Lines = layout.Wrap(text, font, m.MaxLineW)
	if len(out.Lines) > 0 {
		layer := gg.NewContext(width, height)
		layer.SetFontFace(font.Face)
		stroke := m.StrokeWidth
		if font.Builtin {
			stroke = 0
			out.Degradations = append(out.Degradations, services.Degradation{
				Event:  services.EventStrokeUnsupported,
				Detail: "built-in face has no outline",
				Impact: "captions drawn without stroke",
			})
		}

		y := max(4, (height-len(out.Lines)*m.LineStep)/2)
		for _, line := range out.Lines {
			tw := int(font.Measure(line))
			x := max(4, (width-tw)/2)
			drawText(layer, line, float64(x), float64(y), stroke)
			y += m.LineStep
		}
		canvas.DrawImage(layer.Image(), 0, 0)
	}

	out.Image = canvas.Image()
	return out, nil
}

// RenderFile renders text and writes it as PNG to path.
func (r *Renderer) RenderFile(path, text string, width, height int, style Style) (Output, error) {
	out, err := r.Render(text, width, height, style)
	if err != nil {
		return out, err
	}
	if err := gg.SavePNG(path, out.Image); err != nil {
		return out, services.Wrap(services.ErrRender, "banner", "save png", path, err)
	}
	return out, nil
}

func background(width, height int, radius float64, style Style) image.Image {
	dc := gg.NewContext(width, height)
	dc.SetRGBA255(0, 0, 0, style.BackgroundOpacity)
	dc.DrawRoundedRectangle(0, 0, float64(width), float64(height), radius)
	dc.Fill()
	if style.ShadowBlurPx > 0 {
		return imaging.Blur(dc.Image(), float64(style.ShadowBlurPx))
	}
	return dc.Image()
}

// drawText draws s with its top-left corner at (x, y). A positive stroke
// paints a black outline of that radius under the white fill.
func drawText(dc *gg.Context, s string, x, y float64, stroke int) {
	if stroke > 0 {
		dc.SetRGBA255(0, 0, 0, 255)
		for dy := -stroke; dy <= stroke; dy++ {
			for dx := -stroke; dx <= stroke; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				if math.Hypot(float64(dx), float64(dy)) > float64(stroke) {
					continue
				}
				dc.DrawStringAnchored(s, x+float64(dx), y+float64(dy), 0, 1)
			}
		}
	}
	dc.SetRGBA255(255, 255, 255, 255)
	dc.DrawStringAnchored(s, x, y, 0, 1)
}
