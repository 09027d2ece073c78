// Package cta appends a closing call-to-action card to a rendered video.
//
// The card is a full-frame PNG (white text on black, with an optional QR
// code) overlaid on the final seconds of the video.
package cta

import (
	"fmt"
	"image"
	"math"

	"github.com/fogleman/gg"
	"github.com/skip2/go-qrcode"

	"shortreel/internal/banner"
	"shortreel/internal/layout"
	"shortreel/internal/services"
)

// referenceHeight is the frame height at which FontSize applies unscaled.
const referenceHeight = 720

// Card describes the call-to-action frame.
type Card struct {
	Text     string
	FontSize int
	// URL, when set, is encoded as a QR code below the text.
	URL string
}

// ScaledFontSize returns the font size for a frame of the given height.
func (c Card) ScaledFontSize(height int) float64 {
	size := float64(c.FontSize)
	if size <= 0 {
		size = 30
	}
	return math.Max(12, size*float64(height)/referenceHeight)
}

// Draw renders the card at width x height.
func Draw(fonts *layout.FontChain, card Card, width, height int) (image.Image, []services.Degradation, error) {
	if width <= 0 || height <= 0 {
		return nil, nil, services.Wrap(services.ErrValidation, "cta", "draw card", fmt.Sprintf("invalid canvas %dx%d", width, height), nil)
	}
	face, degraded := fonts.Resolve(card.ScaledFontSize(height))
	text := banner.Sanitize(card.Text)
	if !face.CoversAll(text) {
		text = layout.StripNonASCII(text)
		degraded = append(degraded, services.Degradation{
			Event:  services.EventGlyphFallback,
			Detail: "call-to-action font lacks glyphs",
			Impact: "non-ASCII characters removed from the card",
		})
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetFontFace(face.Face)
	dc.SetRGB(1, 1, 1)

	lines := layout.Wrap(text, face, float64(width)*0.85)
	lineStep := face.LineHeight() * 1.2
	blockH := float64(len(lines)) * lineStep

	var qr image.Image
	if card.URL != "" {
		code, err := qrcode.New(card.URL, qrcode.Medium)
		if err != nil {
			return nil, degraded, services.Wrap(services.ErrRender, "cta", "encode qr", card.URL, err)
		}
		qr = code.Image(min(width, height) / 3)
		blockH += lineStep + float64(qr.Bounds().Dy())
	}

	y := (float64(height) - blockH) / 2
	for _, line := range lines {
		dc.DrawStringAnchored(line, float64(width)/2, y+lineStep/2, 0.5, 0.5)
		y += lineStep
	}
	if qr != nil {
		y += lineStep
		dc.DrawImageAnchored(qr, width/2, int(y), 0.5, 0)
	}
	return dc.Image(), degraded, nil
}
