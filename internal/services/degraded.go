package services

import "strings"

// Degradation records a non-fatal fallback taken while producing output, such
// as rendering without subtitles because the ASR backend is missing. Callers
// collect these alongside a successful result instead of failing.
type Degradation struct {
	// Event is a stable identifier suitable for the event_type log field.
	Event  string
	Detail string
	Impact string
}

func (d Degradation) Error() string {
	parts := []string{"degraded: " + d.Event}
	if detail := strings.TrimSpace(d.Detail); detail != "" {
		parts = append(parts, detail)
	}
	return strings.Join(parts, ": ")
}

// Degradation events.
const (
	EventASRUnavailable    = "asr_unavailable"
	EventFontFallback      = "font_fallback"
	EventGlyphFallback     = "glyph_fallback"
	EventStrokeUnsupported = "stroke_unsupported"
	EventProviderFallback  = "provider_fallback"
	EventModeFallback      = "mode_fallback"
)
