package banner

import "shortreel/internal/config"

// Style holds the proportional banner settings for one render. Ratios are
// fractions of the video height (banner, bottom margin), the banner width
// (side margin), the banner height (font), or the font size (stroke).
type Style struct {
	BannerHeightRatio      float64
	BottomMarginRatio      float64
	SideMarginRatio        float64
	FontHeightRatio        float64
	BackgroundOpacity      int
	StrokeRatio            float64
	ShadowBlurPx           int
	KeepIntermediateImages bool
}

// DefaultStyle returns the stock banner look.
func DefaultStyle() Style {
	return Style{
		BannerHeightRatio: 0.06,
		BottomMarginRatio: 0.04,
		SideMarginRatio:   0.05,
		FontHeightRatio:   0.36,
		BackgroundOpacity: 160,
		StrokeRatio:       0.08,
		ShadowBlurPx:      2,
	}
}

// StyleFromConfig converts the [style] config section.
func StyleFromConfig(cfg config.Style) Style {
	return Style{
		BannerHeightRatio:      cfg.BannerRatio,
		BottomMarginRatio:      cfg.BottomMarginRatio,
		SideMarginRatio:        cfg.SideMarginRatio,
		FontHeightRatio:        cfg.FontHeightRatio,
		BackgroundOpacity:      cfg.BackgroundOpacity,
		StrokeRatio:            cfg.StrokeRatio,
		ShadowBlurPx:           cfg.ShadowPx,
		KeepIntermediateImages: cfg.KeepSubImages,
	}.Normalize()
}

// Normalize replaces out-of-range values with defaults. Ratios must lie in
// (0, 1), opacity is clamped to 0..255, and a negative blur disables it.
func (s Style) Normalize() Style {
	def := DefaultStyle()
	ratio := func(v, fallback float64) float64 {
		if v <= 0 || v >= 1 {
			return fallback
		}
		return v
	}
	s.BannerHeightRatio = ratio(s.BannerHeightRatio, def.BannerHeightRatio)
	s.BottomMarginRatio = ratio(s.BottomMarginRatio, def.BottomMarginRatio)
	s.SideMarginRatio = ratio(s.SideMarginRatio, def.SideMarginRatio)
	s.FontHeightRatio = ratio(s.FontHeightRatio, def.FontHeightRatio)
	s.StrokeRatio = ratio(s.StrokeRatio, def.StrokeRatio)
	s.BackgroundOpacity = min(255, max(0, s.BackgroundOpacity))
	s.ShadowBlurPx = max(0, s.ShadowBlurPx)
	return s
}

// Placement is where banners sit on a video frame.
type Placement struct {
	Width        int
	Height       int
	BottomMargin int
	X            int
	Y            int
}

// Place resolves banner size and position for a videoWidth x videoHeight
// frame. Banners span the full frame width and rest BottomMargin pixels above
// the bottom edge. Height is at least 50 and the margin at least 8 pixels.
func (s Style) Place(videoWidth, videoHeight int) Placement {
	h := max(50, int(float64(videoHeight)*s.BannerHeightRatio))
	bottom := max(8, int(float64(videoHeight)*s.BottomMarginRatio))
	return Placement{
		Width:        videoWidth,
		Height:       h,
		BottomMargin: bottom,
		X:            0,
		Y:            videoHeight - h - bottom,
	}
}

// Metrics are the pixel values derived from a banner canvas size.
type Metrics struct {
	Radius      float64
	FontSize    float64
	SideMargin  int
	StrokeWidth int
	LineStep    int
	MaxLineW    float64
}

// Resolve computes the banner metrics for a width x height canvas.
func (s Style) Resolve(width, height int) Metrics {
	fontSize := max(18, int(float64(height)*s.FontHeightRatio))
	margin := max(16, int(float64(width)*s.SideMarginRatio))
	fs := float64(fontSize)
	return Metrics{
		Radius:      float64(max(10, height/6)),
		FontSize:    fs,
		SideMargin:  margin,
		StrokeWidth: max(1, int(fs*s.StrokeRatio)),
		LineStep:    int(fs + max(6, fs*0.2)),
		MaxLineW:    float64(width - 2*margin),
	}
}
