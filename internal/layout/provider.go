package layout

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"shortreel/internal/logging"
	"shortreel/internal/services"
)

// FontProvider loads a face at a point size.
type FontProvider interface {
	Name() string
	Load(size float64) (Font, error)
}

// DefaultFontPaths lists the system fonts tried after any configured paths.
// Bare file names are resolved relative to the working directory.
var DefaultFontPaths = []string{
	"/Library/Fonts/Arial.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
	"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/noto/NotoSans-Regular.ttf",
	"Arial.ttf",
	"DejaVuSans.ttf",
	"NotoSans-Regular.ttf",
}

// FileFontProvider loads a TrueType font from disk. The file is parsed once;
// each Load returns a new face because faces are not safe for concurrent use.
type FileFontProvider struct {
	Path string

	once   sync.Once
	parsed *truetype.Font
	err    error
}

// NewFileFontProvider returns a provider for path.
func NewFileFontProvider(path string) *FileFontProvider {
	return &FileFontProvider{Path: path}
}

func (p *FileFontProvider) Name() string { return p.Path }

func (p *FileFontProvider) Load(size float64) (Font, error) {
	p.once.Do(func() {
		data, err := os.ReadFile(p.Path)
		if err != nil {
			p.err = err
			return
		}
		p.parsed, p.err = truetype.Parse(data)
	})
	if p.err != nil {
		return Font{}, p.err
	}
	if size <= 0 {
		return Font{}, fmt.Errorf("invalid font size %v", size)
	}
	parsed := p.parsed
	face := truetype.NewFace(parsed, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	return Font{
		Face:   face,
		Source: p.Path,
		covers: func(r rune) bool { return parsed.Index(r) != 0 },
	}, nil
}

// BasicFontProvider serves the built-in 7x13 bitmap face. It never fails.
type BasicFontProvider struct{}

func (BasicFontProvider) Name() string { return "builtin" }

func (BasicFontProvider) Load(float64) (Font, error) {
	face := basicfont.Face7x13
	return Font{
		Face:    face,
		Source:  "builtin",
		Builtin: true,
		covers: func(r rune) bool {
			for _, rng := range face.Ranges {
				if r >= rng.Low && r < rng.High {
					return true
				}
			}
			return false
		},
	}, nil
}

// FontChain tries providers in order and returns the first face that loads.
type FontChain struct {
	providers []FontProvider
	logger    *slog.Logger

	mu     sync.Mutex
	warned map[string]bool
}

// NewFontChain builds a chain from the given providers with BasicFontProvider
// appended so resolution cannot fail.
func NewFontChain(logger *slog.Logger, providers ...FontProvider) *FontChain {
	chain := make([]FontProvider, 0, len(providers)+1)
	for _, p := range providers {
		if p != nil {
			chain = append(chain, p)
		}
	}
	chain = append(chain, BasicFontProvider{})
	return &FontChain{
		providers: chain,
		logger:    logging.NewComponentLogger(logger, "layout"),
		warned:    map[string]bool{},
	}
}

// NewSystemFontChain builds a chain of configured paths followed by
// DefaultFontPaths. Blank and duplicate paths are skipped.
func NewSystemFontChain(logger *slog.Logger, configured []string) *FontChain {
	seen := map[string]bool{}
	var providers []FontProvider
	for _, path := range append(append([]string{}, configured...), DefaultFontPaths...) {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		key := filepath.Clean(path)
		if seen[key] {
			continue
		}
		seen[key] = true
		providers = append(providers, NewFileFontProvider(path))
	}
	return NewFontChain(logger, providers...)
}

// Providers returns the provider names in resolution order.
func (c *FontChain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Resolve returns the first face that loads at size. A font_fallback
// degradation is reported when only the built-in face was available.
func (c *FontChain) Resolve(size float64) (Font, []services.Degradation) {
	var errs []error
	for _, p := range c.providers {
		f, err := p.Load(size)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			}
			continue
		}
		if !f.Builtin {
			return f, nil
		}
		d := services.Degradation{
			Event:  services.EventFontFallback,
			Detail: "no scalable font found",
			Impact: "captions drawn with built-in bitmap font",
		}
		c.warnOnce(d, errors.Join(errs...))
		return f, []services.Degradation{d}
	}
	// The chain always ends with BasicFontProvider.
	f, _ := BasicFontProvider{}.Load(size)
	return f, nil
}

func (c *FontChain) warnOnce(d services.Degradation, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.warned[d.Event] {
		return
	}
	c.warned[d.Event] = true
	attrs := []logging.Attr{
		logging.String(logging.FieldErrorHint, "install DejaVu or Noto fonts, or set style.font_paths"),
		logging.Int("providers", len(c.providers)),
	}
	if cause != nil {
		attrs = append(attrs, logging.Error(cause))
	}
	logging.WarnDegraded(c.logger, "font fallback", d, attrs...)
}
