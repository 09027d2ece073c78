// Package export writes side artifacts next to a rendered video: an SRT
// subtitle sidecar and a DOCX script sheet with segment timings.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"shortreel/internal/captions"
	"shortreel/internal/services"
)

const (
	fontName  = "Times New Roman"
	fontSize  = 12
	titleSize = 16
)

// SidecarPath returns videoPath with its extension replaced by ext.
func SidecarPath(videoPath, ext string) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ext
}

// WriteSRT writes segments as SubRip cues.
func WriteSRT(path string, segments []captions.Segment) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrRender, "export", "write srt", path, err)
	}
	if err := os.WriteFile(path, []byte(captions.FormatSRT(segments)), 0o644); err != nil {
		return services.Wrap(services.ErrRender, "export", "write srt", path, err)
	}
	return nil
}

// WriteScriptDocx writes the narration script followed by a timing table of
// the subtitle segments.
func WriteScriptDocx(path, title, script string, segments []captions.Segment) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return services.Wrap(services.ErrRender, "export", "create docx", path, err)
	}

	addRun(doc.AddParagraph(""), title, true, titleSize)
	for _, para := range strings.Split(script, "\n") {
		if para = strings.TrimSpace(para); para == "" {
			continue
		}
		addRun(doc.AddParagraph(""), para, false, fontSize)
	}

	if len(segments) > 0 {
		doc.AddParagraph("")
		addRun(doc.AddParagraph(""), "Subtitle timings", true, 14)
		for i, seg := range segments {
			p := doc.AddParagraph("")
			addRun(p, fmt.Sprintf("%d. %s - %s  ", i+1, clock(seg.Start), clock(seg.End)), true, fontSize)
			addRun(p, seg.Text, false, fontSize)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrRender, "export", "write docx", path, err)
	}
	if err := doc.SaveTo(path); err != nil {
		return services.Wrap(services.ErrRender, "export", "write docx", path, err)
	}
	return nil
}

func addRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}

// clock formats seconds as M:SS.mmm.
func clock(seconds float64) string {
	ms := int64(seconds*1000 + 0.5)
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}
