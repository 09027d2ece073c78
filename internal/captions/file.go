package captions

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"shortreel/internal/services"
)

type segmentFile struct {
	Segments []Segment `yaml:"segments"`
}

// LoadFile reads manual segments from a .yaml, .yml, .json, or .srt file.
// YAML and JSON accept either a bare list or a document with a segments key.
// Segments are returned as written; Build validates them.
func LoadFile(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "captions", "read segments", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".srt":
		segments, err := ParseSRT(data)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "captions", "parse srt", path, err)
		}
		return segments, nil
	case ".yaml", ".yml", ".json":
		segments, err := decodeSegments(data)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "captions", "parse "+strings.TrimPrefix(ext, "."), path, err)
		}
		return segments, nil
	default:
		return nil, services.Wrap(services.ErrValidation, "captions", "read segments", fmt.Sprintf("unsupported extension %q", ext), nil)
	}
}

func decodeSegments(data []byte) ([]Segment, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var list []Segment
	if err := yaml.Unmarshal(trimmed, &list); err == nil {
		return list, nil
	}
	var doc segmentFile
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	return doc.Segments, nil
}

// MarshalYAML renders segments in the list form LoadFile accepts.
func MarshalYAML(segments []Segment) ([]byte, error) {
	if segments == nil {
		segments = []Segment{}
	}
	return yaml.Marshal(segments)
}
