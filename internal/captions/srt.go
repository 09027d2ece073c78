package captions

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatSRT renders segments as a SubRip document.
func FormatSRT(segments []Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n", i+1, srtTimestamp(seg.Start), srtTimestamp(seg.End), seg.Text)
	}
	return b.String()
}

func srtTimestamp(seconds float64) string {
	ms := int64(math.Round(max(0, seconds) * 1000))
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ParseSRT reads a SubRip document. Multi-line cue text is joined with a
// space. Cue numbers are ignored.
func ParseSRT(data []byte) ([]Segment, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	scanner := bufio.NewScanner(bytes.NewReader(data))
	var (
		segments []Segment
		cur      *Segment
		text     []string
		lineNo   int
	)
	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(text, " ")
			segments = append(segments, *cur)
		}
		cur = nil
		text = text[:0]
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		if before, after, ok := strings.Cut(line, "-->"); ok && cur == nil {
			start, err := parseSRTTimestamp(before)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			end, err := parseSRTTimestamp(after)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			cur = &Segment{Start: start, End: end}
			continue
		}
		if cur == nil {
			// cue index
			continue
		}
		text = append(text, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return segments, nil
}

func parseSRTTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	// Drop position hints such as "X1:40 X2:600".
	if idx := strings.IndexByte(value, ' '); idx >= 0 {
		value = value[:idx]
	}
	value = strings.Replace(value, ",", ".", 1)
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q", value)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %q", value)
	}
	s, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %q", value)
	}
	return float64(h)*3600 + float64(m)*60 + s, nil
}
