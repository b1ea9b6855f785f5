package transcribe

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// srtTS converts seconds in the 00:00:00,000 format used by SRT.
func srtTS(seconds float64) string {
	h, m, s, ms := splitTS(seconds)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// vttTS converts seconds in the 00:00:00.000 format used by WebVTT.
func vttTS(seconds float64) string {
	h, m, s, ms := splitTS(seconds)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// splitTS decomposes seconds into hours, minutes, seconds and milliseconds.
// Total milliseconds are truncated, not rounded.
func splitTS(seconds float64) (int64, int64, int64, int64) {
	sMs := int64(1000)
	mMs := 60 * sMs
	hMs := 60 * mMs

	ts := int64(seconds * 1000)

	h := ts / hMs
	m := (ts - (h * hMs)) / mMs
	s := ((ts - (h * hMs)) - m*mMs) / sMs
	ms := ((ts - (h * hMs)) - m*mMs) - s*sMs

	return h, m, s, ms
}

// Text writes all segments as a single line of plain text, each segment
// trimmed and joined by a single space.
func (t Transcript) Text(w io.Writer) error {
	parts := make([]string, len(t.Segments))
	for i, s := range t.Segments {
		parts[i] = strings.TrimSpace(s.Text)
	}
	if _, err := io.WriteString(w, strings.Join(parts, " ")); err != nil {
		return fmt.Errorf("failed to write: %w", err)
	}
	return nil
}

// SRT writes the transcript in SubRip format: a 1-based index line, a
// timestamp line with a comma millisecond separator, the trimmed text and a
// blank line per segment. An empty transcript produces no output.
func (t Transcript) SRT(w io.Writer) error {
	for i, s := range t.Segments {
		_, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n", i+1, srtTS(s.Start), srtTS(s.End), strings.TrimSpace(s.Text))
		if err != nil {
			return fmt.Errorf("failed to write: %w", err)
		}
	}
	return nil
}

// WebVTT writes the transcript in WebVTT format: the literal WEBVTT header
// followed by cue blocks with a period millisecond separator.
func (t Transcript) WebVTT(w io.Writer) error {
	if _, err := io.WriteString(w, "WEBVTT\n\n"); err != nil {
		return fmt.Errorf("failed to write: %w", err)
	}
	for _, s := range t.Segments {
		_, err := fmt.Fprintf(w, "%s --> %s\n%s\n\n", vttTS(s.Start), vttTS(s.End), strings.TrimSpace(s.Text))
		if err != nil {
			return fmt.Errorf("failed to write: %w", err)
		}
	}
	return nil
}

// JSON writes the transcript as compact JSON. The encoding round-trips
// losslessly through Transcript.
func (t Transcript) JSON(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(t); err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	return nil
}

// JSONPretty writes the transcript as indented JSON.
func (t Transcript) JSONPretty(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	return nil
}
