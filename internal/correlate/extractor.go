package correlate

import (
	"regexp"
	"strings"
)

// Pair is one (token, text) association recovered from a reply.
type Pair struct {
	Token Token
	Text  string
}

// Extractor recovers token/text pairs from the raw reply of the
// translation service. Implementations must tolerate replies that
// reorder items, merge lines, add commentary, or echo only a subset of
// the markers they were sent.
type Extractor interface {
	Extract(reply string) []Pair
}

// markerPattern matches exactly one well-formed marker. Truncated,
// overlong, or wrong-alphabet markers do not match and are ignored.
var markerPattern = regexp.MustCompile(`<([A-Z0-9]{6})>`)

// markerExtractor scans for marker occurrences and captures, for each
// marker, the first non-blank line between it and the next marker.
type markerExtractor struct{}

// NewMarkerExtractor returns the default marker-based Extractor.
func NewMarkerExtractor() Extractor {
	return markerExtractor{}
}

func (markerExtractor) Extract(reply string) []Pair {
	matches := markerPattern.FindAllStringSubmatchIndex(reply, -1)

	var pairs []Pair
	for i, m := range matches {
		token := Token(reply[m[2]:m[3]])
		if token == Sentinel {
			continue
		}

		end := len(reply)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		text := firstTextLine(reply[m[1]:end])
		if text == "" {
			continue
		}

		pairs = append(pairs, Pair{Token: token, Text: text})
	}
	return pairs
}

// firstTextLine returns the first line of s holding non-whitespace
// content, trimmed. An all-blank s yields "".
func firstTextLine(s string) string {
	for {
		line := s
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			line, s = s[:idx], s[idx+1:]
		} else {
			s = ""
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
		if s == "" {
			return ""
		}
	}
}
