package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/asticode/go-astisub"
)

// DefaultWriter is the default subtitle file writer
type DefaultWriter struct{}

// NewWriter creates a new subtitle file writer
func NewWriter() Writer {
	return &DefaultWriter{}
}

// Write serializes the file's cues to path, picking the output format
// from the path extension. When the file carries a retained source
// document, cue text is copied back onto it so styles and metadata
// survive; otherwise a bare document is assembled from the cues.
func (w *DefaultWriter) Write(path string, subtitle *File) error {
	if subtitle == nil {
		return fmt.Errorf("subtitle data is empty")
	}
	if _, err := FormatForPath(path); err != nil {
		return err
	}

	doc := subtitle.doc
	if doc == nil {
		doc = buildDocument(subtitle.Cues)
	} else {
		applyCues(doc, subtitle.Cues)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := doc.Write(path); err != nil {
		return fmt.Errorf("failed to write subtitle file: %w", err)
	}
	return nil
}

// applyCues copies cue text back onto the retained document by position.
func applyCues(doc *astisub.Subtitles, cues []Cue) {
	for i, cue := range cues {
		if i >= len(doc.Items) {
			break
		}
		if cue.Kind != KindDialogue || cue.Text == "" {
			continue
		}
		doc.Items[i].Lines = toLines(cue.Text)
	}
}

func buildDocument(cues []Cue) *astisub.Subtitles {
	doc := astisub.NewSubtitles()
	for _, cue := range cues {
		if cue.Kind != KindDialogue {
			continue
		}
		doc.Items = append(doc.Items, &astisub.Item{
			StartAt: cue.StartAt,
			EndAt:   cue.EndAt,
			Lines:   toLines(cue.Text),
		})
	}
	return doc
}

func toLines(text string) []astisub.Line {
	parts := strings.Split(text, "\n")
	lines := make([]astisub.Line, 0, len(parts))
	for _, p := range parts {
		lines = append(lines, astisub.Line{Items: []astisub.LineItem{{Text: p}}})
	}
	return lines
}
