package subtitle

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/asticode/go-astisub"
)

// FormatForPath maps a file extension to its subtitle format name.
// Unsupported extensions are a validation error surfaced before any
// translation work starts.
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return "srt", nil
	case ".vtt":
		return "webvtt", nil
	case ".ssa":
		return "ssa", nil
	case ".ass":
		return "ass", nil
	default:
		return "", fmt.Errorf("unsupported subtitle format: %s", path)
	}
}

// DefaultReader is the default subtitle file reader
type DefaultReader struct{}

// NewReader creates a new subtitle file reader
func NewReader() Reader {
	return &DefaultReader{}
}

// Read parses a subtitle file into an ordered cue sequence. The parsed
// document is retained on the returned File for later serialization.
func (r *DefaultReader) Read(path string) (*File, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("subtitle file does not exist: %s", path)
	}

	doc, err := astisub.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subtitle file: %w", err)
	}

	return newFile(path, format, doc), nil
}

// ReadBytes parses in-memory subtitle data. The path is only used to pick
// the format and to label the resulting File.
func ReadBytes(data []byte, path string) (*File, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	var doc *astisub.Subtitles
	switch format {
	case "srt":
		doc, err = astisub.ReadFromSRT(bytes.NewReader(data))
	case "webvtt":
		doc, err = astisub.ReadFromWebVTT(bytes.NewReader(data))
	case "ssa", "ass":
		doc, err = astisub.ReadFromSSA(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse subtitle data: %w", err)
	}

	return newFile(path, format, doc), nil
}

// newFile maps document items onto cues. Structural information such as
// styles, regions and metadata stays on the retained document; items
// without text become empty dialogue cues and pass through untranslated.
func newFile(path, format string, doc *astisub.Subtitles) *File {
	cues := make([]Cue, 0, len(doc.Items))
	for i, item := range doc.Items {
		cues = append(cues, Cue{
			Kind:    KindDialogue,
			Index:   i + 1,
			StartAt: item.StartAt,
			EndAt:   item.EndAt,
			Text:    itemText(item),
		})
	}

	return &File{
		Path:     path,
		Format:   format,
		Language: DetectLanguage(cues),
		Cues:     cues,
		doc:      doc,
	}
}

func itemText(item *astisub.Item) string {
	lines := make([]string, 0, len(item.Lines))
	for _, l := range item.Lines {
		lines = append(lines, l.String())
	}
	return strings.Join(lines, "\n")
}
