package subtitle

import (
	"strings"
	"time"

	"github.com/asticode/go-astisub"
	"golang.org/x/text/language"
)

// Reader is the interface for reading subtitle files
type Reader interface {
	Read(path string) (*File, error)
}

// Writer is the interface for writing subtitle files
type Writer interface {
	Write(path string, subtitle *File) error
}

// Kind discriminates dialogue cues from structural entries that ride
// through the pipeline untouched.
type Kind int

const (
	KindDialogue Kind = iota
	KindStructural
)

// Cue represents a single positional entry of a subtitle file. Timing is
// carried through unmodified; only Text is ever rewritten, and only for
// dialogue cues.
type Cue struct {
	Kind    Kind
	Index   int           // 1-based position in the file
	StartAt time.Duration // start time
	EndAt   time.Duration // end time
	Text    string        // cue text, lines joined with "\n"
}

// Translatable reports whether the cue is eligible for translation:
// a dialogue cue with non-blank text. Everything else passes through.
func (c Cue) Translatable() bool {
	return c.Kind == KindDialogue && strings.TrimSpace(c.Text) != ""
}

// File represents a parsed subtitle file. The source document is retained
// so translated cues can be serialized back in the original format with
// styles and metadata intact.
type File struct {
	Path     string
	Format   string // e.g. srt, webvtt, ssa, ass
	Language language.Tag
	Cues     []Cue

	doc *astisub.Subtitles
}
