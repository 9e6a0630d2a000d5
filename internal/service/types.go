package service

import (
	"time"

	"github.com/aruvell/marksub/internal/translator"
)

// RunResult summarizes one completed translation run.
type RunResult struct {
	RunID        string
	SubtitlePath string
	OutputPath   string
	Format       string

	// SourceLanguage is the language detected in the input file,
	// TargetLanguage the display name the run translated into.
	SourceLanguage string
	TargetLanguage string

	Stats     translator.Stats
	CharCount int
	Duration  time.Duration
}
