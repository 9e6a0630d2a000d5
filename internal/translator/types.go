package translator

import (
	"context"
	"fmt"
	"strings"

	"github.com/aruvell/marksub/internal/correlate"
)

// Settings holds the configuration values the pipeline consumes. They are
// assembled once by the caller and passed in explicitly; the pipeline
// never reads ambient state.
type Settings struct {
	// BatchSize caps how many items travel in one request. Must be >= 1.
	BatchSize int

	// TargetLanguage is the human-readable language name substituted into
	// the prompt template, e.g. "French" or "Simplified Chinese".
	TargetLanguage string

	// PromptTemplate is the instruction text wrapped around each batch.
	// It must contain the {language} and {payload} placeholders.
	PromptTemplate string
}

// Validate rejects unusable settings before any translation work starts.
func (s Settings) Validate() error {
	if s.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d", s.BatchSize)
	}
	if strings.TrimSpace(s.TargetLanguage) == "" {
		return fmt.Errorf("target language is required")
	}
	if !strings.Contains(s.PromptTemplate, LanguagePlaceholder) {
		return fmt.Errorf("prompt template is missing the %s placeholder", LanguagePlaceholder)
	}
	if !strings.Contains(s.PromptTemplate, PayloadPlaceholder) {
		return fmt.Errorf("prompt template is missing the %s placeholder", PayloadPlaceholder)
	}
	return nil
}

// Transport sends one rendered request body to the translation service
// and returns its raw reply. Implementations own networking, auth,
// timeouts and any retry policy; the pipeline calls Translate exactly
// once per batch and treats an error as "batch untranslated".
type Transport interface {
	Translate(ctx context.Context, requestBody string) (string, error)
}

// Result accumulates recovered translations keyed by correlation token.
// A token absent from the map means the cue keeps its original text.
type Result map[correlate.Token]string

// CheckpointItem is one recovered translation addressed by its position
// in the translatable sequence. Positions are stable across runs while
// tokens are regenerated, so resuming goes through positions.
type CheckpointItem struct {
	Pos  int
	Text string
}

// CheckpointStore persists merged batches so an interrupted run can be
// resumed without re-sending batches that already completed. Stores must
// upsert by (run, position).
type CheckpointStore interface {
	Load(ctx context.Context, runID string) ([]CheckpointItem, error)
	Save(ctx context.Context, runID string, items []CheckpointItem) error
}
