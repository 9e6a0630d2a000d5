package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aruvell/marksub/internal/subtitle"
	"github.com/aruvell/marksub/internal/translator"
)

// FileTranslator drives one subtitle file through the translation
// pipeline: read, translate batch by batch, write the result. A single
// instance is safe per run; the service assembles a fresh one per job
// so settings changes apply to every job that starts after them.
type FileTranslator struct {
	settings    translator.Settings
	transport   translator.Transport
	checkpoints translator.CheckpointStore

	reader subtitle.Reader
	writer subtitle.Writer
	sink   EventSink
}

type TranslatorOption func(*FileTranslator)

// WithCheckpointStore lets interrupted runs resume: merged batches are
// persisted under the run ID and restored on the next attempt.
func WithCheckpointStore(store translator.CheckpointStore) TranslatorOption {
	return func(t *FileTranslator) { t.checkpoints = store }
}

// WithEventSink publishes run progress to sink.
func WithEventSink(sink EventSink) TranslatorOption {
	return func(t *FileTranslator) {
		if sink != nil {
			t.sink = sink
		}
	}
}

// NewFileTranslator validates the settings up front so a bad
// configuration surfaces before any file is touched.
func NewFileTranslator(settings translator.Settings, transport translator.Transport, opts ...TranslatorOption) (*FileTranslator, error) {
	if transport == nil {
		return nil, NewError(ErrValidation, "transport is required")
	}
	if err := settings.Validate(); err != nil {
		return nil, WrapError(err, ErrConfig, "invalid translation settings")
	}

	t := &FileTranslator{
		settings:  settings,
		transport: transport,
		reader:    subtitle.NewReader(),
		writer:    subtitle.NewWriter(),
		sink:      NopSink{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Translate runs one subtitle file through the pipeline under runID and
// writes the output. Batch failures are contained by the pipeline, so
// the returned error only covers structural problems: unreadable input,
// cancellation, or a failed write.
func (t *FileTranslator) Translate(ctx context.Context, runID, subtitlePath, outputPath string) (*RunResult, error) {
	started := time.Now()

	file, err := t.reader.Read(subtitlePath)
	if err != nil {
		return nil, WrapError(err, ErrFileRead, "failed to read subtitle file").WithContext("path", subtitlePath)
	}
	charCount := countCharacters(file.Cues)

	t.sink.Publish(RunEvent{Type: EventRunStarted, RunID: runID, Path: subtitlePath, Items: len(file.Cues), Time: time.Now()})

	opts := []translator.Option{
		translator.WithReporter(multiReporter{
			translator.LogReporter{},
			sinkReporter{sink: t.sink, runID: runID, path: subtitlePath},
		}),
	}
	if t.checkpoints != nil {
		opts = append(opts, translator.WithCheckpoints(t.checkpoints, runID))
	}

	pipeline, err := translator.NewPipeline(t.settings, t.transport, opts...)
	if err != nil {
		return nil, WrapError(err, ErrConfig, "failed to assemble pipeline")
	}

	cues, stats, err := pipeline.Run(ctx, file.Cues)
	if err != nil {
		t.fail(runID, subtitlePath, err)
		return nil, WrapError(err, ErrTranslation, "translation run interrupted").WithContext("path", subtitlePath)
	}

	file.Cues = cues
	if err := t.writer.Write(outputPath, file); err != nil {
		t.fail(runID, subtitlePath, err)
		return nil, WrapError(err, ErrFileWrite, "failed to write translated subtitle").WithContext("path", outputPath)
	}

	result := &RunResult{
		RunID:          runID,
		SubtitlePath:   subtitlePath,
		OutputPath:     outputPath,
		Format:         file.Format,
		SourceLanguage: file.Language.String(),
		TargetLanguage: t.settings.TargetLanguage,
		Stats:          stats,
		CharCount:      charCount,
		Duration:       time.Since(started),
	}

	t.sink.Publish(RunEvent{
		Type:    EventRunFinished,
		RunID:   runID,
		Path:    subtitlePath,
		Batches: stats.Batches,
		Items:   stats.Translated + stats.Resumed,
		Time:    time.Now(),
	})
	return result, nil
}

func (t *FileTranslator) fail(runID, path string, err error) {
	t.sink.Publish(RunEvent{Type: EventRunFailed, RunID: runID, Path: path, Error: err.Error(), Time: time.Now()})
}

// PrintRunReport prints a human-readable summary of a finished run.
func PrintRunReport(result *RunResult) {
	fmt.Println("=== Translation Report ===")
	fmt.Printf("File: %s\n", result.SubtitlePath)
	fmt.Printf("Output: %s\n", result.OutputPath)
	fmt.Printf("Source Language: %s\n", result.SourceLanguage)
	fmt.Printf("Target Language: %s\n", result.TargetLanguage)
	fmt.Printf("Cues: %d (%d translatable, %d characters)\n", result.Stats.Cues, result.Stats.Translatable, result.CharCount)
	fmt.Printf("Batches: %d (%d failed)\n", result.Stats.Batches, result.Stats.BatchesFailed)
	fmt.Printf("Translated: %d (%d restored from checkpoints)\n", result.Stats.Translated, result.Stats.Resumed)
	fmt.Printf("Duration: %v\n", result.Duration)
}

// countCharacters totals the text length of every cue.
func countCharacters(cues []subtitle.Cue) int {
	total := 0
	for _, cue := range cues {
		total += len(cue.Text)
	}
	return total
}
