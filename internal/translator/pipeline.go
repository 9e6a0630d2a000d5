package translator

import (
	"context"
	"fmt"

	"github.com/aruvell/marksub/internal/correlate"
	"github.com/aruvell/marksub/internal/subtitle"
)

// Pipeline runs the batch-correlate-reassemble flow over one cue
// sequence: tag every cue with a token, plan batches, send each batch
// through the transport, recover (token, text) pairs from the reply, and
// merge them back onto the original order. A failed batch never aborts
// the run; its cues keep their original text.
type Pipeline struct {
	settings    Settings
	transport   Transport
	extractor   correlate.Extractor
	reporter    Reporter
	checkpoints CheckpointStore
	runID       string
}

// Option customizes a Pipeline beyond its required collaborators.
type Option func(*Pipeline)

// WithExtractor swaps the reply-matching rule.
func WithExtractor(e correlate.Extractor) Option {
	return func(p *Pipeline) { p.extractor = e }
}

// WithReporter injects a progress sink.
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) { p.reporter = r }
}

// WithCheckpoints persists merged batches under runID and seeds the run
// from whatever was saved there before.
func WithCheckpoints(store CheckpointStore, runID string) Option {
	return func(p *Pipeline) {
		p.checkpoints = store
		p.runID = runID
	}
}

// NewPipeline validates the settings up front; a bad configuration is
// rejected here, before any translation work begins.
func NewPipeline(settings Settings, transport Transport, opts ...Option) (*Pipeline, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid translation settings: %w", err)
	}

	p := &Pipeline{
		settings:  settings,
		transport: transport,
		extractor: correlate.NewMarkerExtractor(),
		reporter:  NopReporter{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Stats summarizes one pipeline run.
type Stats struct {
	Cues          int
	Translatable  int
	Batches       int
	BatchesFailed int
	Translated    int
	Resumed       int
}

// Run executes the pipeline over cues and returns the output sequence:
// same length, same order, translated text swapped in where a batch
// reply carried the cue's token. The error is non-nil only for
// cancellation; transport failures are contained per batch.
func (p *Pipeline) Run(ctx context.Context, cues []subtitle.Cue) ([]subtitle.Cue, Stats, error) {
	tagged := tagCues(cues)
	batches := planBatches(tagged, p.settings.BatchSize)

	stats := Stats{
		Cues:    len(cues),
		Batches: len(batches),
	}
	for _, b := range batches {
		stats.Translatable += len(b.Items)
	}

	result := make(Result)
	p.seedFromCheckpoints(ctx, batches, result, &stats)

	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		if batchComplete(batch, result) {
			continue
		}

		p.reporter.BatchStarted(batch.Index, len(batches), len(batch.Items))

		body := buildPrompt(p.settings.PromptTemplate, p.settings.TargetLanguage, batch)
		reply, err := p.transport.Translate(ctx, body)
		if err != nil {
			stats.BatchesFailed++
			p.reporter.BatchFailed(batch.Index, len(batches), err)
			continue
		}

		pairs := p.extractor.Extract(reply)
		merged := mergeBatch(result, batch, pairs)
		stats.Translated += len(merged)

		if p.checkpoints != nil && len(merged) > 0 {
			if err := p.checkpoints.Save(ctx, p.runID, merged); err != nil {
				p.reporter.CheckpointFailed(batch.Index, err)
			}
		}

		p.reporter.BatchTranslated(batch.Index, len(batches), len(merged))
	}

	return reassemble(tagged, result), stats, nil
}

// seedFromCheckpoints restores previously merged translations through the
// current position→token assignment. Load failures are fail-open: the run
// simply starts from scratch.
func (p *Pipeline) seedFromCheckpoints(ctx context.Context, batches []Batch, result Result, stats *Stats) {
	if p.checkpoints == nil {
		return
	}

	saved, err := p.checkpoints.Load(ctx, p.runID)
	if err != nil {
		p.reporter.CheckpointFailed(0, err)
		return
	}
	if len(saved) == 0 {
		return
	}

	posToken := make(map[int]correlate.Token)
	for _, batch := range batches {
		for _, item := range batch.Items {
			posToken[item.Pos] = item.Token
		}
	}

	for _, item := range saved {
		token, ok := posToken[item.Pos]
		if !ok {
			continue
		}
		result[token] = item.Text
		stats.Resumed++
	}
}

// mergeBatch folds extracted pairs into the result, keeping only tokens
// issued to this batch; markers invented by the service or echoed from
// another batch are discarded here. Returns the newly recovered items
// with positions attached and inline breaks restored.
func mergeBatch(result Result, batch Batch, pairs []correlate.Pair) []CheckpointItem {
	owned := make(map[correlate.Token]int, len(batch.Items))
	for _, item := range batch.Items {
		owned[item.Token] = item.Pos
	}

	var merged []CheckpointItem
	for _, pair := range pairs {
		pos, ok := owned[pair.Token]
		if !ok {
			continue
		}
		text := restoreText(pair.Text)
		result[pair.Token] = text
		merged = append(merged, CheckpointItem{Pos: pos, Text: text})
	}
	return merged
}

// batchComplete reports whether every item of the batch already has a
// translation, which happens when a resumed run seeded them all.
func batchComplete(batch Batch, result Result) bool {
	for _, item := range batch.Items {
		if _, ok := result[item.Token]; !ok {
			return false
		}
	}
	return true
}

// reassemble produces the output cue sequence: identical length and
// order, translated text applied where available, original text kept
// where not. Structural cues pass through verbatim and tokens are
// dropped, never leaking into output.
func reassemble(tagged []taggedCue, result Result) []subtitle.Cue {
	out := make([]subtitle.Cue, 0, len(tagged))
	for _, tc := range tagged {
		cue := tc.cue
		if cue.Translatable() {
			if text, ok := result[tc.token]; ok {
				cue.Text = text
			}
		}
		out = append(out, cue)
	}
	return out
}
