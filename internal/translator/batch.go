package translator

import (
	"github.com/aruvell/marksub/internal/correlate"
	"github.com/aruvell/marksub/internal/subtitle"
)

// Item is one batch entry: the token under which the text travels and
// the position of its cue in the translatable sequence.
type Item struct {
	Token correlate.Token
	Pos   int
	Text  string
}

// Batch is one bounded, ordered group of items sent in a single request.
// Batches form an explicit ordered task list consumed one at a time.
type Batch struct {
	Index int
	Items []Item
}

// taggedCue pairs a cue with the correlation token assigned for this run.
type taggedCue struct {
	cue   subtitle.Cue
	token correlate.Token
}

// tagCues attaches a fresh random token to every cue, including
// structural and empty ones, which keeps downstream indexing uniform.
// Only translatable cues are ever scheduled for translation.
func tagCues(cues []subtitle.Cue) []taggedCue {
	tagged := make([]taggedCue, 0, len(cues))
	for _, cue := range cues {
		tagged = append(tagged, taggedCue{cue: cue, token: correlate.NewToken()})
	}
	return tagged
}

// planBatches slices the translatable items into contiguous batches of at
// most batchSize, preserving the original cue order both across and
// within batches. Cues without text are never batched.
func planBatches(tagged []taggedCue, batchSize int) []Batch {
	var items []Item
	for _, tc := range tagged {
		if !tc.cue.Translatable() {
			continue
		}
		items = append(items, Item{
			Token: tc.token,
			Pos:   len(items),
			Text:  tc.cue.Text,
		})
	}

	var batches []Batch
	for start := 0; start < len(items); start += batchSize {
		end := min(start+batchSize, len(items))
		batches = append(batches, Batch{
			Index: len(batches),
			Items: items[start:end],
		})
	}
	return batches
}
