package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aruvell/marksub/internal/subtitle"
)

func dialogueCues(texts ...string) []subtitle.Cue {
	cues := make([]subtitle.Cue, 0, len(texts))
	for i, text := range texts {
		cues = append(cues, subtitle.Cue{Kind: subtitle.KindDialogue, Index: i + 1, Text: text})
	}
	return cues
}

func TestTagCues_EveryCueTagged(t *testing.T) {
	t.Parallel()

	cues := []subtitle.Cue{
		{Kind: subtitle.KindDialogue, Index: 1, Text: "Hello"},
		{Kind: subtitle.KindStructural, Index: 2, Text: "Style: Default"},
		{Kind: subtitle.KindDialogue, Index: 3, Text: ""},
	}

	tagged := tagCues(cues)
	require.Len(t, tagged, len(cues))

	for i, tc := range tagged {
		assert.Equal(t, cues[i], tc.cue)
		assert.Len(t, string(tc.token), 6)
	}
}

func TestPlanBatches_Shape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		n           int
		batchSize   int
		wantBatches int
		wantLast    int
	}{
		{name: "exact multiple", n: 6, batchSize: 3, wantBatches: 2, wantLast: 3},
		{name: "remainder", n: 7, batchSize: 3, wantBatches: 3, wantLast: 1},
		{name: "single batch", n: 2, batchSize: 50, wantBatches: 1, wantLast: 2},
		{name: "size one", n: 3, batchSize: 1, wantBatches: 3, wantLast: 1},
		{name: "empty input", n: 0, batchSize: 3, wantBatches: 0, wantLast: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			texts := make([]string, tt.n)
			for i := range texts {
				texts[i] = "line"
			}
			batches := planBatches(tagCues(dialogueCues(texts...)), tt.batchSize)

			require.Len(t, batches, tt.wantBatches)
			for i, b := range batches {
				assert.Equal(t, i, b.Index)
				if i < len(batches)-1 {
					assert.Len(t, b.Items, tt.batchSize, "every batch but the last must be full")
				} else {
					assert.Len(t, b.Items, tt.wantLast)
				}
			}
		})
	}
}

func TestPlanBatches_PreservesOrder(t *testing.T) {
	t.Parallel()

	cues := dialogueCues("one", "two", "three", "four", "five")
	batches := planBatches(tagCues(cues), 2)

	var flattened []string
	var positions []int
	for _, b := range batches {
		for _, item := range b.Items {
			flattened = append(flattened, item.Text)
			positions = append(positions, item.Pos)
		}
	}

	assert.Equal(t, []string{"one", "two", "three", "four", "five"}, flattened)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, positions)
}

func TestPlanBatches_SkipsUntranslatable(t *testing.T) {
	t.Parallel()

	cues := []subtitle.Cue{
		{Kind: subtitle.KindDialogue, Index: 1, Text: "Hello"},
		{Kind: subtitle.KindDialogue, Index: 2, Text: ""},
		{Kind: subtitle.KindStructural, Index: 3, Text: "Style: Default"},
		{Kind: subtitle.KindDialogue, Index: 4, Text: "   "},
		{Kind: subtitle.KindDialogue, Index: 5, Text: "World"},
	}

	batches := planBatches(tagCues(cues), 10)
	require.Len(t, batches, 1)
	require.Len(t, batches[0].Items, 2)
	assert.Equal(t, "Hello", batches[0].Items[0].Text)
	assert.Equal(t, "World", batches[0].Items[1].Text)
	assert.Equal(t, 0, batches[0].Items[0].Pos)
	assert.Equal(t, 1, batches[0].Items[1].Pos)
}
