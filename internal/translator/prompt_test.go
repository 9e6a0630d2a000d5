package translator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt_Layout(t *testing.T) {
	t.Parallel()

	batch := Batch{Items: []Item{
		{Token: "AAA111", Pos: 0, Text: "Hello"},
		{Token: "BBB222", Pos: 1, Text: "World"},
	}}

	body := buildPrompt("Translate into {language}.\n\n{payload}", "French", batch)

	assert.True(t, strings.HasPrefix(body, "Translate into French."))
	assert.Contains(t, body, "<AAA111>\nHello\n<000000>\n<BBB222>\nWorld")
	assert.NotContains(t, body, LanguagePlaceholder)
	assert.NotContains(t, body, PayloadPlaceholder)
}

func TestBuildPrompt_SubstitutesEveryLanguageOccurrence(t *testing.T) {
	t.Parallel()

	batch := Batch{Items: []Item{{Token: "AAA111", Text: "Hi"}}}

	body := buildPrompt("{language} then {language}: {payload}", "German", batch)

	assert.Equal(t, 2, strings.Count(body, "German"))
	assert.NotContains(t, body, LanguagePlaceholder)
}

func TestBuildPrompt_FlattensInlineBreaks(t *testing.T) {
	t.Parallel()

	batch := Batch{Items: []Item{{Token: "AAA111", Text: "Hello\nthere"}}}

	body := buildPrompt("{language}: {payload}", "French", batch)

	assert.Contains(t, body, `Hello\Nthere`)
	assert.NotContains(t, body, "Hello\nthere")
}

func TestRestoreText_InvertsFlattenText(t *testing.T) {
	t.Parallel()

	original := "first\nsecond\nthird"
	assert.Equal(t, original, restoreText(flattenText(original)))
}

func TestDefaultPromptTemplate_IsValid(t *testing.T) {
	t.Parallel()

	s := Settings{
		BatchSize:      10,
		TargetLanguage: "French",
		PromptTemplate: DefaultPromptTemplate,
	}
	require.NoError(t, s.Validate())
}

func TestSettings_Validate(t *testing.T) {
	t.Parallel()

	valid := Settings{
		BatchSize:      1,
		TargetLanguage: "French",
		PromptTemplate: "into {language}: {payload}",
	}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Settings) {},
		},
		{
			name:    "zero batch size",
			mutate:  func(s *Settings) { s.BatchSize = 0 },
			wantErr: "batch size",
		},
		{
			name:    "negative batch size",
			mutate:  func(s *Settings) { s.BatchSize = -3 },
			wantErr: "batch size",
		},
		{
			name:    "blank language",
			mutate:  func(s *Settings) { s.TargetLanguage = "  " },
			wantErr: "target language",
		},
		{
			name:    "missing language placeholder",
			mutate:  func(s *Settings) { s.PromptTemplate = "translate: {payload}" },
			wantErr: "{language}",
		},
		{
			name:    "missing payload placeholder",
			mutate:  func(s *Settings) { s.PromptTemplate = "into {language}:" },
			wantErr: "{payload}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := valid
			tt.mutate(&s)

			err := s.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
