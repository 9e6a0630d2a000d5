package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("sub"), 0o644))
	}
}

func TestScanner_EmitsCandidatesForUntranslatedSubtitles(t *testing.T) {
	tmp := t.TempDir()
	showDir := filepath.Join(tmp, "shows", "Anime")
	writeFiles(t, showDir,
		"ep01.en.srt",
		"ep02.en.srt",
		"ep02.zh.srt",
		"ep03.srt",
	)

	scanner := NewScanner([]string{filepath.Join(tmp, "shows")}, language.Chinese)

	listing, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, listing.Roots, 1)
	assert.Equal(t, 4, listing.Roots[0].SubtitleCount)
	assert.Equal(t, 2, listing.Roots[0].CandidateCount)

	require.Len(t, listing.Candidates, 2)

	first := listing.Candidates[0]
	assert.Equal(t, filepath.Join(showDir, "ep01.en.srt"), first.SubtitlePath)
	assert.Equal(t, filepath.Join(showDir, "ep01.zh.srt"), first.OutputPath)
	assert.Equal(t, "en", first.Language)
	assert.Equal(t, first.SubtitlePath+"|"+first.OutputPath, first.DedupeKey())

	second := listing.Candidates[1]
	assert.Equal(t, filepath.Join(showDir, "ep03.srt"), second.SubtitlePath)
	assert.Equal(t, filepath.Join(showDir, "ep03.zh.srt"), second.OutputPath)
	assert.Equal(t, "", second.Language)
}

func TestScanner_TargetAliasSuppressesCandidate(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "movies")
	// chs is a common token for Simplified Chinese subtitles.
	writeFiles(t, dir, "movie.eng.srt", "movie.chs.srt")

	scanner := NewScanner([]string{dir}, language.Chinese)

	listing, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listing.Candidates)
	require.Len(t, listing.Roots, 1)
	assert.Equal(t, 2, listing.Roots[0].SubtitleCount)
}

func TestScanner_TargetSiblingInAnotherFormatCounts(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "movies")
	writeFiles(t, dir, "movie.en.srt", "movie.zh.ass")

	scanner := NewScanner([]string{dir}, language.Chinese)

	listing, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listing.Candidates)
}

func TestScanner_SkipsFormatsTheReaderCannotParse(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "movies")
	writeFiles(t, dir, "movie.en.sup", "notes.txt")

	scanner := NewScanner([]string{dir}, language.Chinese)

	listing, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listing.Candidates)
	require.Len(t, listing.Roots, 1)
	assert.Equal(t, 2, listing.Roots[0].SubtitleCount)
}

func TestScanner_SkipsMissingRoots(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "present")
	writeFiles(t, dir, "ep1.en.srt")

	scanner := NewScanner(
		[]string{filepath.Join(tmp, "absent"), dir},
		language.Chinese,
	)

	listing, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, listing.Roots, 1)
	assert.Equal(t, dir, listing.Roots[0].Path)
	assert.Len(t, listing.Candidates, 1)
}

func TestScanner_ScanUsesCacheUntilInvalidate(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "shows")
	writeFiles(t, dir, "ep01.en.srt")

	scanner := NewScanner([]string{dir}, language.Chinese, WithCacheTTL(time.Minute))

	listing, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, listing.Candidates, 1)

	// A file added after the first scan is invisible until the cache drops.
	writeFiles(t, dir, "ep02.en.srt")

	listing, err = scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, listing.Candidates, 1)

	scanner.Invalidate()

	listing, err = scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, listing.Candidates, 2)
}

func TestScanner_UpdateTargetLanguageTakesEffectImmediately(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "shows")
	writeFiles(t, dir, "ep01.eng.srt")

	scanner := NewScanner([]string{dir}, language.Chinese, WithCacheTTL(time.Minute))

	listing, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, listing.Candidates, 1)
	assert.Equal(t, "zh", scanner.TargetLanguage())

	require.NoError(t, scanner.UpdateTargetLanguage("en"))
	assert.Equal(t, "en", scanner.TargetLanguage())

	listing, err = scanner.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listing.Candidates)
}

func TestScanner_ScanStopsOnCancelledContext(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "shows")
	writeFiles(t, dir, "ep01.en.srt")

	scanner := NewScanner([]string{dir}, language.Chinese)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scanner.Scan(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSplitLanguageToken(t *testing.T) {
	tests := []struct {
		stem      string
		wantBase  string
		wantToken string
	}{
		{"show.en", "show", "en"},
		{"show.eng", "show", "eng"},
		{"movie.chs", "movie", "chs"},
		{"show_fr", "show", "fr"},
		{"show", "show", ""},
		{"Show - S01E01", "Show - S01E01", ""},
		{"ep01_forced", "ep01_forced", ""},
		{"Movie.2024.1080p", "Movie.2024.1080p", ""},
	}
	for _, tt := range tests {
		t.Run(tt.stem, func(t *testing.T) {
			base, token := splitLanguageToken(tt.stem)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestNormalizeLangCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"en", "en"},
		{"eng", "en"},
		{"fre", "fr"},
		{"fra", "fr"},
		{"chi", "zh"},
		{"zh", "zh"},
		{"ja", "ja"},
		{"jpn", "ja"},
		{"ko", "ko"},
		{"forced", ""},
		{"sdh", "sdh"}, // ISO 639-3 Shehri, a valid language code
		{"default", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeLangCode(tt.input))
		})
	}
}

func TestIsTargetLanguage(t *testing.T) {
	tests := []struct {
		token  string
		target language.Tag
		want   bool
	}{
		{"zh", language.Chinese, true},
		{"zh-tw", language.Chinese, true},
		{"chs", language.Chinese, true},
		{"cht", language.Chinese, true},
		{"chi", language.Chinese, true},
		{"en", language.Chinese, false},
		{"eng", language.English, true},
		{"fra", language.French, true},
		{"jpn", language.Japanese, true},
		{"", language.Chinese, false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, isTargetLanguage(tt.token, tt.target))
		})
	}
}
