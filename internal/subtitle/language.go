package subtitle

import (
	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// DetectLanguage guesses the dominant language of the cue sequence by
// majority vote over per-cue detection.
func DetectLanguage(cues []Cue) language.Tag {
	counts := make(map[string]int)

	for _, cue := range cues {
		if !cue.Translatable() {
			continue
		}
		lang := whatlanggo.DetectLang(cue.Text).Iso6391()
		counts[lang]++
	}

	if len(counts) == 0 {
		return language.Und
	}

	var topLang string
	var topCount int
	for lang, count := range counts {
		if count > topCount {
			topLang = lang
			topCount = count
		}
	}

	return language.All.Make(topLang)
}
