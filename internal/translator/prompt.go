package translator

import (
	"strings"

	"github.com/aruvell/marksub/internal/correlate"
)

// Placeholders the prompt template must carry. The language placeholder
// may appear any number of times; every occurrence is substituted.
const (
	LanguagePlaceholder = "{language}"
	PayloadPlaceholder  = "{payload}"
)

// inlineBreak stands in for newlines inside a single cue's text while it
// travels through the service, mirroring the ASS soft-break notation, so
// that one item always occupies one reply line.
const inlineBreak = `\N`

// DefaultPromptTemplate is the instruction text used when configuration
// does not override it.
const DefaultPromptTemplate = `You are a professional subtitle translator. Translate every item below into {language}.

=== INPUT FORMAT ===
Each item starts with a marker line such as <ABC123>. The text to translate follows on the next line. Items are separated by the reserved marker <000000>.

=== OUTPUT FORMAT ===
For every item, echo its marker line exactly as given, then write the translated text on the next line. Keep the <000000> separator between items. Do not add explanations, notes, or any other text.

=== TRANSLATION GUIDELINES ===
1. Translate into natural {language} while preserving meaning and tone.
2. Keep subtitle length appropriate for screen reading.
3. Leave \N sequences inside the text exactly where they are.
4. Never translate, alter, or drop marker lines.

{payload}`

// buildPrompt renders one batch into a single free-text request body:
// the template with every language placeholder substituted and the
// payload placeholder replaced by the marker-wrapped items.
func buildPrompt(template, targetLanguage string, batch Batch) string {
	var payload strings.Builder
	for i, item := range batch.Items {
		if i > 0 {
			payload.WriteString("\n")
			payload.WriteString(correlate.Sentinel.Marker())
			payload.WriteString("\n")
		}
		payload.WriteString(item.Token.Marker())
		payload.WriteString("\n")
		payload.WriteString(flattenText(item.Text))
	}

	body := strings.ReplaceAll(template, LanguagePlaceholder, targetLanguage)
	return strings.ReplaceAll(body, PayloadPlaceholder, payload.String())
}

// flattenText folds a cue's internal line breaks into inlineBreak so the
// item occupies exactly one line of the payload.
func flattenText(text string) string {
	return strings.ReplaceAll(text, "\n", inlineBreak)
}

// restoreText undoes flattenText on recovered translations.
func restoreText(text string) string {
	return strings.ReplaceAll(text, inlineBreak, "\n")
}
