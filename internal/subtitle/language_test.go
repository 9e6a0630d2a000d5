package subtitle

import (
	"testing"

	"golang.org/x/text/language"
)

func TestDetectLanguage(t *testing.T) {
	cues := []Cue{
		{Kind: KindDialogue, Text: "Hello, world!"},
		{Kind: KindDialogue, Text: "こんにちは、世界!"},
		{Kind: KindDialogue, Text: "こんにちは、世界!"},
		{Kind: KindDialogue, Text: "Привет, мир!"},
	}

	if lang := DetectLanguage(cues); lang != language.Japanese {
		t.Errorf("expected ja, got %s", lang)
	}
}

func TestDetectLanguage_NoText(t *testing.T) {
	cues := []Cue{
		{Kind: KindStructural, Text: "Style: Default"},
		{Kind: KindDialogue, Text: "   "},
	}

	if lang := DetectLanguage(cues); lang != language.Und {
		t.Errorf("expected und, got %s", lang)
	}
}
