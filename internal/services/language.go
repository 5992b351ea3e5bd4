package services

import (
	"strings"
	"unicode"

	"github.com/brookstone/whatsapp-bot/internal/models"
)

// Romanized Hindi words common in Hinglish messages.
var hinglishWords = map[string]bool{
	"kya": true, "hai": true, "kitna": true, "kitne": true, "kaise": true,
	"mujhe": true, "chahiye": true, "nahi": true, "aap": true, "kab": true,
	"kahan": true, "batao": true, "bataiye": true,
}

// DetectLanguage picks the knowledge-base language for a message. Script wins
// over vocabulary; at least two Hinglish words are needed to leave English.
func DetectLanguage(text string) models.Language {
	var gujarati, devanagari int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Gujarati, r):
			gujarati++
		case unicode.Is(unicode.Devanagari, r):
			devanagari++
		}
	}
	if gujarati > 0 && gujarati >= devanagari {
		return models.LanguageGujarati
	}
	if devanagari > 0 {
		return models.LanguageHindi
	}

	hits := 0
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if hinglishWords[word] {
			hits++
		}
	}
	if hits >= 2 {
		return models.LanguageHindi
	}
	return models.LanguageEnglish
}
