// Package lang detects the reply language of a user message.
package lang

import "unicode"

// Language is a reply language code.
type Language string

const (
	English   Language = "en"
	Ukrainian Language = "uk"
)

// Detect returns Ukrainian when text contains any Cyrillic letter, English otherwise.
func Detect(text string) Language {
	for _, r := range text {
		if unicode.Is(unicode.Cyrillic, r) {
			return Ukrainian
		}
	}
	return English
}

// Pick returns uk for Ukrainian and en for every other language.
func Pick(l Language, en, uk string) string {
	if l == Ukrainian {
		return uk
	}
	return en
}

// Name returns the language name used in prompts.
func (l Language) Name() string {
	return Pick(l, "English", "Ukrainian")
}
