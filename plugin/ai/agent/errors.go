package agent

import (
	"errors"

	"github.com/shvkateryna/internship/plugin/ai/lang"
)

var (
	// ErrEmptyInput is returned for a blank user message.
	ErrEmptyInput = errors.New("empty input")
	// ErrAborted is returned when the caller cancels a turn before its
	// messages are persisted. Nothing is written in that case.
	ErrAborted = errors.New("turn aborted before persisting")
)

// Replies used when a turn cannot be answered normally.
const (
	ApologyEnglish   = "Sorry, something went wrong. Please try again a bit later."
	ApologyUkrainian = "Вибачте, щось пішло не так. Спробуйте, будь ласка, трохи пізніше."

	MemoryUnavailableEnglish   = "I can't access memory right now."
	MemoryUnavailableUkrainian = "Зараз я не маю доступу до пам'яті."

	offlineEnglish   = "I can help with translations and questions about me. Try asking one of those."
	offlineUkrainian = "Я можу допомогти з перекладом і питаннями про мене. Спробуйте запитати про це."
)

// Apology returns the tool failure reply in l.
func Apology(l lang.Language) string {
	return lang.Pick(l, ApologyEnglish, ApologyUkrainian)
}

// MemoryUnavailable returns the reply used when history cannot be loaded.
func MemoryUnavailable(l lang.Language) string {
	return lang.Pick(l, MemoryUnavailableEnglish, MemoryUnavailableUkrainian)
}
