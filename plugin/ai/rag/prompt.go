package rag

import (
	"strings"

	"github.com/shvkateryna/internship/plugin/ai"
	"github.com/shvkateryna/internship/plugin/ai/lang"
)

const (
	// NoDataEnglish is returned verbatim when the corpus has no answer.
	NoDataEnglish = "No data available."
	// NoDataUkrainian is the Ukrainian sentinel.
	NoDataUkrainian = "Немає даних."
)

const systemPromptTemplate = `You are a RAG assistant. Answer strictly and only from the provided CONTEXT.
If the answer is not present in the context, reply exactly: {no_data}
Always respond in {target_lang}. Do not use any other language.`

// NoData returns the sentinel answer for l.
func NoData(l lang.Language) string {
	return lang.Pick(l, NoDataEnglish, NoDataUkrainian)
}

// IsNoData reports whether answer is one of the sentinels.
func IsNoData(answer string) bool {
	return answer == NoDataEnglish || answer == NoDataUkrainian
}

func buildPrompt(question, context string, l lang.Language) []ai.Message {
	system := strings.NewReplacer(
		"{no_data}", NoData(l),
		"{target_lang}", l.Name(),
	).Replace(systemPromptTemplate)

	return []ai.Message{
		ai.SystemPrompt(system),
		ai.UserMessage(question),
		ai.SystemPrompt("CONTEXT:\n" + context),
	}
}

// normalizeAnswer collapses empty answers and answers that mention either
// sentinel into the exact sentinel for l.
func normalizeAnswer(answer string, l lang.Language) string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return NoData(l)
	}
	if strings.Contains(answer, NoDataEnglish) ||
		strings.Contains(answer, strings.TrimSuffix(NoDataEnglish, ".")) ||
		strings.Contains(answer, strings.TrimSuffix(NoDataUkrainian, ".")) {
		return NoData(l)
	}
	return answer
}
