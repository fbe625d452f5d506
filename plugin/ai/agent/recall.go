package agent

import (
	"strings"
	"unicode"

	"github.com/shvkateryna/internship/plugin/ai/lang"
	"github.com/shvkateryna/internship/plugin/ai/router"
	"github.com/shvkateryna/internship/plugin/ai/session"
)

// stemRunes is how many leading runes two words must share to match, so
// "lives"/"live" and "улюблений"/"улюблена" count as the same word.
const stemRunes = 4

var firstPerson = map[string]bool{
	"i": true, "i'm": true, "im": true, "my": true, "me": true, "mine": true, "myself": true,
	"я": true, "мій": true, "моя": true, "моє": true, "мої": true, "мого": true,
	"моєї": true, "мене": true, "мені": true, "мною": true,
}

var recallStopwords = map[string]bool{
	"what": true, "who": true, "where": true, "when": true, "why": true, "how": true,
	"which": true, "whose": true, "do": true, "does": true, "did": true, "is": true,
	"are": true, "was": true, "were": true, "am": true, "be": true, "can": true,
	"could": true, "tell": true, "you": true, "your": true, "know": true, "remember": true,
	"the": true, "a": true, "an": true, "of": true, "to": true, "in": true, "on": true,
	"at": true, "for": true, "and": true, "or": true, "it": true, "that": true,
	"this": true, "please": true, "have": true, "has": true, "about": true,
	"що": true, "хто": true, "де": true, "коли": true, "чому": true, "як": true,
	"який": true, "яка": true, "яке": true, "які": true, "скільки": true, "чи": true,
	"розкажи": true, "ти": true, "ви": true, "тебе": true, "тобі": true, "знаєш": true,
	"пам'ятаєш": true, "у": true, "в": true, "на": true, "з": true, "і": true,
	"та": true, "це": true, "є": true,
}

// recallFact answers a question about the user from facts they stated
// earlier in the session. A fact is a user message the remember rule
// acknowledged. The fact must cover the question's content words; ties go
// to the most recent fact.
func recallFact(question string, history []session.Message, l lang.Language) (string, bool) {
	qTokens := recallTokens(question)
	if !hasFirstPerson(qTokens) {
		return "", false
	}
	qStems := contentStems(qTokens)
	if len(qStems) == 0 {
		return "", false
	}
	required := len(qStems)
	if required > 2 {
		required = (2*len(qStems) + 2) / 3
	}

	best, bestScore := "", 0
	for i := len(history) - 2; i >= 0; i-- {
		if !isAcknowledgedFact(history[i], history[i+1]) {
			continue
		}
		fact := strings.TrimSpace(history[i].Content)
		factStems := contentStems(recallTokens(fact))
		score := 0
		for stem := range qStems {
			if factStems[stem] {
				score++
			}
		}
		if score >= required && score > bestScore {
			best, bestScore = fact, score
		}
	}
	if best == "" {
		return "", false
	}
	return lang.Pick(l, `You told me: "`+best+`"`, "Ви казали мені: «"+best+"»"), true
}

func isAcknowledgedFact(msg, reply session.Message) bool {
	if msg.Role != session.RoleUser || reply.Role != session.RoleAssistant {
		return false
	}
	return reply.Content == router.AckEnglish || reply.Content == router.AckUkrainian
}

func hasFirstPerson(tokens []string) bool {
	for _, t := range tokens {
		if firstPerson[t] {
			return true
		}
	}
	return false
}

func contentStems(tokens []string) map[string]bool {
	stems := make(map[string]bool)
	for _, t := range tokens {
		if firstPerson[t] || recallStopwords[t] {
			continue
		}
		runes := []rune(t)
		if len(runes) > stemRunes {
			runes = runes[:stemRunes]
		}
		stems[string(runes)] = true
	}
	return stems
}

func recallTokens(s string) []string {
	s = strings.NewReplacer("’", "'", "ʼ", "'", "`", "'").Replace(strings.ToLower(s))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	tokens := fields[:0]
	for _, f := range fields {
		f = strings.TrimSuffix(strings.Trim(f, "'"), "'s")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
