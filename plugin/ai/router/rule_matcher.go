package router

import (
	"strings"
	"unicode"

	"github.com/shvkateryna/internship/plugin/ai/agent/tools"
	"github.com/shvkateryna/internship/plugin/ai/lang"
	"github.com/shvkateryna/internship/plugin/ai/session"
)

// Acknowledgements for new personal facts.
const (
	AckEnglish   = "Got it, saved."
	AckUkrainian = "Дякую, запам'ятав."
)

// rule is one entry of the ordered rule list.
type rule interface {
	name() string
	match(in *input, history []session.Message) (Decision, bool)
}

// input is a user message pre-processed once per Decide call.
type input struct {
	raw    string
	lower  string
	tokens []string
	lang   lang.Language
}

func newInput(raw string) *input {
	lower := normalizeApostrophes(strings.ToLower(raw))
	return &input{
		raw:    raw,
		lower:  lower,
		tokens: tokenize(lower),
		lang:   lang.Detect(raw),
	}
}

var interrogatives = map[string]bool{
	"what": true, "who": true, "where": true, "when": true, "why": true, "how": true,
	"which": true, "whose": true, "do": true, "does": true, "did": true, "are": true,
	"is": true, "was": true, "were": true, "can": true, "could": true, "tell": true,
	"хто": true, "що": true, "де": true, "коли": true, "чому": true, "як": true,
	"який": true, "яка": true, "яке": true, "які": true, "скільки": true, "чи": true,
	"розкажи": true, "розкажіть": true, "звідки": true, "куди": true, "навіщо": true,
}

// isQuestion reports whether the message asks something.
func (in *input) isQuestion() bool {
	if strings.Contains(in.raw, "?") {
		return true
	}
	return len(in.tokens) > 0 && interrogatives[in.tokens[0]]
}

// vocabulary matches whole tokens, token prefixes ("улюблен*") and
// multi-word phrases.
type vocabulary struct {
	words    map[string]bool
	prefixes []string
	phrases  []string
}

func newVocabulary(entries []string) vocabulary {
	v := vocabulary{words: make(map[string]bool)}
	for _, e := range entries {
		e = normalizeApostrophes(strings.ToLower(strings.TrimSpace(e)))
		switch {
		case e == "":
		case strings.Contains(e, " "):
			v.phrases = append(v.phrases, e)
		case strings.HasSuffix(e, "*"):
			v.prefixes = append(v.prefixes, strings.TrimSuffix(e, "*"))
		default:
			v.words[e] = true
		}
	}
	return v
}

func (v vocabulary) hasWord(in *input) bool {
	for _, tok := range in.tokens {
		if v.words[tok] {
			return true
		}
		for _, p := range v.prefixes {
			if strings.HasPrefix(tok, p) {
				return true
			}
		}
	}
	return false
}

func (v vocabulary) hasPhrase(in *input) bool {
	padded := " " + strings.Join(in.tokens, " ") + " "
	for _, p := range v.phrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}

func (v vocabulary) startsWith(in *input) bool {
	if len(in.tokens) == 0 {
		return false
	}
	if v.words[in.tokens[0]] {
		return true
	}
	if len(in.tokens) > 1 {
		first := in.tokens[0] + " " + in.tokens[1]
		for _, p := range v.phrases {
			if p == first {
				return true
			}
		}
	}
	return false
}

// aboutMeRule routes biography questions to the retrieval tool.
type aboutMeRule struct {
	topics  vocabulary
	markers vocabulary
}

func newAboutMeRule(cfg RuleConfig) *aboutMeRule {
	return &aboutMeRule{
		topics:  newVocabulary(cfg.Keywords),
		markers: newVocabulary(cfg.Markers),
	}
}

func (r *aboutMeRule) name() string { return RuleAboutMe }

func (r *aboutMeRule) match(in *input, _ []session.Message) (Decision, bool) {
	if !in.isQuestion() {
		return Decision{}, false
	}
	// A multi-word topic ("about yourself", "день народження") is specific
	// enough alone; single words need a personal marker too.
	personal := r.markers.hasWord(in) || r.markers.hasPhrase(in)
	if !r.topics.hasPhrase(in) && !(personal && r.topics.hasWord(in)) {
		return Decision{}, false
	}
	return Decision{
		Kind: KindInvoke,
		Rule: RuleAboutMe,
		Tool: tools.AboutMeToolName,
		Args: map[string]string{"question": strings.TrimSpace(in.raw)},
		Lang: in.lang,
	}, true
}

// rememberRule acknowledges declarative first-person statements. The turn
// is persisted by the agent, so acknowledging is all that is left to do.
type rememberRule struct {
	triggers vocabulary
	markers  vocabulary
}

func newRememberRule(cfg RuleConfig) *rememberRule {
	return &rememberRule{
		triggers: newVocabulary(cfg.Keywords),
		markers:  newVocabulary(cfg.Markers),
	}
}

func (r *rememberRule) name() string { return RuleRemember }

func (r *rememberRule) match(in *input, _ []session.Message) (Decision, bool) {
	if in.isQuestion() || len(in.tokens) < 2 {
		return Decision{}, false
	}
	if !r.triggers.hasPhrase(in) && !r.triggers.hasWord(in) && !r.markers.startsWith(in) {
		return Decision{}, false
	}
	return Decision{
		Kind:  KindDirect,
		Rule:  RuleRemember,
		Reply: lang.Pick(in.lang, AckEnglish, AckUkrainian),
		Lang:  in.lang,
	}, true
}

// directRule always matches and leaves the reply to the agent.
type directRule struct{}

func (directRule) name() string { return RuleDirect }

func (directRule) match(in *input, _ []session.Message) (Decision, bool) {
	return Decision{Kind: KindDirect, Rule: RuleDirect, Lang: in.lang}, true
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	tokens := fields[:0]
	for _, f := range fields {
		if f = strings.Trim(f, "'"); f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func normalizeApostrophes(s string) string {
	return strings.NewReplacer("’", "'", "ʼ", "'", "`", "'").Replace(s)
}
