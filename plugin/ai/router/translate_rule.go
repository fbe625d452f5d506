package router

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shvkateryna/internship/plugin/ai/agent/tools"
	"github.com/shvkateryna/internship/plugin/ai/lang"
	"github.com/shvkateryna/internship/plugin/ai/session"
)

var (
	// A target is any word after to/into/in; see acceptLatinTarget.
	latinTarget = regexp.MustCompile(`(?i)\b(to|into|in)\s+([a-z]+)\b`)
	// "на японську", "японською". Stems end in -ськ, -цьк or -зьк.
	cyrTarget = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:на\s+(\p{L}+(?:ськ|цьк|зьк))\p{L}*|(\p{L}+(?:ськ|цьк|зьк))ою)(?:$|[^\p{L}])`)

	// Endings of language names missing from latinLanguages. Capitalised
	// words may use the wider set ("Aramaic", "Frisian").
	languageShaped  = regexp.MustCompile(`(?i)(?:ese|ian)$`)
	properLanguage  = regexp.MustCompile(`(?:ese|ian|ish|ic|ch|ek|ew)$`)
	targetFollowers = regexp.MustCompile(`(?i)^(?:\s*$|\s*[:;,.!?)]|\s+please\b|\s+pls\b)`)

	quotePatterns = []*regexp.Regexp{
		regexp.MustCompile(`"([^"]+)"`),
		regexp.MustCompile(`«([^»]+)»`),
		regexp.MustCompile(`“([^”]+)”`),
		regexp.MustCompile(`„([^“”]+)[“”]`),
		// Single quotes only around whole words, so apostrophes inside
		// words ("don't", "запам'ятай") are not mistaken for quotes.
		regexp.MustCompile(`(?:^|[\s:(])'([^']+)'(?:$|[\s.,!?:;)])`),
	}

	leadingFiller = regexp.MustCompile(`(?i)^(?:please|pls|будь ласка|this:|це:)[\s,:]*`)

	// latinLanguages normalises language names and common aliases.
	latinLanguages = map[string]string{
		"english": "English", "ukrainian": "Ukrainian", "german": "German",
		"french": "French", "spanish": "Spanish", "polish": "Polish",
		"italian": "Italian", "portuguese": "Portuguese", "japanese": "Japanese",
		"chinese": "Chinese", "mandarin": "Chinese", "cantonese": "Cantonese",
		"korean": "Korean", "dutch": "Dutch", "flemish": "Dutch", "czech": "Czech",
		"slovak": "Slovak", "slovenian": "Slovenian", "croatian": "Croatian",
		"serbian": "Serbian", "bosnian": "Bosnian", "bulgarian": "Bulgarian",
		"macedonian": "Macedonian", "romanian": "Romanian", "hungarian": "Hungarian",
		"russian": "Russian", "belarusian": "Belarusian", "lithuanian": "Lithuanian",
		"latvian": "Latvian", "estonian": "Estonian", "finnish": "Finnish",
		"swedish": "Swedish", "norwegian": "Norwegian", "danish": "Danish",
		"icelandic": "Icelandic", "irish": "Irish", "welsh": "Welsh",
		"catalan": "Catalan", "basque": "Basque", "greek": "Greek",
		"turkish": "Turkish", "arabic": "Arabic", "hebrew": "Hebrew",
		"yiddish": "Yiddish", "persian": "Persian", "farsi": "Persian",
		"hindi": "Hindi", "urdu": "Urdu", "bengali": "Bengali", "tamil": "Tamil",
		"thai": "Thai", "vietnamese": "Vietnamese", "indonesian": "Indonesian",
		"malay": "Malay", "tagalog": "Tagalog", "swahili": "Swahili",
		"afrikaans": "Afrikaans", "georgian": "Georgian", "armenian": "Armenian",
		"azerbaijani": "Azerbaijani", "kazakh": "Kazakh", "uzbek": "Uzbek",
		"mongolian": "Mongolian", "albanian": "Albanian", "maltese": "Maltese",
		"latin": "Latin", "esperanto": "Esperanto",
	}

	// cyrLanguages maps adjective stems to language names.
	cyrLanguages = map[string]string{
		"англійськ":    "English",
		"українськ":    "Ukrainian",
		"німецьк":      "German",
		"французьк":    "French",
		"іспанськ":     "Spanish",
		"польськ":      "Polish",
		"італійськ":    "Italian",
		"португальськ": "Portuguese",
		"японськ":      "Japanese",
		"китайськ":     "Chinese",
		"корейськ":     "Korean",
		"нідерландськ": "Dutch",
		"голландськ":   "Dutch",
		"чеськ":        "Czech",
		"словацьк":     "Slovak",
		"турецьк":      "Turkish",
		"грецьк":       "Greek",
		"арабськ":      "Arabic",
		"шведськ":      "Swedish",
		"норвезьк":     "Norwegian",
		"данськ":       "Danish",
		"фінськ":       "Finnish",
		"естонськ":     "Estonian",
		"литовськ":     "Lithuanian",
		"латиськ":      "Latvian",
		"угорськ":      "Hungarian",
		"румунськ":     "Romanian",
		"болгарськ":    "Bulgarian",
		"грузинськ":    "Georgian",
		"російськ":     "Russian",
		"білоруськ":    "Belarusian",
	}

	// Short words that can follow "to" but never name a language.
	notLanguages = map[string]bool{
		"me": true, "you": true, "him": true, "her": true, "us": true, "them": true,
		"it": true, "this": true, "that": true, "the": true, "a": true, "an": true,
		"my": true, "your": true, "our": true, "their": true, "his": true, "its": true,
	}

	// Payloads that point back at the previous reply.
	anaphora = map[string]bool{
		"that": true, "it": true, "this": true, "the above": true,
		"це": true, "то": true, "його": true, "її": true,
	}
)

// translateRule routes explicit translation requests to the translate tool.
// It has the highest priority: a keyword anywhere in the message wins.
type translateRule struct {
	keywords []keyword
	exclude  []string
}

type keyword struct {
	re *regexp.Regexp
	// prefix keywords ("укр:", "to ukrainian:") fix the target to Ukrainian.
	prefix bool
}

func newTranslateRule(cfg RuleConfig) *translateRule {
	r := &translateRule{}
	for _, kw := range cfg.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		r.keywords = append(r.keywords, keyword{
			re:     compileKeyword(kw),
			prefix: strings.HasSuffix(kw, ":"),
		})
	}
	for _, ex := range cfg.Exclude {
		r.exclude = append(r.exclude, strings.ToLower(ex))
	}
	return r
}

func (r *translateRule) name() string { return RuleTranslate }

func (r *translateRule) match(in *input, history []session.Message) (Decision, bool) {
	kw, loc := r.find(in.raw)
	if loc == nil {
		return Decision{}, false
	}

	var target, phrase string
	if kw.prefix {
		target = tools.DefaultTargetLanguage
	} else {
		target, phrase = detectTarget(in.raw)
	}

	// "What does 'serendipity' mean?" asks for an explanation, not a
	// translation, unless a target language is named.
	if target == "" {
		for _, ex := range r.exclude {
			if strings.Contains(in.lower, ex) {
				return Decision{}, false
			}
		}
	}

	payload := firstQuoted(in.raw)
	if payload == "" {
		payload = cleanPayload(in.raw[loc[1]:], phrase)
		if isAnaphoric(payload) {
			payload = cleanPayload(in.raw[:loc[0]], phrase)
		}
		if isAnaphoric(payload) {
			payload = lastAssistantReply(history)
		}
	}
	if payload == "" {
		return Decision{
			Kind:  KindDirect,
			Rule:  RuleTranslate,
			Reply: lang.Pick(in.lang, "What should I translate?", "Що саме перекласти?"),
			Lang:  in.lang,
		}, true
	}

	if target == "" {
		target = tools.DefaultTargetLanguage
		if lang.Detect(payload) == lang.Ukrainian {
			target = lang.English.Name()
		}
	}

	return Decision{
		Kind: KindInvoke,
		Rule: RuleTranslate,
		Tool: tools.TranslateToolName,
		Args: map[string]string{"text": payload, "target_language": target},
		Lang: in.lang,
	}, true
}

// find returns the keyword that occurs first in s, preferring the longest
// one at equal positions.
func (r *translateRule) find(s string) (keyword, []int) {
	var best keyword
	var bestLoc []int
	for _, kw := range r.keywords {
		loc := kw.re.FindStringIndex(s)
		if loc == nil {
			continue
		}
		if bestLoc == nil || loc[0] < bestLoc[0] || (loc[0] == bestLoc[0] && loc[1] > bestLoc[1]) {
			best, bestLoc = kw, loc
		}
	}
	return best, bestLoc
}

func compileKeyword(kw string) *regexp.Regexp {
	pattern := regexp.QuoteMeta(kw)
	first, last := rune(kw[0]), rune(kw[len(kw)-1])
	if first < unicode.MaxASCII && unicode.IsLetter(first) {
		pattern = `\b` + pattern
	}
	if last < unicode.MaxASCII && unicode.IsLetter(last) {
		pattern += `\b`
	}
	return regexp.MustCompile(`(?i)` + pattern)
}

// detectTarget returns the target language named outside quoted text and the
// phrase that named it ("to Japanese", "на японську"). A known language wins
// over an unknown one; among equals the first occurrence wins.
func detectTarget(s string) (string, string) {
	masked := maskQuoted(s)

	var fallback, fallbackPhrase string
	for _, m := range latinTarget.FindAllStringSubmatchIndex(masked, -1) {
		word := s[m[4]:m[5]]
		if name, ok := latinLanguages[strings.ToLower(word)]; ok {
			return name, s[m[0]:m[1]]
		}
		if fallback == "" && acceptLatinTarget(s[m[2]:m[3]], word, s[m[1]:]) {
			fallback, fallbackPhrase = word, s[m[0]:m[1]]
		}
	}
	if fallback != "" {
		return strings.ToUpper(fallback[:1]) + strings.ToLower(fallback[1:]), fallbackPhrase
	}

	for _, m := range cyrTarget.FindAllStringSubmatchIndex(masked, -1) {
		// "на <мовою>" names a target even for unknown stems; the bare
		// instrumental form ("київською") only for known ones.
		stemStart, stemEnd, explicit := m[2], m[3], true
		if stemStart < 0 {
			stemStart, stemEnd, explicit = m[4], m[5], false
		}
		stem := strings.ToLower(s[stemStart:stemEnd])
		name, ok := cyrLanguages[stem]
		if !ok {
			if !explicit {
				continue
			}
			name = stem + "а"
		}
		return name, strings.TrimFunc(s[m[0]:m[1]], func(r rune) bool { return !unicode.IsLetter(r) })
	}
	return "", ""
}

// acceptLatinTarget decides whether an unknown word after a preposition
// names a language. It must follow "to" or "into", close the clause and
// end like a language name ("Frisian", "Aramaic").
func acceptLatinTarget(prep, word, rest string) bool {
	if strings.EqualFold(prep, "in") || notLanguages[strings.ToLower(word)] {
		return false
	}
	if !targetFollowers.MatchString(rest) {
		return false
	}
	if unicode.IsUpper(rune(word[0])) {
		return properLanguage.MatchString(word)
	}
	return languageShaped.MatchString(word)
}

// maskQuoted blanks quoted spans so target detection only sees the
// instruction. Byte offsets are preserved.
func maskQuoted(s string) string {
	b := []byte(s)
	for _, re := range quotePatterns {
		for _, m := range re.FindAllStringSubmatchIndex(s, -1) {
			for i := m[2]; i < m[3]; i++ {
				b[i] = ' '
			}
		}
	}
	return string(b)
}

// firstQuoted returns the earliest quoted span of s, verbatim.
func firstQuoted(s string) string {
	start, text := -1, ""
	for _, re := range quotePatterns {
		m := re.FindStringSubmatchIndex(s)
		if m == nil || strings.TrimSpace(s[m[2]:m[3]]) == "" {
			continue
		}
		if start == -1 || m[2] < start {
			start, text = m[2], s[m[2]:m[3]]
		}
	}
	return text
}

func cleanPayload(s, targetPhrase string) string {
	if targetPhrase != "" {
		s = strings.Replace(s, targetPhrase, "", 1)
	}
	s = strings.TrimLeft(s, " \t\r\n:;,-–—")
	s = leadingFiller.ReplaceAllString(s, "")
	return strings.TrimRight(s, " \t\r\n:;,-–—")
}

// isAnaphoric reports whether a payload is empty or only points back at
// earlier text.
func isAnaphoric(payload string) bool {
	return payload == "" || anaphora[strings.ToLower(payload)]
}

func lastAssistantReply(history []session.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == session.RoleAssistant {
			return strings.TrimSpace(history[i].Content)
		}
	}
	return ""
}
