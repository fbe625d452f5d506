package router

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shvkateryna/internship/plugin/ai/agent/tools"
)

// RuleConfig configures one routing rule. Empty lists keep the built-in
// defaults for that rule.
type RuleConfig struct {
	Name     string   `yaml:"name"`
	Disabled bool     `yaml:"disabled"`
	Keywords []string `yaml:"keywords"`
	Markers  []string `yaml:"markers"`
	Exclude  []string `yaml:"exclude"`
}

// RulesFile is the on-disk form of the ordered rule list.
type RulesFile struct {
	Rules []RuleConfig `yaml:"rules"`
}

// DefaultRules returns the built-in rule order with default vocabularies.
func DefaultRules() []RuleConfig {
	return []RuleConfig{
		{
			Name: RuleTranslate,
			Keywords: []string{
				"переклади", "перекладіть", "перекласти", "translate",
				"укр:", "з англійської:", "to ukrainian:",
			},
			Exclude: []string{
				"what does", "meaning of", "what is the meaning", "define",
				"що означає", "значення слова", "що таке",
			},
		},
		{
			Name: RuleAboutMe,
			Keywords: []string{
				"name", "age", "old", "live", "lives", "born", "family", "hobby", "hobbies",
				"work", "job", "favorite", "favourite", "study", "studied", "pet", "pets",
				"married", "brother", "sister", "mother", "father", "parents", "children",
				"color", "colour", "food", "city", "country", "birthday", "like", "likes",
				"звати", "ім'я", "вік", "років", "живеш", "живу", "народився", "народилася",
				"сім'я", "родина", "хобі", "працюєш", "робота", "улюблен*", "навчаєшся",
				"брат*", "сестр*", "мама", "тато", "батьки", "діти", "колір", "їжа", "місто",
				"день народження", "подобається",
				"about yourself", "about you", "who are you", "про себе", "про тебе", "хто ти",
			},
			Markers: []string{
				"you", "your", "yours", "yourself", "my", "me", "mine", "myself",
				"ти", "тебе", "тобі", "твій", "твоя", "твоє", "твої", "твого", "твоєї",
				"ви", "вас", "вам", "ваш", "ваша", "ваше", "ваші",
				"мій", "моя", "моє", "мої", "мого", "моєї", "мене", "мені",
			},
		},
		{
			Name:     RuleRemember,
			Keywords: []string{"remember that", "запам'ятай", "запамятай"},
			Markers: []string{
				"i", "i'm", "im", "i've", "my", "me",
				"я", "мій", "моя", "моє", "мої", "мене", "мені", "у мене",
			},
		},
		{Name: RuleDirect},
	}
}

// LoadRules reads an ordered rule list from a YAML file.
func LoadRules(path string) ([]RuleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routing rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes an ordered rule list from YAML and fills defaults.
func ParseRules(data []byte) ([]RuleConfig, error) {
	var file RulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse routing rules: %w", err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("routing rules file has no rules")
	}

	defaults := make(map[string]RuleConfig)
	for _, r := range DefaultRules() {
		defaults[r.Name] = r
	}

	seen := make(map[string]bool)
	out := make([]RuleConfig, 0, len(file.Rules))
	for _, r := range file.Rules {
		def, ok := defaults[r.Name]
		if !ok {
			return nil, fmt.Errorf("unknown routing rule %q", r.Name)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("routing rule %q listed twice", r.Name)
		}
		seen[r.Name] = true

		if len(r.Keywords) == 0 {
			r.Keywords = def.Keywords
		}
		if len(r.Markers) == 0 {
			r.Markers = def.Markers
		}
		if len(r.Exclude) == 0 {
			r.Exclude = def.Exclude
		}
		out = append(out, r)
	}
	return out, nil
}

// ruleTools names the tool each invoking rule routes to.
var ruleTools = map[string]string{
	RuleTranslate: tools.TranslateToolName,
	RuleAboutMe:   tools.AboutMeToolName,
}

// RestrictToTools disables rules whose tool is not registered, so a turn is
// never routed to a missing tool. A nil or empty list starts from
// DefaultRules. The input slice is not modified.
func RestrictToTools(cfgs []RuleConfig, registered func(tool string) bool) []RuleConfig {
	if len(cfgs) == 0 {
		cfgs = DefaultRules()
	}
	out := make([]RuleConfig, len(cfgs))
	copy(out, cfgs)
	for i := range out {
		tool, ok := ruleTools[out[i].Name]
		if !ok || out[i].Disabled || registered(tool) {
			continue
		}
		out[i].Disabled = true
		slog.Info("routing rule disabled: tool not registered",
			slog.String("rule", out[i].Name), slog.String("tool", tool))
	}
	return out
}
