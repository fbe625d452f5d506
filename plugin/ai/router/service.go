package router

import (
	"fmt"
	"log/slog"

	"github.com/shvkateryna/internship/plugin/ai/session"
)

// Service evaluates an ordered rule list; the first matching rule wins.
// A direct rule is always last, so every input gets a decision.
type Service struct {
	rules []rule
}

// NewService builds a router from rule configs. A nil or empty list uses
// DefaultRules.
func NewService(cfgs []RuleConfig) (*Service, error) {
	if len(cfgs) == 0 {
		cfgs = DefaultRules()
	}

	s := &Service{}
	hasDirect := false
	for _, cfg := range cfgs {
		if cfg.Disabled {
			continue
		}
		switch cfg.Name {
		case RuleTranslate:
			s.rules = append(s.rules, newTranslateRule(cfg))
		case RuleAboutMe:
			s.rules = append(s.rules, newAboutMeRule(cfg))
		case RuleRemember:
			s.rules = append(s.rules, newRememberRule(cfg))
		case RuleDirect:
			s.rules = append(s.rules, directRule{})
			hasDirect = true
		default:
			return nil, fmt.Errorf("unknown routing rule %q", cfg.Name)
		}
		if hasDirect {
			// Nothing after the catch-all can ever match.
			break
		}
	}
	if !hasDirect {
		s.rules = append(s.rules, directRule{})
	}
	return s, nil
}

// Rules returns the rule names in evaluation order.
func (s *Service) Rules() []string {
	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.name()
	}
	return names
}

// Decide returns the decision of the first matching rule.
func (s *Service) Decide(input string, history []session.Message) Decision {
	in := newInput(input)
	for _, r := range s.rules {
		if d, ok := r.match(in, history); ok {
			slog.Debug("routing decision",
				slog.String("rule", d.Rule),
				slog.String("kind", string(d.Kind)),
				slog.String("tool", d.Tool),
				slog.String("input", truncate(input, 50)))
			return d
		}
	}
	// Unreachable: the direct rule always matches.
	return Decision{Kind: KindDirect, Rule: RuleDirect, Lang: in.lang}
}

// truncate truncates a string to maxLen runes.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

var _ RouterService = (*Service)(nil)
