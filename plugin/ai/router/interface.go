// Package router turns a user message plus session history into exactly one
// routing decision using an ordered list of rules.
package router

import (
	"github.com/shvkateryna/internship/plugin/ai/lang"
	"github.com/shvkateryna/internship/plugin/ai/session"
)

// RouterService decides how a turn is handled.
// Decide must be a pure function of its arguments: the same input and
// history always produce the same decision.
type RouterService interface {
	Decide(input string, history []session.Message) Decision
}

// Kind is the kind of routing decision.
type Kind string

const (
	// KindInvoke calls a registered tool.
	KindInvoke Kind = "invoke"
	// KindDirect answers without a tool.
	KindDirect Kind = "direct_reply"
)

// Rule names.
const (
	RuleTranslate = "translate"
	RuleAboutMe   = "about_me"
	RuleRemember  = "remember"
	RuleDirect    = "direct"
)

// Decision is the outcome of routing one turn. It is never persisted.
type Decision struct {
	Kind Kind   `json:"kind"`
	Rule string `json:"rule"` // name of the rule that matched

	// Tool and Args are set for KindInvoke.
	Tool string            `json:"tool,omitempty"`
	Args map[string]string `json:"args,omitempty"`

	// Reply is a fixed direct reply. An empty Reply on KindDirect asks the
	// agent to generate one.
	Reply string `json:"reply,omitempty"`

	// Lang is the reply language detected from the input.
	Lang lang.Language `json:"lang"`
}

// IsInvoke reports whether the decision calls a tool.
func (d Decision) IsInvoke() bool {
	return d.Kind == KindInvoke
}
