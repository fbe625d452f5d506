package tools

import (
	"context"
	"fmt"
)

const (
	TranslateToolName = "translate"

	// DefaultTargetLanguage is used when a translate call names no target.
	DefaultTargetLanguage = "Ukrainian"
)

// Translator is the external translation collaborator.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// TranslateTool translates text into a target language.
type TranslateTool struct {
	translator Translator
}

// NewTranslateTool creates the translate tool.
func NewTranslateTool(translator Translator) *TranslateTool {
	return &TranslateTool{translator: translator}
}

func (t *TranslateTool) Name() string {
	return TranslateToolName
}

func (t *TranslateTool) Definition() Definition {
	return Definition{
		Name:        TranslateToolName,
		Description: "Translate text into the requested language (Ukrainian by default).",
		Params: []Param{
			{Name: "text", Type: ParamString, Description: "Text to translate", Required: true},
			{Name: "target_language", Type: ParamString, Description: "Language to translate into"},
		},
	}
}

func (t *TranslateTool) Run(ctx context.Context, args Args) (*Result, error) {
	if t.translator == nil {
		return nil, fmt.Errorf("translate: no translator configured")
	}
	target := args.Get("target_language")
	if target == "" {
		target = DefaultTargetLanguage
	}
	out, err := t.translator.Translate(ctx, args.Get("text"), target)
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	return &Result{Output: out, Success: true}, nil
}
