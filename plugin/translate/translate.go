// Package translate is the translation collaborator behind the translate tool.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shvkateryna/internship/plugin/ai"
	"github.com/shvkateryna/internship/plugin/ai/lang"
)

// DefaultMaxInputChars bounds the text accepted for one translation.
const DefaultMaxInputChars = 128

// ErrEmptyInput is returned for blank text.
var ErrEmptyInput = errors.New("nothing to translate")

const systemPrompt = `You are a professional translator. Translate the user's message into %s.
Output only the translation. Do not add quotes, notes, explanations or the source text.
Keep names, numbers and formatting unchanged.`

// Service translates text with a chat model at temperature 0.
type Service struct {
	llm           ai.LLMService
	maxInputChars int
}

// Option configures a Service.
type Option func(*Service)

// WithMaxInputChars sets the input limit in characters.
func WithMaxInputChars(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxInputChars = n
		}
	}
}

// New creates a Service over an existing chat model.
func New(llm ai.LLMService, opts ...Option) *Service {
	s := &Service{llm: llm, maxInputChars: DefaultMaxInputChars}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewOpenAI creates a Service with its own deterministic OpenAI-compatible
// client. An empty model keeps cfg.Model.
func NewOpenAI(cfg ai.LLMConfig, model string, opts ...Option) (*Service, error) {
	if model != "" {
		cfg.Model = model
	}
	llm, err := ai.NewLLMService(&cfg, ai.WithTemperature(0))
	if err != nil {
		return nil, fmt.Errorf("create translation model: %w", err)
	}
	return New(llm, opts...), nil
}

// Translate returns the final user-facing text: a heading in the turn's
// language followed by the translation. Input over the limit gets a
// localized refusal instead of a translation.
func (s *Service) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyInput
	}
	l := lang.FromContext(ctx)
	if utf8.RuneCountInString(text) > s.maxInputChars {
		return lang.Pick(l,
			fmt.Sprintf("Input too long (max %d characters).", s.maxInputChars),
			fmt.Sprintf("Вхідний текст занадто довгий (макс. %d символів).", s.maxInputChars),
		), nil
	}
	if targetLanguage == "" {
		targetLanguage = lang.Ukrainian.Name()
	}

	out, err := s.llm.Chat(ctx, []ai.Message{
		ai.SystemPrompt(fmt.Sprintf(systemPrompt, targetLanguage)),
		ai.UserMessage(text),
	})
	if err != nil {
		return "", fmt.Errorf("translate into %s: %w", targetLanguage, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("translate into %s: empty model output", targetLanguage)
	}

	heading := lang.Pick(l,
		"Here is your translation using tool translate:",
		"Ось ваш переклад за допомогою тули translate:",
	)
	return heading + "\n" + out, nil
}
