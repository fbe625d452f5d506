package translate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shvkateryna/internship/plugin/ai"
	"github.com/shvkateryna/internship/plugin/ai/lang"
)

func TestTranslate(t *testing.T) {
	var prompts [][]ai.Message
	llm := &ai.MockLLMService{ChatFunc: func(_ context.Context, msgs []ai.Message) (string, error) {
		prompts = append(prompts, msgs)
		return " Доброго ранку \n", nil
	}}
	s := New(llm)

	out, err := s.Translate(context.Background(), "  good morning ", "Ukrainian")
	require.NoError(t, err)
	assert.Equal(t, "Here is your translation using tool translate:\nДоброго ранку", out)

	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0][0].Content, "into Ukrainian.")
	assert.Equal(t, ai.UserMessage("good morning"), prompts[0][1])

	out, err = s.Translate(lang.NewContext(context.Background(), lang.Ukrainian), "good morning", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Ось ваш переклад за допомогою тули translate:\n"))
	assert.Contains(t, prompts[1][0].Content, "into Ukrainian.")
}

func TestTranslate_Limits(t *testing.T) {
	called := false
	llm := &ai.MockLLMService{ChatFunc: func(context.Context, []ai.Message) (string, error) {
		called = true
		return "x", nil
	}}
	s := New(llm)

	_, err := s.Translate(context.Background(), "   ", "English")
	assert.ErrorIs(t, err, ErrEmptyInput)

	long := strings.Repeat("ї", DefaultMaxInputChars+1)
	out, err := s.Translate(context.Background(), long, "English")
	require.NoError(t, err)
	assert.Equal(t, "Input too long (max 128 characters).", out)

	out, err = s.Translate(lang.NewContext(context.Background(), lang.Ukrainian), long, "English")
	require.NoError(t, err)
	assert.Equal(t, "Вхідний текст занадто довгий (макс. 128 символів).", out)
	assert.False(t, called)

	// Exactly at the limit counts runes, not bytes.
	_, err = s.Translate(context.Background(), strings.Repeat("ї", DefaultMaxInputChars), "English")
	require.NoError(t, err)
	assert.True(t, called)

	small := New(llm, WithMaxInputChars(5))
	out, err = small.Translate(context.Background(), "abcdef", "English")
	require.NoError(t, err)
	assert.Equal(t, "Input too long (max 5 characters).", out)
}

func TestTranslate_ModelFailure(t *testing.T) {
	s := New(&ai.MockLLMService{ChatFunc: func(context.Context, []ai.Message) (string, error) {
		return "", errors.New("rate limited")
	}})
	_, err := s.Translate(context.Background(), "hi", "German")
	assert.ErrorContains(t, err, "rate limited")

	s = New(&ai.MockLLMService{ChatFunc: func(context.Context, []ai.Message) (string, error) {
		return "  ", nil
	}})
	_, err = s.Translate(context.Background(), "hi", "German")
	assert.Error(t, err)
}

func TestNewOpenAI(t *testing.T) {
	s, err := NewOpenAI(ai.LLMConfig{Provider: "openai", APIKey: "k", Model: "gpt-4o-mini"}, "gpt-4o")
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = NewOpenAI(ai.LLMConfig{Provider: "ollama"}, "")
	assert.Error(t, err)
}
