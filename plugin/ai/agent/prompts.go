package agent

import (
	"strings"

	"github.com/shvkateryna/internship/plugin/ai"
	"github.com/shvkateryna/internship/plugin/ai/lang"
	"github.com/shvkateryna/internship/plugin/ai/session"
)

const directSystemPrompt = `You are a concise, friendly assistant.
Answer the user's message directly. Use the conversation so far for context.
Never invent facts about the user; if asked about them and the conversation does not say, reply: {no_data}
Always respond in {target_lang}.`

// buildDirectPrompt renders the direct-reply conversation: system prompt,
// windowed history, then the new input.
func buildDirectPrompt(input string, history []session.Message, l lang.Language) []ai.Message {
	system := strings.NewReplacer(
		"{no_data}", lang.Pick(l, "No data available.", "Немає даних."),
		"{target_lang}", l.Name(),
	).Replace(directSystemPrompt)

	msgs := make([]ai.Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case session.RoleUser:
			msgs = append(msgs, ai.UserMessage(m.Content))
		case session.RoleAssistant:
			msgs = append(msgs, ai.AssistantMessage(m.Content))
		}
	}
	return ai.FormatMessages(system, input, msgs)
}
