package tools

import (
	"context"
	"log/slog"

	"github.com/shvkateryna/internship/plugin/ai/lang"
)

// FallbackFunc defines the signature for fallback handlers.
// It receives the context, the failed tool, the original arguments and the error.
// It returns a graceful degradation result.
type FallbackFunc func(ctx context.Context, tool Tool, args Args, err error) (*Result, error)

// DefaultFallbackRules contains the default fallback strategies for user-facing tools.
// rag_reindex has none: operators need the underlying error.
var DefaultFallbackRules = map[string]FallbackFunc{
	TranslateToolName: ErrorAwareFallback(
		"Sorry, translation is unavailable right now. Please try again a bit later.",
		"Вибачте, переклад зараз недоступний. Спробуйте трохи пізніше.",
	),
	AboutMeToolName: ErrorAwareFallback(
		"Sorry, I can't look that up right now. Please try again a bit later.",
		"Вибачте, зараз не можу це знайти. Спробуйте трохи пізніше.",
	),
}

// ErrorAwareFallback creates a fallback that logs error details but returns a
// safe message in the turn's language.
func ErrorAwareFallback(en, uk string) FallbackFunc {
	return func(ctx context.Context, tool Tool, _ Args, err error) (*Result, error) {
		if err != nil {
			toolName := "unknown"
			if tool != nil {
				toolName = tool.Name()
			}
			slog.Warn("tool fallback triggered",
				slog.String("tool", toolName),
				slog.String("error", err.Error()),
			)
		}
		return &Result{
			Output:  lang.Pick(lang.FromContext(ctx), en, uk),
			Success: false,
		}, nil
	}
}
