package rag

import (
	"strings"
	"unicode/utf8"

	"github.com/shvkateryna/internship/plugin/ai/vector"
)

// DefaultScoreThreshold drops hits too dissimilar to count as context.
const DefaultScoreThreshold = 0.2

// EvaluationResult describes which retrieved chunks make it into the context.
type EvaluationResult struct {
	IsUseful bool
	Reason   string
	Kept     []vector.Result
	TopScore float32
}

// ResultEvaluator filters retrieval results by score before they reach the prompt.
type ResultEvaluator struct {
	threshold float32
}

// NewResultEvaluator creates an evaluator. Negative thresholds keep every hit.
func NewResultEvaluator(threshold float32) *ResultEvaluator {
	return &ResultEvaluator{threshold: threshold}
}

// Evaluate keeps the ranked hits whose score reaches the threshold.
func (e *ResultEvaluator) Evaluate(results []vector.Result) *EvaluationResult {
	if len(results) == 0 {
		return &EvaluationResult{Reason: "empty_results"}
	}

	kept := make([]vector.Result, 0, len(results))
	for _, r := range results {
		if r.Score >= e.threshold {
			kept = append(kept, r)
		}
	}

	eval := &EvaluationResult{
		Kept:     kept,
		TopScore: results[0].Score,
	}
	if len(kept) == 0 {
		eval.Reason = "below_threshold"
		return eval
	}
	eval.IsUseful = true
	eval.Reason = "relevant"
	return eval
}

// BuildContext joins chunk texts in ranked order, separated by blank lines,
// and cuts the result to at most maxChars runes.
func BuildContext(results []vector.Result, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}

	var b strings.Builder
	remaining := maxChars
	for i, r := range results {
		sep := ""
		if i > 0 {
			sep = "\n\n"
		}
		piece := sep + strings.TrimSpace(r.Chunk.Content)
		n := utf8.RuneCountInString(piece)
		if n <= remaining {
			b.WriteString(piece)
			remaining -= n
			continue
		}
		b.WriteString(truncateRunes(piece, remaining))
		break
	}
	return strings.TrimSpace(b.String())
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
