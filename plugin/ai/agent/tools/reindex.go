package tools

import (
	"context"
	"fmt"

	"github.com/shvkateryna/internship/plugin/ai/vector"
)

const ReindexToolName = "rag_reindex"

// Reindexer rebuilds the retrieval index from its corpus source.
type Reindexer interface {
	Reindex(ctx context.Context) (*vector.Generation, error)
}

// ReindexTool rebuilds the index and reports the new generation.
type ReindexTool struct {
	reindexer Reindexer
}

// NewReindexTool creates the rag_reindex tool.
func NewReindexTool(reindexer Reindexer) *ReindexTool {
	return &ReindexTool{reindexer: reindexer}
}

func (t *ReindexTool) Name() string {
	return ReindexToolName
}

func (t *ReindexTool) Definition() Definition {
	return Definition{
		Name:        ReindexToolName,
		Description: "Rebuild the personal-fact index from its source. The previous index stays active on failure.",
	}
}

func (t *ReindexTool) Run(ctx context.Context, _ Args) (*Result, error) {
	gen, err := t.reindexer.Reindex(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{
		Output:  fmt.Sprintf("ok: generation %d (%d chunks)", gen.Version, gen.Len()),
		Success: true,
		Data:    gen,
	}, nil
}
