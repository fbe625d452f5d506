package tools

import (
	"context"
	"fmt"
)

const AboutMeToolName = "about_me_search"

// Answerer answers a question from the personal-fact corpus.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// AboutMeTool answers biography questions through retrieval.
type AboutMeTool struct {
	answerer Answerer
}

// NewAboutMeTool creates the about_me_search tool.
func NewAboutMeTool(answerer Answerer) *AboutMeTool {
	return &AboutMeTool{answerer: answerer}
}

func (t *AboutMeTool) Name() string {
	return AboutMeToolName
}

func (t *AboutMeTool) Definition() Definition {
	return Definition{
		Name:        AboutMeToolName,
		Description: "Answer a question about the owner using only the personal-fact corpus.",
		Params: []Param{
			{Name: "question", Type: ParamString, Description: "The question, verbatim", Required: true},
		},
	}
}

func (t *AboutMeTool) Run(ctx context.Context, args Args) (*Result, error) {
	answer, err := t.answerer.Answer(ctx, args.Get("question"))
	if err != nil {
		return nil, fmt.Errorf("about_me_search: %w", err)
	}
	return &Result{Output: answer, Success: true}, nil
}
