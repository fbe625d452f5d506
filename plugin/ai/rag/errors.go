package rag

import (
	"errors"
	"fmt"
)

// ErrNoCorpusSource is returned by Reindex on an engine without a corpus source.
var ErrNoCorpusSource = errors.New("no corpus source configured")

// ReindexError reports a failed Reindex. The previously active generation
// keeps serving queries.
type ReindexError struct {
	Source string
	Err    error
}

func (e *ReindexError) Error() string {
	return fmt.Sprintf("reindex from %s failed: %v", e.Source, e.Err)
}

func (e *ReindexError) Unwrap() error {
	return e.Err
}
