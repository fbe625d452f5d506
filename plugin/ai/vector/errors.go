package vector

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCorpus is returned when the corpus has no indexable text.
	ErrEmptyCorpus = errors.New("corpus is empty")

	// ErrStaleGeneration is returned by Swap for a generation that is not newer
	// than the active one.
	ErrStaleGeneration = errors.New("generation is not newer than the active one")

	// ErrDimensionMismatch is returned when chunk embeddings disagree in size.
	ErrDimensionMismatch = errors.New("embedding dimensions differ")
)

// IndexBuildError reports a failed Build. The active generation is untouched.
type IndexBuildError struct {
	Stage string // chunk, embed, backend
	Err   error
}

func (e *IndexBuildError) Error() string {
	return fmt.Sprintf("index build failed at %s: %v", e.Stage, e.Err)
}

func (e *IndexBuildError) Unwrap() error {
	return e.Err
}
