// Package timeout defines centralized timeout constants for AI operations.
package timeout

import "time"

const (
	// AskTimeout bounds one whole turn, from history load to reply.
	AskTimeout = 2 * time.Minute

	// ToolExecutionTimeout is the timeout for individual tool execution.
	ToolExecutionTimeout = 30 * time.Second

	// LLMTimeout bounds a single chat completion.
	LLMTimeout = 20 * time.Second

	// EmbeddingTimeout is the timeout for embedding generation.
	EmbeddingTimeout = 30 * time.Second

	// ReindexTimeout bounds a full corpus rebuild.
	ReindexTimeout = 5 * time.Minute

	// PersistTimeout bounds the history write that ends a turn. It runs
	// detached from the caller so a computed reply is never half stored.
	PersistTimeout = 5 * time.Second

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 200
)
