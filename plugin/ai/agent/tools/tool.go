// Package tools declares the assistant's tools and runs them with timeouts,
// retries for transient failures and graceful fallbacks.
package tools

import (
	"context"
	"strings"
)

// ParamType is the type of a tool argument.
type ParamType string

const (
	ParamString ParamType = "string"
)

// Param describes one named argument of a tool.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
	Required    bool      `json:"required"`
}

// Definition is the immutable, public description of a tool.
type Definition struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
}

// Args holds named tool arguments.
type Args map[string]string

// Get returns the trimmed value of name.
func (a Args) Get(name string) string {
	return strings.TrimSpace(a[name])
}

// Tool defines the interface for executable tools.
type Tool interface {
	// Name returns the tool's identifier.
	Name() string
	// Definition describes the tool and its arguments.
	Definition() Definition
	// Run executes the tool with validated arguments.
	Run(ctx context.Context, args Args) (*Result, error)
}

// Result represents the output of a tool execution.
type Result struct {
	Output  string `json:"output"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
}

// copyDefinition returns d with its own Params slice.
func copyDefinition(d Definition) Definition {
	d.Params = append([]Param(nil), d.Params...)
	return d
}
