package tools

import (
	"context"
	"fmt"
	"strings"
)

// Registry is the fixed set of tools available to the agent. It is filled
// once at construction and read-only afterwards, so it is safe for
// concurrent use.
type Registry struct {
	executor *ResilientToolExecutor
	order    []string
	tools    map[string]Tool
	defs     map[string]Definition
}

// NewRegistry registers tools in the given order. Empty or duplicate names
// are rejected. A nil executor runs tools without metrics.
func NewRegistry(executor *ResilientToolExecutor, tools ...Tool) (*Registry, error) {
	if executor == nil {
		executor = NewResilientToolExecutor(nil)
	}
	r := &Registry{
		executor: executor,
		tools:    make(map[string]Tool, len(tools)),
		defs:     make(map[string]Definition, len(tools)),
	}
	for _, t := range tools {
		name := strings.TrimSpace(t.Name())
		if name == "" {
			return nil, fmt.Errorf("register tool: empty name")
		}
		if _, dup := r.tools[name]; dup {
			return nil, fmt.Errorf("register tool %q: duplicate name", name)
		}
		def := copyDefinition(t.Definition())
		def.Name = name
		r.order = append(r.order, name)
		r.tools[name] = t
		r.defs[name] = def
	}
	return r, nil
}

// List returns every tool definition in registration order.
func (r *Registry) List() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, copyDefinition(r.defs[name]))
	}
	return out
}

// Get returns the definition for name or a *NotFoundError.
func (r *Registry) Get(name string) (Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, &NotFoundError{Name: name}
	}
	return copyDefinition(def), nil
}

// Has reports whether a tool named name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Invoke validates args against the tool's definition and runs it through the
// resilient executor. An unknown name yields *NotFoundError; every other
// failure, timeouts and empty output included, is a *ToolExecutionError.
func (r *Registry) Invoke(ctx context.Context, name string, args Args) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return "", &NotFoundError{Name: name}
	}
	if err := validateArgs(r.defs[name], args); err != nil {
		return "", &ToolExecutionError{Tool: name, Err: err}
	}

	res := r.executor.ExecuteDetailed(ctx, tool, args)
	if res.Error != nil {
		execErr := &ToolExecutionError{Tool: name, Attempts: res.Attempts, Err: res.Error}
		if res.UsedFallback && res.Result != nil {
			execErr.Fallback = res.Result.Output
		}
		return "", execErr
	}
	if res.Result == nil || strings.TrimSpace(res.Result.Output) == "" {
		return "", &ToolExecutionError{Tool: name, Attempts: res.Attempts, Err: ErrEmptyOutput}
	}
	return res.Result.Output, nil
}

func validateArgs(def Definition, args Args) error {
	for _, p := range def.Params {
		if p.Required && args.Get(p.Name) == "" {
			return fmt.Errorf("%w: missing %q", ErrInvalidArguments, p.Name)
		}
	}
	return nil
}
