// Package tools classifies the agent's tools into mutating and read-only.
//
// The mutating set mirrors the agent's tool registry by hand. A tool the
// registry gains without being added here classifies as read-only, so views
// will not refresh after it runs until this list (or a Sync) catches up.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Tool names known to exist on the agent.
const (
	ListUseCases      = "list_use_cases"
	GetUseCase        = "get_use_case"
	CreateUseCase     = "create_use_case"
	UpdateUseCase     = "update_use_case"
	SetStatus         = "set_status"
	ArchiveUseCase    = "archive_use_case"
	RestoreUseCase    = "restore_use_case"
	AnalyzeTranscript = "analyze_transcript"
	ListCompanies     = "list_companies"
	ListIndustries    = "list_industries"
	CreateIndustry    = "create_industry"
	CreateCompany     = "create_company"
	SaveTranscript    = "save_transcript"
)

var defaultMutating = []string{
	CreateUseCase,
	UpdateUseCase,
	SetStatus,
	ArchiveUseCase,
	RestoreUseCase,
	AnalyzeTranscript,
	CreateCompany,
	CreateIndustry,
	SaveTranscript,
}

var defaultReadOnly = []string{
	ListUseCases,
	GetUseCase,
	ListCompanies,
	ListIndustries,
}

// Known returns every tool name in the built-in registry, sorted.
func Known() []string {
	names := make([]string, 0, len(defaultMutating)+len(defaultReadOnly))
	names = append(names, defaultMutating...)
	names = append(names, defaultReadOnly...)
	sort.Strings(names)
	return names
}

// ErrNoMutatingTools is returned by Sync when the registry declares no
// mutating tool. The current set is kept.
var ErrNoMutatingTools = errors.New("tool registry declares no mutating tools")

// Declaration is one entry of the agent's tool registry.
type Declaration struct {
	Name     string `json:"name"`
	Mutating bool   `json:"mutating"`
}

// Source supplies the agent's current tool registry.
type Source interface {
	ListTools(ctx context.Context) ([]Declaration, error)
}

// Classifier answers whether a tool mutates persisted state.
type Classifier struct {
	mu       sync.RWMutex
	mutating map[string]struct{}
}

// NewClassifier creates a Classifier seeded with the built-in mutating set.
func NewClassifier() *Classifier {
	c := &Classifier{mutating: make(map[string]struct{}, len(defaultMutating))}
	for _, name := range defaultMutating {
		c.mutating[name] = struct{}{}
	}
	return c
}

// IsMutating reports whether name is in the mutating set. Unknown names are
// read-only.
func (c *Classifier) IsMutating(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.mutating[name]
	return ok
}

// AnyMutating reports whether at least one of names is mutating.
func (c *Classifier) AnyMutating(names []string) bool {
	for _, n := range names {
		if c.IsMutating(n) {
			return true
		}
	}
	return false
}

// Mutating returns the current mutating set, sorted.
func (c *Classifier) Mutating() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.mutating))
	for name := range c.mutating {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Sync replaces the mutating set with the registry reported by src. On error,
// or when the registry marks nothing as mutating, the current set is kept.
func (c *Classifier) Sync(ctx context.Context, src Source, logger *slog.Logger) error {
	decls, err := src.ListTools(ctx)
	if err != nil {
		if logger != nil {
			logger.Warn("tool registry sync failed, keeping built-in set", "error", err)
		}
		return fmt.Errorf("list tools: %w", err)
	}

	next := make(map[string]struct{}, len(decls))
	for _, d := range decls {
		if d.Mutating {
			next[d.Name] = struct{}{}
		}
	}
	if len(next) == 0 {
		if logger != nil {
			logger.Warn("tool registry declares no mutating tools, keeping current set", "tools", len(decls))
		}
		return ErrNoMutatingTools
	}

	c.mu.Lock()
	c.mutating = next
	c.mu.Unlock()

	if logger != nil {
		logger.Info("tool registry synced", "tools", len(decls), "mutating", len(next))
	}
	return nil
}

var defaultClassifier = NewClassifier()

// IsMutating classifies name against the built-in set.
func IsMutating(name string) bool {
	return defaultClassifier.IsMutating(name)
}

// AnyMutating reports whether any of names is mutating in the built-in set.
func AnyMutating(names []string) bool {
	return defaultClassifier.AnyMutating(names)
}
