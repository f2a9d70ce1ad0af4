// Package registry holds the capability table of lifecycle hooks that
// stages may bind. The execution engine invokes hooks by name; the
// definition service validates bindings against this table at save time
// so a workflow never deploys with a hook nobody implements.
package registry

import (
	"log/slog"
	"sort"
)

// HookEvent is a stage lifecycle moment a hook can be bound to.
type HookEvent string

const (
	HookEventStart    HookEvent = "start"    // before the stage is entered
	HookEventCreate   HookEvent = "create"   // when the stage's task is created
	HookEventComplete HookEvent = "complete" // before the stage's task completes
	HookEventEnd      HookEvent = "end"      // after the stage is left
)

type Registry struct {
	logger *slog.Logger
	hooks  map[string]map[HookEvent]bool
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		hooks:  make(map[string]map[HookEvent]bool),
	}
}

// RegisterHook declares a hook and the lifecycle events it may be bound
// to. Re-registering a name extends its event set.
func (r *Registry) RegisterHook(name string, events ...HookEvent) {
	supported, ok := r.hooks[name]
	if !ok {
		supported = make(map[HookEvent]bool, len(events))
		r.hooks[name] = supported
	}

	for _, event := range events {
		supported[event] = true
	}

	r.logger.Debug("Registered hook", "hook", name, "events", events)
}

// IsRegistered reports whether a hook name is known at all.
func (r *Registry) IsRegistered(name string) bool {
	_, ok := r.hooks[name]

	return ok
}

// Supports reports whether the hook may be bound to the given event.
func (r *Registry) Supports(name string, event HookEvent) bool {
	return r.hooks[name][event]
}

// Hooks returns all registered hook names, sorted.
func (r *Registry) Hooks() []string {
	names := make([]string, 0, len(r.hooks))
	for name := range r.hooks {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// RegisterDefaultHooks installs the hooks the stock execution engine
// implements.
func RegisterDefaultHooks(registry *Registry) {
	registry.RegisterHook("notifyAssignee", HookEventCreate)
	registry.RegisterHook("notifyInitiator", HookEventStart, HookEventEnd)
	registry.RegisterHook("recordCaseAudit", HookEventStart, HookEventCreate, HookEventComplete, HookEventEnd)
	registry.RegisterHook("recalculateSlaDueDate", HookEventCreate)
	registry.RegisterHook("releaseCaseLock", HookEventEnd)
	registry.RegisterHook("validateStageOutcome", HookEventComplete)
}
