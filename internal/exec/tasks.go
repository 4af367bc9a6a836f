package exec

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// DefaultTaskTimeout bounds a single post-update task. Installation-style
// tasks can hang on network access, so every task carries a deadline.
const DefaultTaskTimeout = 5 * time.Minute

// Task is a named command to run after a successful sync, e.g. "go mod tidy"
// or "gofmt -w .". Tasks come from the template manifest, not from user input.
type Task struct {
	Name    string        // Registry lookup key and display name
	Command string        // Binary to invoke
	Args    []string      // Command arguments
	Timeout time.Duration // Per-task deadline; DefaultTaskTimeout when zero
}

// Execute runs the task through the given executor with its timeout applied.
func (t Task) Execute(ctx context.Context, e *Executor) error {
	timeout := t.Timeout
	if timeout == 0 {
		timeout = DefaultTaskTimeout
	}
	return e.RunWithTimeout(ctx, timeout, t.Command, t.Args...)
}

// TaskRegistry holds post-update tasks in registration order.
type TaskRegistry struct {
	tasks  []Task
	byName map[string]int
}

// NewTaskRegistry creates an empty task registry.
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{byName: make(map[string]int)}
}

// Register adds a task. Duplicate names are rejected so a manifest can't
// silently shadow an earlier task.
func (r *TaskRegistry) Register(t Task) error {
	if t.Name == "" {
		return fmt.Errorf("cannot register task with empty name")
	}
	if t.Command == "" {
		return fmt.Errorf("task '%s' has no command", t.Name)
	}
	if _, exists := r.byName[t.Name]; exists {
		return fmt.Errorf("task '%s' is already registered", t.Name)
	}
	r.byName[t.Name] = len(r.tasks)
	r.tasks = append(r.tasks, t)
	return nil
}

// Get retrieves a task by name.
func (r *TaskRegistry) Get(name string) (Task, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Task{}, false
	}
	return r.tasks[i], true
}

// Names returns all registered task names in sorted order.
func (r *TaskRegistry) Names() []string {
	names := make([]string, 0, len(r.tasks))
	for _, t := range r.tasks {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tasks.
func (r *TaskRegistry) Len() int {
	return len(r.tasks)
}

// RunAll executes every task in registration order, stopping at the first
// failure. The failed task's name is in the returned error.
func (r *TaskRegistry) RunAll(ctx context.Context, e *Executor) error {
	for _, t := range r.tasks {
		if err := t.Execute(ctx, e); err != nil {
			return fmt.Errorf("task '%s': %w", t.Name, err)
		}
	}
	return nil
}
