// Package registry holds the component and service catalog a template
// exposes, and resolves a user selection into a consistent closure.
//
// A Registry is an immutable value built once (from the template manifest
// or, in tests, from literals) and passed to whoever needs it. There is no
// package-level registry state.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/petrelhq/petrel/internal/migration"
)

// ComponentSpec describes an optional infrastructure capability a template
// offers (a datastore, a queue, a cache). Loaded once; never mutated.
type ComponentSpec struct {
	Name       string   `yaml:"name"`
	Category   string   `yaml:"category"`
	Requires   []string `yaml:"requires"`
	Recommends []string `yaml:"recommends"`
	Conflicts  []string `yaml:"conflicts"`

	// Files and Dependencies are manifests consumed by the template and
	// post-generation tooling; the resolver never interprets them.
	Files        []string `yaml:"files"`
	Dependencies []string `yaml:"dependencies"`

	// Tables declares schema the component brings with it; the scaffolder
	// turns these into ordered migration files.
	Tables []migration.TableSpec `yaml:"tables"`
}

// ServiceSpec describes an optional business-logic module that may itself
// require components.
type ServiceSpec struct {
	Name               string   `yaml:"name"`
	RequiredComponents []string `yaml:"required_components"`
	Files              []string `yaml:"files"`
	Dependencies       []string `yaml:"dependencies"`
}

// Registry is the immutable component/service catalog.
type Registry struct {
	components map[string]ComponentSpec
	services   map[string]ServiceSpec
}

// New builds a registry from specs. Duplicate names across the two
// catalogs are rejected so a selection name is always unambiguous.
func New(components []ComponentSpec, services []ServiceSpec) (*Registry, error) {
	r := &Registry{
		components: make(map[string]ComponentSpec, len(components)),
		services:   make(map[string]ServiceSpec, len(services)),
	}

	for _, c := range components {
		if c.Name == "" {
			return nil, fmt.Errorf("component with empty name")
		}
		if _, exists := r.components[c.Name]; exists {
			return nil, fmt.Errorf("duplicate component '%s'", c.Name)
		}
		r.components[c.Name] = c
	}

	for _, s := range services {
		if s.Name == "" {
			return nil, fmt.Errorf("service with empty name")
		}
		if _, exists := r.components[s.Name]; exists {
			return nil, fmt.Errorf("'%s' is both a component and a service", s.Name)
		}
		if _, exists := r.services[s.Name]; exists {
			return nil, fmt.Errorf("duplicate service '%s'", s.Name)
		}
		r.services[s.Name] = s
	}

	return r, nil
}

// Component looks up a component spec by name.
func (r *Registry) Component(name string) (ComponentSpec, bool) {
	c, ok := r.components[name]
	return c, ok
}

// Service looks up a service spec by name.
func (r *Registry) Service(name string) (ServiceSpec, bool) {
	s, ok := r.services[name]
	return s, ok
}

// ComponentNames returns all component names in sorted order.
func (r *Registry) ComponentNames() []string {
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ServiceNames returns all service names in sorted order.
func (r *Registry) ServiceNames() []string {
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tables collects the TableSpecs of the named components, in name order.
func (r *Registry) Tables(names []string) []migration.TableSpec {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	var tables []migration.TableSpec
	for _, name := range sorted {
		if c, ok := r.components[name]; ok {
			tables = append(tables, c.Tables...)
		}
	}
	return tables
}

// ValidationError reports unknown or conflicting selection members. It is
// always a pre-mutation failure: nothing has been touched when it surfaces.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid selection: " + strings.Join(e.Problems, "; ")
}

// Resolve expands a selection into its transitive closure and verifies it
// is conflict-free.
//
// Expansion follows requires edges (services contribute their required
// components) until a fixed point; recommends is informational and never
// auto-added. After closure, every member's conflicts set is intersected
// with the result. The returned slice is sorted, so resolving the same
// selection always yields the same value and Resolve(Resolve(S)) == Resolve(S).
func (r *Registry) Resolve(selected []string) ([]string, error) {
	resolved := make(map[string]bool)
	unknown := make(map[string]bool)

	queue := append([]string(nil), selected...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if resolved[name] || unknown[name] {
			continue
		}

		if c, ok := r.components[name]; ok {
			resolved[name] = true
			queue = append(queue, c.Requires...)
			continue
		}
		if s, ok := r.services[name]; ok {
			resolved[name] = true
			queue = append(queue, s.RequiredComponents...)
			continue
		}
		unknown[name] = true
	}

	if len(unknown) > 0 {
		names := make([]string, 0, len(unknown))
		for name := range unknown {
			names = append(names, name)
		}
		sort.Strings(names)
		problems := make([]string, len(names))
		for i, name := range names {
			problems[i] = fmt.Sprintf("unknown component or service '%s'", name)
		}
		return nil, &ValidationError{Problems: problems}
	}

	result := make([]string, 0, len(resolved))
	for name := range resolved {
		result = append(result, name)
	}
	sort.Strings(result)

	// Pairwise conflict check over the closed set. Sorted iteration keeps
	// diagnostic ordering stable.
	var conflicts []string
	for _, name := range result {
		c, ok := r.components[name]
		if !ok {
			continue
		}
		for _, other := range c.Conflicts {
			if resolved[other] {
				conflicts = append(conflicts, fmt.Sprintf("'%s' conflicts with '%s'", name, other))
			}
		}
	}
	if len(conflicts) > 0 {
		return nil, &ValidationError{Problems: conflicts}
	}

	return result, nil
}
