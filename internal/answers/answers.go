// Package answers reads and rewrites a project's .petrel.yml answers file.
//
// The answers file is the project's persisted configuration: where the
// template lives, which revision the project was generated from, and the
// component/service selection. It is created at generation time, read and
// rewritten on every update, and never deleted.
package answers

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the answers file name at the project root.
const FileName = ".petrel.yml"

// Document is the parsed answers file. Identity fields are kept explicit;
// everything else (backend choices, template-defined variables) rides in
// Extra and survives a rewrite untouched.
type Document struct {
	SrcPath     string          // template source location (_src_path)
	Commit      string          // template revision the project is on (_commit)
	ProjectSlug string          // project directory/name (project_slug)
	Include     map[string]bool // include_<name> selection flags
	Extra       map[string]any  // remaining keys, round-tripped verbatim
}

// New creates a document for a freshly generated project.
func New(srcPath, commit, slug string) *Document {
	return &Document{
		SrcPath:     srcPath,
		Commit:      commit,
		ProjectSlug: slug,
		Include:     make(map[string]bool),
		Extra:       make(map[string]any),
	}
}

// Load reads and parses the answers file at the project root. The template
// source location must be resolvable (fails loudly when _src_path is
// missing), because every later operation depends on it.
func Load(root string) (*Document, error) {
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	doc := &Document{
		Include: make(map[string]bool),
		Extra:   make(map[string]any),
	}

	for key, value := range raw {
		switch {
		case key == "_src_path":
			doc.SrcPath, _ = value.(string)
		case key == "_commit":
			doc.Commit, _ = value.(string)
		case key == "project_slug":
			doc.ProjectSlug, _ = value.(string)
		case strings.HasPrefix(key, "include_"):
			name := strings.TrimPrefix(key, "include_")
			doc.Include[name] = normalizeBool(value)
		default:
			doc.Extra[key] = value
		}
	}

	if doc.SrcPath == "" {
		return nil, fmt.Errorf("%s has no _src_path; cannot locate the template source", FileName)
	}

	return doc, nil
}

// Save writes the document back to the project root. Keys are emitted in a
// stable order so rewrites produce minimal diffs.
func (d *Document) Save(root string) error {
	raw := make(map[string]any, len(d.Extra)+len(d.Include)+3)
	raw["_src_path"] = d.SrcPath
	raw["_commit"] = d.Commit
	if d.ProjectSlug != "" {
		raw["project_slug"] = d.ProjectSlug
	}
	for name, on := range d.Include {
		raw["include_"+name] = on
	}
	for key, value := range d.Extra {
		raw[key] = value
	}

	var buf strings.Builder
	buf.WriteString("# Managed by petrel. Edit selections here, then run 'petrel update'.\n")

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		line, err := yaml.Marshal(map[string]any{key: raw[key]})
		if err != nil {
			return fmt.Errorf("encoding %s: %w", FileName, err)
		}
		buf.Write(line)
	}

	path := filepath.Join(root, FileName)
	if err := os.WriteFile(path, []byte(buf.String()), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", FileName, err)
	}
	return nil
}

// Selected returns the enabled component/service names in sorted order.
func (d *Document) Selected() []string {
	names := make([]string, 0, len(d.Include))
	for name, on := range d.Include {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Data flattens the document into template data: identity fields, native
// boolean include flags, and extras. This is the single boundary where the
// historical "yes"/"no" string flags collapse into booleans; core logic
// only ever sees bools.
func (d *Document) Data() map[string]any {
	data := make(map[string]any, len(d.Extra)+len(d.Include)+3)
	for key, value := range d.Extra {
		data[key] = value
	}
	data["_src_path"] = d.SrcPath
	data["_commit"] = d.Commit
	data["project_slug"] = d.ProjectSlug
	for name, on := range d.Include {
		data["include_"+name] = on
	}
	return data
}

// normalizeBool folds the two historical flag representations ("yes"/"no"
// strings and native booleans) into one.
func normalizeBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "yes", "y", "true", "on", "1":
			return true
		}
	case int:
		return val != 0
	}
	return false
}
