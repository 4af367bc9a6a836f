package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/petrelhq/petrel/internal/exec"
)

// ManifestName is the catalog file at the template repository root.
const ManifestName = "petrel.yml"

// manifest is the on-disk shape of petrel.yml.
type manifest struct {
	Components []ComponentSpec `yaml:"components"`
	Services   []ServiceSpec   `yaml:"services"`
	Tasks      []taskSpec      `yaml:"tasks"`
}

type taskSpec struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// Load reads the template manifest and builds the immutable registry plus
// the post-generation task list, in manifest order.
func Load(templateRoot string) (*Registry, []exec.Task, error) {
	path := filepath.Join(templateRoot, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// A template without a manifest offers no components
			empty, _ := New(nil, nil)
			return empty, nil, nil
		}
		return nil, nil, fmt.Errorf("reading %s: %w", ManifestName, err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", ManifestName, err)
	}

	reg, err := New(m.Components, m.Services)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid %s: %w", ManifestName, err)
	}

	tasks := make([]exec.Task, 0, len(m.Tasks))
	for _, t := range m.Tasks {
		tasks = append(tasks, exec.Task{Name: t.Name, Command: t.Command, Args: t.Args})
	}

	return reg, tasks, nil
}
