package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/picogrid/vectorial-cli/pkg/simulator"
)

// BackendsFile is the profile store under Dir.
const BackendsFile = "backends.yaml"

// Backend is a named simulator profile: the registry backend to use and the
// Python environment it runs in.
type Backend struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Python string `yaml:"python,omitempty"`
	Script string `yaml:"script,omitempty"`
}

// Backends holds the configured simulator profiles
type Backends struct {
	Backends []Backend `yaml:"backends"`
	Selected string    `yaml:"selected,omitempty"`
}

// Dir returns the per-user configuration directory, $HOME/.vmodel.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".vmodel"), nil
}

// LoadBackends loads the profiles from the default location
func LoadBackends() (*Backends, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadBackendsFromFile(filepath.Join(dir, BackendsFile))
}

// LoadBackendsFromFile loads profiles from a specific file. A missing file
// yields the default profiles.
func LoadBackendsFromFile(path string) (*Backends, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaultBackends(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backends file: %w", err)
	}

	var b Backends
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse backends file: %w", err)
	}
	return &b, nil
}

// SaveBackends saves the profiles to the default location
func SaveBackends(b *Backends) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return SaveBackendsToFile(b, filepath.Join(dir, BackendsFile))
}

// SaveBackendsToFile saves the profiles to path
func SaveBackendsToFile(b *Backends, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal backends: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backends file: %w", err)
	}
	return nil
}

// Find returns the profile called name
func (b *Backends) Find(name string) (Backend, bool) {
	for _, backend := range b.Backends {
		if backend.Name == name {
			return backend, true
		}
	}
	return Backend{}, false
}

// Add appends a profile. Names are unique.
func (b *Backends) Add(backend Backend) error {
	if backend.Name == "" {
		return fmt.Errorf("backend name is required")
	}
	if _, exists := b.Find(backend.Name); exists {
		return fmt.Errorf("backend %s already exists", backend.Name)
	}
	b.Backends = append(b.Backends, backend)
	return nil
}

// Remove deletes the profile called name and reports whether it existed.
// Removing the selected profile clears the selection.
func (b *Backends) Remove(name string) bool {
	kept := make([]Backend, 0, len(b.Backends))
	for _, backend := range b.Backends {
		if backend.Name != name {
			kept = append(kept, backend)
		}
	}
	removed := len(kept) != len(b.Backends)
	b.Backends = kept
	if removed && b.Selected == name {
		b.Selected = ""
	}
	return removed
}

// Options converts the profile into simulator options
func (b Backend) Options(outputDir string) simulator.Options {
	return simulator.Options{
		Python:    b.Python,
		Script:    b.Script,
		OutputDir: outputDir,
	}
}

// Names returns the profile names in file order
func (b *Backends) Names() []string {
	names := make([]string, len(b.Backends))
	for i, backend := range b.Backends {
		names[i] = backend.Name
	}
	return names
}

// defaultBackends returns the profiles used before any are saved
func defaultBackends() *Backends {
	return &Backends{
		Backends: []Backend{
			{
				Name:   "default",
				Kind:   simulator.BackendPyvectorial,
				Python: "python3",
			},
			{
				Name: "offline",
				Kind: simulator.BackendDryRun,
			},
		},
		Selected: "default",
	}
}
