package config

import (
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read into Settings.
const EnvPrefix = "VMODEL"

// Settings are the tool-wide options read from config.yaml, VMODEL_*
// environment variables and flags.
type Settings struct {
	// Backend is the profile name from backends.yaml
	Backend string `mapstructure:"backend"`
	// Python overrides the interpreter of the selected profile
	Python    string `mapstructure:"python"`
	OutputDir string `mapstructure:"output_dir" default:"vmodel-runs"`
	// RunFile is where manual runs write their configuration
	RunFile  string `mapstructure:"run_file" default:"pyvectorial.yaml"`
	LogLevel string `mapstructure:"log_level" default:"info"`
	NoColor  bool   `mapstructure:"no_color"`
}

var settingsKeys = []string{"backend", "python", "output_dir", "run_file", "log_level", "no_color"}

// BindEnv makes v resolve every settings key from VMODEL_<KEY>.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	for _, key := range settingsKeys {
		_ = v.BindEnv(key)
	}
}

// LoadSettings reads whatever v resolved and fills the fields left empty
// with their defaults.
func LoadSettings(v *viper.Viper) (*Settings, error) {
	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := defaults.Set(s); err != nil {
		return nil, fmt.Errorf("failed to set defaults: %w", err)
	}
	return s, nil
}

// ResolveBackend picks the profile named by the settings, then the selected
// profile, then the first one. Python from the settings wins over the
// profile's.
func (s *Settings) ResolveBackend(b *Backends) (Backend, error) {
	name := s.Backend
	if name == "" {
		name = b.Selected
	}

	var backend Backend
	switch {
	case name != "":
		found, ok := b.Find(name)
		if !ok {
			return Backend{}, fmt.Errorf("backend %s not found", name)
		}
		backend = found
	case len(b.Backends) > 0:
		backend = b.Backends[0]
	default:
		return Backend{}, fmt.Errorf("no backends configured")
	}

	if s.Python != "" {
		backend.Python = s.Python
	}
	return backend, nil
}
