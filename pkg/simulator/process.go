package simulator

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/picogrid/vectorial-cli/pkg/logger"
	"github.com/picogrid/vectorial-cli/pkg/utils"
	"github.com/picogrid/vectorial-cli/pkg/vmodel"
)

// Backend names registered in DefaultRegistry.
const (
	BackendPyvectorial = "pyvectorial"
	BackendDryRun      = "dry-run"
)

// ManifestFile is written by the driver into every output directory.
const ManifestFile = "manifest.yaml"

//go:embed driver/pyvectorial_driver.py
var driverScript []byte

// Process runs the simulation library through a Python driver script in a
// child process. Every run or load gets its own output directory.
type Process struct {
	opts Options
}

// NewProcess creates a process backend. Empty options fall back to python3
// and a vmodel-runs directory under the working directory.
func NewProcess(opts Options) Simulator {
	if opts.Python == "" {
		opts.Python = "python3"
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "vmodel-runs"
	}
	return &Process{opts: opts}
}

// Name returns the backend name.
func (p *Process) Name() string {
	return BackendPyvectorial
}

// CanRead checks that a configuration file parses, or probes a saved
// result without loading it for display.
func (p *Process) CanRead(ctx context.Context, path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	if utils.IsConfigFile(path) {
		_, err := vmodel.Read(path)
		return err == nil
	}
	_, err := p.invoke(ctx, "probe", "--result", path)
	return err == nil
}

// Run simulates the configuration file at configPath and records the
// output toggles it carries.
func (p *Process) Run(ctx context.Context, configPath string) (*Result, error) {
	id, dir, err := p.newOutputDir()
	if err != nil {
		return nil, err
	}

	if _, err := p.invoke(ctx, "run", "--config", configPath, "--out", dir); err != nil {
		removeOutputDir(dir)
		return nil, err
	}

	res, err := LoadManifest(dir)
	if err != nil {
		removeOutputDir(dir)
		return nil, &FailureError{Backend: p.Name(), Op: "run", Reason: "unreadable output", Err: err}
	}
	res.ID = id
	res.Backend = p.Name()
	res.ConfigPath = configPath
	if raw, err := vmodel.Read(configPath); err == nil {
		outputs := vmodel.OutputsOf(raw)
		res.Outputs = &outputs
	}
	return res, nil
}

// ReadSavedResult loads a previously pickled result.
func (p *Process) ReadSavedResult(ctx context.Context, path string) (*Result, error) {
	id, dir, err := p.newOutputDir()
	if err != nil {
		return nil, err
	}

	if _, err := p.invoke(ctx, "load", "--result", path, "--out", dir); err != nil {
		removeOutputDir(dir)
		return nil, err
	}

	res, err := LoadManifest(dir)
	if err != nil {
		removeOutputDir(dir)
		return nil, &FailureError{Backend: p.Name(), Op: "load", Reason: "unreadable output", Err: err}
	}
	res.ID = id
	res.Backend = p.Name()
	res.Saved = true
	return res, nil
}

func (p *Process) newOutputDir() (string, string, error) {
	id := uuid.New().String()
	dir := filepath.Join(p.opts.OutputDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return id, dir, nil
}

// removeOutputDir drops the directory of a run that produced nothing usable.
func removeOutputDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logger.Warnf("Failed to remove %s: %v", dir, err)
	}
}

// invoke runs one driver operation and returns its stdout. Any non-zero exit
// becomes a FailureError.
func (p *Process) invoke(ctx context.Context, op string, args ...string) ([]byte, error) {
	script, cleanup, err := p.script()
	if err != nil {
		return nil, &FailureError{Backend: p.Name(), Op: op, Reason: "driver unavailable", Err: err}
	}
	defer cleanup()

	cmd := exec.CommandContext(ctx, p.opts.Python, append([]string{script, op}, args...)...)
	cmd.Env = append(os.Environ(), "MPLBACKEND=Agg")
	cmd.Env = append(cmd.Env, p.opts.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		failure := &FailureError{Backend: p.Name(), Op: op, Stderr: stderr.String()}

		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			failure.Reason = "cancelled"
			failure.Err = ctx.Err()
		case errors.As(err, &exitErr):
			failure.Reason = fmt.Sprintf("exit code %d", exitErr.ExitCode())
		default:
			failure.Reason = "could not start " + p.opts.Python
			failure.Err = err
		}
		return nil, failure
	}

	return stdout.Bytes(), nil
}

// script returns the driver path, extracting the embedded driver to a
// temporary file when no script is configured.
func (p *Process) script() (string, func(), error) {
	if p.opts.Script != "" {
		return p.opts.Script, func() {}, nil
	}

	f, err := os.CreateTemp("", "vmodel-driver-*.py")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.Remove(f.Name()) }

	if _, err := f.Write(driverScript); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}

type manifest struct {
	Figures []Figure `yaml:"figures"`
	Panels  []struct {
		Panel `yaml:",inline"`
		File  string `yaml:"file"`
	} `yaml:"panels"`
}

// LoadManifest reads the manifest in dir and the panel texts it refers to.
// Figure paths are made relative to the working directory.
func LoadManifest(dir string) (*Result, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	res := &Result{OutputDir: dir}
	for _, f := range m.Figures {
		f.Path = filepath.Join(dir, f.Path)
		res.Figures = append(res.Figures, f)
	}
	for _, entry := range m.Panels {
		text, err := os.ReadFile(filepath.Join(dir, entry.File))
		if err != nil {
			return nil, fmt.Errorf("failed to read panel %s: %w", entry.Kind, err)
		}
		panel := entry.Panel
		panel.Text = string(text)
		res.Panels = append(res.Panels, panel)
	}

	return res, nil
}
