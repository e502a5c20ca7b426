package simulator

import (
	"context"

	"github.com/google/uuid"

	"github.com/picogrid/vectorial-cli/pkg/utils"
	"github.com/picogrid/vectorial-cli/pkg/vmodel"
)

// DryRun re-reads and validates the configuration file without simulating.
// Its result carries a single configuration panel.
type DryRun struct {
	opts Options
}

// NewDryRun creates the dry-run backend.
func NewDryRun(opts Options) Simulator {
	return &DryRun{opts: opts}
}

func (d *DryRun) Name() string {
	return BackendDryRun
}

// CanRead accepts configuration files that parse. Saved results are not
// understood.
func (d *DryRun) CanRead(_ context.Context, path string) bool {
	if !utils.IsConfigFile(path) {
		return false
	}
	_, err := vmodel.Read(path)
	return err == nil
}

func (d *DryRun) Run(ctx context.Context, configPath string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FailureError{Backend: d.Name(), Op: "run", Reason: "cancelled", Err: err}
	}

	raw, err := vmodel.Read(configPath)
	if err != nil {
		return nil, &FailureError{Backend: d.Name(), Op: "run", Reason: "unreadable configuration", Err: err}
	}
	outputs := vmodel.OutputsOf(raw)
	cfg, err := vmodel.Validate(raw, vmodel.Request{Outputs: outputs})
	if err != nil {
		return nil, &FailureError{Backend: d.Name(), Op: "run", Reason: "invalid configuration", Err: err}
	}

	return &Result{
		ID:         uuid.New().String(),
		Backend:    d.Name(),
		ConfigPath: configPath,
		Outputs:    &outputs,
		Panels: []Panel{{
			Kind:  PanelConfiguration,
			Title: "Configuration",
			Text:  cfg.String(),
		}},
	}, nil
}

func (d *DryRun) ReadSavedResult(_ context.Context, path string) (*Result, error) {
	return nil, &FailureError{Backend: d.Name(), Op: "load", Reason: "saved results need the " + BackendPyvectorial + " backend"}
}
