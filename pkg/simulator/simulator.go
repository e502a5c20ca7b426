// Package simulator is the boundary to the external vectorial-model
// simulation. A Simulator takes a configuration file written by vmodel and
// returns figures and text panels produced by the simulation library.
package simulator

import (
	"context"

	"github.com/picogrid/vectorial-cli/pkg/vmodel"
)

// Simulator runs the external simulation.
type Simulator interface {
	// Name returns the backend name.
	Name() string

	// CanRead reports whether the backend understands the file at path.
	CanRead(ctx context.Context, path string) bool

	// Run simulates the configuration file at configPath.
	Run(ctx context.Context, configPath string) (*Result, error)

	// ReadSavedResult loads a previously pickled result.
	ReadSavedResult(ctx context.Context, path string) (*Result, error)
}

// PlotKind identifies a figure produced by the simulation.
type PlotKind string

const (
	PlotRadial                   PlotKind = "radial"
	PlotFragmentSputter          PlotKind = "fragment_sputter"
	PlotColumnDensity            PlotKind = "column_density"
	PlotColumnDensity3DOffCenter PlotKind = "column_density_3d_off_center"
	PlotColumnDensity3DCentered  PlotKind = "column_density_3d_centered"
)

// PlotKinds lists every figure in results-tab order.
var PlotKinds = []PlotKind{
	PlotFragmentSputter,
	PlotRadial,
	PlotColumnDensity,
	PlotColumnDensity3DOffCenter,
	PlotColumnDensity3DCentered,
}

var plotToggles = map[PlotKind]string{
	PlotRadial:                   "show_radial_plots",
	PlotFragmentSputter:          "show_fragment_sputter",
	PlotColumnDensity:            "show_column_density_plots",
	PlotColumnDensity3DOffCenter: "show_3d_column_density_off_center",
	PlotColumnDensity3DCentered:  "show_3d_column_density_centered",
}

// Toggle returns the etc key that switches the figure on or off.
func (k PlotKind) Toggle() string { return plotToggles[k] }

// PanelKind identifies a text panel produced by the simulation.
type PanelKind string

const (
	PanelRadialDensity  PanelKind = "radial_density"
	PanelColumnDensity  PanelKind = "column_density"
	PanelAgreementCheck PanelKind = "agreement_check"
	PanelApertureChecks PanelKind = "aperture_checks"
	PanelConfiguration  PanelKind = "configuration"
)

// PanelKinds lists the panels the simulation library can print.
var PanelKinds = []PanelKind{
	PanelRadialDensity,
	PanelColumnDensity,
	PanelAgreementCheck,
	PanelApertureChecks,
}

var panelToggles = map[PanelKind]string{
	PanelRadialDensity:  "print_radial_density",
	PanelColumnDensity:  "print_column_density",
	PanelAgreementCheck: "show_agreement_check",
	PanelApertureChecks: "show_aperture_checks",
}

// Toggle returns the etc key that switches the panel on or off. The
// configuration panel has none.
func (k PanelKind) Toggle() string { return panelToggles[k] }

// Figure is a rendered plot saved by the simulation.
type Figure struct {
	Kind  PlotKind `yaml:"kind"`
	Title string   `yaml:"title"`
	Path  string   `yaml:"file"`
}

// Panel is text printed by the simulation.
type Panel struct {
	Kind  PanelKind `yaml:"kind"`
	Title string    `yaml:"title"`
	Text  string    `yaml:"-"`
}

// Result is the outcome of one run or one loaded result file.
type Result struct {
	ID         string
	Backend    string
	ConfigPath string
	OutputDir  string
	// Saved is set for results read from a pickle rather than simulated.
	Saved bool
	// Outputs are the toggles of the run's configuration; nil shows
	// everything.
	Outputs *vmodel.OutputOptions
	Figures []Figure
	Panels  []Panel
}

// Shows reports whether the output switched by toggle is enabled for this
// result. An empty toggle is always shown.
func (r *Result) Shows(toggle string) bool {
	if r.Outputs == nil || toggle == "" {
		return true
	}
	t, ok := vmodel.LookupToggle(toggle)
	return !ok || t.Get(*r.Outputs)
}

// Figure returns the figure of the given kind.
func (r *Result) Figure(kind PlotKind) (Figure, bool) {
	for _, f := range r.Figures {
		if f.Kind == kind {
			return f, true
		}
	}
	return Figure{}, false
}

// Panel returns the text panel of the given kind.
func (r *Result) Panel(kind PanelKind) (Panel, bool) {
	for _, p := range r.Panels {
		if p.Kind == kind {
			return p, true
		}
	}
	return Panel{}, false
}
