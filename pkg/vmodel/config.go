// Package vmodel holds the vectorial-model configuration: the typed record
// handed to the simulator, its validator and its YAML serializer.
package vmodel

import (
	"fmt"
	"strings"
	"time"
)

// TimeVariationKind selects the production-rate time profile.
type TimeVariationKind string

const (
	VariationNone     TimeVariationKind = ""
	VariationSine     TimeVariationKind = "sine wave"
	VariationGaussian TimeVariationKind = "gaussian"
	VariationSquare   TimeVariationKind = "square pulse"
)

// VariationKinds lists the recognized non-none kinds in display order.
var VariationKinds = []TimeVariationKind{VariationSine, VariationGaussian, VariationSquare}

// TransformMethod is the fragment-to-parent transform applied by the model.
type TransformMethod string

const (
	TransformNone              TransformMethod = ""
	TransformCochranSchleicher TransformMethod = "cochran_schleicher_93"
	TransformFestouFortran     TransformMethod = "festou_fortran"
)

// TransformMethods lists the recognized non-none methods.
var TransformMethods = []TransformMethod{TransformCochranSchleicher, TransformFestouFortran}

// Configuration is one validated simulation run.
type Configuration struct {
	Production Production    `yaml:"production"`
	Parent     Parent        `yaml:"parent"`
	Comet      Comet         `yaml:"comet"`
	Fragment   Fragment      `yaml:"fragment"`
	Grid       Grid          `yaml:"grid"`
	Etc        OutputOptions `yaml:"etc"`
}

// Production describes the parent production rate.
type Production struct {
	BaseQ         float64
	TimeVariation TimeVariation
}

// TimeVariation is a tagged variant: exactly the params record matching Kind
// is set, all others are nil.
type TimeVariation struct {
	Kind     TimeVariationKind
	Sine     *SineParams
	Gaussian *GaussianParams
	Square   *SquareParams
}

type SineParams struct {
	Amplitude float64
	Period    float64
	Delta     float64
}

type GaussianParams struct {
	Amplitude float64
	StdDev    float64
	TMax      float64
}

type SquareParams struct {
	Amplitude float64
	Duration  float64
	TStart    float64
}

// Parent is the parent molecule species.
type Parent struct {
	Name      string  `yaml:"name"`
	VOutflow  float64 `yaml:"v_outflow"`
	TauD      float64 `yaml:"tau_d"`
	TauT      float64 `yaml:"tau_T"`
	Sigma     float64 `yaml:"sigma"`
	TToDRatio float64 `yaml:"T_to_d_ratio"`
}

// Fragment is the photodissociation product species.
type Fragment struct {
	Name   string  `yaml:"name"`
	VPhoto float64 `yaml:"v_photo"`
	TauT   float64 `yaml:"tau_T"`
}

// Comet holds the observing geometry.
type Comet struct {
	Name             string          `yaml:"name"`
	Rh               float64         `yaml:"rh"`
	Delta            string          `yaml:"delta"`
	TransformMethod  TransformMethod `yaml:"-"`
	TransformApplied bool            `yaml:"-"`
}

// Grid is the numerical grid resolution.
type Grid struct {
	AngularPoints  int `yaml:"angular_points"`
	RadialPoints   int `yaml:"radial_points"`
	RadialSubsteps int `yaml:"radial_substeps"`
}

// OutputOptions are the print/show toggles passed through to the simulator.
type OutputOptions struct {
	PrintBinnedTimes             bool      `yaml:"print_binned_times"`
	PrintColumnDensity           bool      `yaml:"print_column_density"`
	PrintProgress                bool      `yaml:"print_progress"`
	PrintRadialDensity           bool      `yaml:"print_radial_density"`
	PyvComaPickle                *string   `yaml:"pyv_coma_pickle"`
	PyvDateOfRun                 time.Time `yaml:"pyv_date_of_run"`
	Show3dColumnDensityCentered  bool      `yaml:"show_3d_column_density_centered"`
	Show3dColumnDensityOffCenter bool      `yaml:"show_3d_column_density_off_center"`
	ShowAgreementCheck           bool      `yaml:"show_agreement_check"`
	ShowApertureChecks           bool      `yaml:"show_aperture_checks"`
	ShowColumnDensityPlots       bool      `yaml:"show_column_density_plots"`
	ShowFragmentSputter          bool      `yaml:"show_fragment_sputter"`
	ShowRadialPlots              bool      `yaml:"show_radial_plots"`
}

// AllOutputs returns options with every print and show toggle enabled.
func AllOutputs() OutputOptions {
	var o OutputOptions
	for _, t := range Toggles {
		*t.ref(&o) = true
	}
	return o
}

// Toggle names one boolean output option.
type Toggle struct {
	Key   string
	Label string
	ref   func(*OutputOptions) *bool
}

// Set switches the toggle on or off in o.
func (t Toggle) Set(o *OutputOptions, on bool) { *t.ref(o) = on }

// Get reports the toggle state in o.
func (t Toggle) Get(o OutputOptions) bool { return *t.ref(&o) }

// Toggles lists the boolean output options in file order.
var Toggles = []Toggle{
	{"print_binned_times", "Print binned times", func(o *OutputOptions) *bool { return &o.PrintBinnedTimes }},
	{"print_column_density", "Print column density", func(o *OutputOptions) *bool { return &o.PrintColumnDensity }},
	{"print_progress", "Print progress", func(o *OutputOptions) *bool { return &o.PrintProgress }},
	{"print_radial_density", "Print radial density", func(o *OutputOptions) *bool { return &o.PrintRadialDensity }},
	{"show_3d_column_density_centered", "3D column density (centered)", func(o *OutputOptions) *bool { return &o.Show3dColumnDensityCentered }},
	{"show_3d_column_density_off_center", "3D column density (off center)", func(o *OutputOptions) *bool { return &o.Show3dColumnDensityOffCenter }},
	{"show_agreement_check", "Fragment agreement check", func(o *OutputOptions) *bool { return &o.ShowAgreementCheck }},
	{"show_aperture_checks", "Aperture checks", func(o *OutputOptions) *bool { return &o.ShowApertureChecks }},
	{"show_column_density_plots", "Column density plots", func(o *OutputOptions) *bool { return &o.ShowColumnDensityPlots }},
	{"show_fragment_sputter", "Fragment sputter", func(o *OutputOptions) *bool { return &o.ShowFragmentSputter }},
	{"show_radial_plots", "Radial plots", func(o *OutputOptions) *bool { return &o.ShowRadialPlots }},
}

// LookupToggle finds a toggle by its file key.
func LookupToggle(key string) (Toggle, bool) {
	for _, t := range Toggles {
		if t.Key == key {
			return t, true
		}
	}
	return Toggle{}, false
}

// OutputsOf reads the toggles of the etc section of raw. A toggle that is
// missing or not a boolean counts as on.
func OutputsOf(raw Mapping) OutputOptions {
	o := AllOutputs()
	for _, t := range Toggles {
		v, ok := lookup(raw, Path{"etc", t.Key})
		if !ok {
			continue
		}
		if on, err := ValidateBoolean(v); err == nil {
			t.Set(&o, on)
		}
	}
	return o
}

// String returns a human-readable representation of the configuration
func (c *Configuration) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Production:\n  Base Q: %g\n  Time Variation: %s\n", c.Production.BaseQ, variationLabel(c.Production.TimeVariation.Kind))
	for _, p := range c.Production.TimeVariation.params() {
		fmt.Fprintf(&b, "    %s: %g\n", p.key, p.value)
	}

	fmt.Fprintf(&b, `
Parent:
  Name: %s
  Outflow Velocity: %g
  Tau D: %g
  Tau T: %g
  Sigma: %g
  T to D Ratio: %g

Fragment:
  Name: %s
  V Photo: %g
  Tau T: %g

Comet:
  Name: %s
  Rh: %g
  Delta: %s
  Transform Method: %s

Grid:
  Angular Points: %d
  Radial Points: %d
  Radial Substeps: %d
`,
		c.Parent.Name,
		c.Parent.VOutflow,
		c.Parent.TauD,
		c.Parent.TauT,
		c.Parent.Sigma,
		c.Parent.TToDRatio,
		c.Fragment.Name,
		c.Fragment.VPhoto,
		c.Fragment.TauT,
		c.Comet.Name,
		c.Comet.Rh,
		c.Comet.Delta,
		transformLabel(c.Comet.TransformMethod),
		c.Grid.AngularPoints,
		c.Grid.RadialPoints,
		c.Grid.RadialSubsteps,
	)

	return b.String()
}

func variationLabel(k TimeVariationKind) string {
	if k == VariationNone {
		return "none"
	}
	return string(k)
}

func transformLabel(m TransformMethod) string {
	if m == TransformNone {
		return "none"
	}
	return string(m)
}

// Example returns a populated configuration suitable as a starting template.
func Example() *Configuration {
	return &Configuration{
		Production: Production{BaseQ: 1e28},
		Parent: Parent{
			Name:      "h2o",
			VOutflow:  0.85,
			TauD:      86430,
			TauT:      86430,
			Sigma:     3e-16,
			TToDRatio: 0.93,
		},
		Fragment: Fragment{
			Name:   "oh",
			VPhoto: 1.05,
			TauT:   160000,
		},
		Comet: Comet{
			Name:  "generic",
			Rh:    1.0,
			Delta: "1.0",
		},
		Grid: Grid{
			AngularPoints:  30,
			RadialPoints:   50,
			RadialSubsteps: 12,
		},
		Etc: AllOutputs(),
	}
}
