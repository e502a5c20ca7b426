package vmodel

// Kind is the declared type of a configuration field.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindBool
	KindText
	KindVariation
	KindTransform
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "non-negative real"
	case KindInt:
		return "non-negative integer"
	case KindBool:
		return "boolean"
	case KindText:
		return "text"
	case KindVariation:
		return "time variation type"
	case KindTransform:
		return "transform method"
	default:
		return "unknown"
	}
}

// Field declares one configuration field: where it lives in the file, what
// type it has and how it lands in a Configuration.
type Field struct {
	Path     Path
	Kind     Kind
	Label    string
	Optional bool
	assign   func(c *Configuration, v interface{})
}

// Section is the top-level key the field belongs to.
func (f Field) Section() string { return f.Path[0] }

// Key is the field's own key within its section.
func (f Field) Key() string { return f.Path[len(f.Path)-1] }

func floatField(section, key, label string, set func(*Configuration, float64)) Field {
	return Field{
		Path:   Path{section, key},
		Kind:   KindFloat,
		Label:  label,
		assign: func(c *Configuration, v interface{}) { set(c, v.(float64)) },
	}
}

func intField(section, key, label string, set func(*Configuration, int)) Field {
	return Field{
		Path:   Path{section, key},
		Kind:   KindInt,
		Label:  label,
		assign: func(c *Configuration, v interface{}) { set(c, v.(int)) },
	}
}

func textField(section, key, label string, set func(*Configuration, string)) Field {
	return Field{
		Path:     Path{section, key},
		Kind:     KindText,
		Label:    label,
		Optional: true,
		assign:   func(c *Configuration, v interface{}) { set(c, v.(string)) },
	}
}

// Fields is the validation order. Validate stops at the first field that
// fails, so earlier entries win when several are wrong.
var Fields = []Field{
	floatField("production", "base_q", "Base Q", func(c *Configuration, v float64) { c.Production.BaseQ = v }),
	{
		Path:  Path{"production", "time_variation_type"},
		Kind:  KindVariation,
		Label: "Time Variation",
		assign: func(c *Configuration, v interface{}) {
			c.Production.TimeVariation = v.(TimeVariation)
		},
	},

	textField("parent", "name", "Parent Name", func(c *Configuration, v string) { c.Parent.Name = v }),
	floatField("parent", "v_outflow", "Outflow Velocity", func(c *Configuration, v float64) { c.Parent.VOutflow = v }),
	floatField("parent", "tau_d", "Tau_D", func(c *Configuration, v float64) { c.Parent.TauD = v }),
	floatField("parent", "tau_T", "Parent Tau_T", func(c *Configuration, v float64) { c.Parent.TauT = v }),
	floatField("parent", "sigma", "Sigma", func(c *Configuration, v float64) { c.Parent.Sigma = v }),
	floatField("parent", "T_to_d_ratio", "T to D Ratio", func(c *Configuration, v float64) { c.Parent.TToDRatio = v }),

	textField("fragment", "name", "Fragment Name", func(c *Configuration, v string) { c.Fragment.Name = v }),
	floatField("fragment", "v_photo", "VPhoto", func(c *Configuration, v float64) { c.Fragment.VPhoto = v }),
	floatField("fragment", "tau_T", "Fragment Tau_T", func(c *Configuration, v float64) { c.Fragment.TauT = v }),

	textField("comet", "name", "Comet Name", func(c *Configuration, v string) { c.Comet.Name = v }),
	floatField("comet", "rh", "Rh", func(c *Configuration, v float64) { c.Comet.Rh = v }),
	textField("comet", "delta", "Comet Delta", func(c *Configuration, v string) { c.Comet.Delta = v }),
	{
		Path:  Path{"comet", "transform_method"},
		Kind:  KindTransform,
		Label: "Transformation Method",
		assign: func(c *Configuration, v interface{}) {
			c.Comet.TransformMethod = v.(TransformMethod)
			c.Comet.TransformApplied = c.Comet.TransformMethod != TransformNone
		},
	},

	intField("grid", "angular_points", "Angular Points", func(c *Configuration, v int) { c.Grid.AngularPoints = v }),
	intField("grid", "radial_points", "Radial Points", func(c *Configuration, v int) { c.Grid.RadialPoints = v }),
	intField("grid", "radial_substeps", "Radial Substeps", func(c *Configuration, v int) { c.Grid.RadialSubsteps = v }),
}

// Sections lists the form sections in file order, output options excluded.
var Sections = []string{"production", "parent", "fragment", "comet", "grid"}

// VariationParam is one parameter of a time-variation kind.
type VariationParam struct {
	Key   string
	Label string
}

var variationParams = map[TimeVariationKind][]VariationParam{
	VariationSine:     {{"amplitude", "Amplitude"}, {"period", "Period"}, {"delta", "Delta"}},
	VariationGaussian: {{"amplitude", "Amplitude"}, {"std_dev", "Standard Deviation"}, {"t_max", "Time at Peak"}},
	VariationSquare:   {{"amplitude", "Amplitude"}, {"duration", "Duration"}, {"t_start", "Start Time"}},
}

// VariationParams returns the parameters required by kind, in file order.
// The none kind has no parameters.
func VariationParams(kind TimeVariationKind) []VariationParam {
	return variationParams[kind]
}

type paramValue struct {
	key   string
	value float64
}

func (tv TimeVariation) params() []paramValue {
	var values []float64
	switch {
	case tv.Kind == VariationSine && tv.Sine != nil:
		values = []float64{tv.Sine.Amplitude, tv.Sine.Period, tv.Sine.Delta}
	case tv.Kind == VariationGaussian && tv.Gaussian != nil:
		values = []float64{tv.Gaussian.Amplitude, tv.Gaussian.StdDev, tv.Gaussian.TMax}
	case tv.Kind == VariationSquare && tv.Square != nil:
		values = []float64{tv.Square.Amplitude, tv.Square.Duration, tv.Square.TStart}
	default:
		return nil
	}

	out := make([]paramValue, len(values))
	for i, p := range variationParams[tv.Kind] {
		out[i] = paramValue{key: p.Key, value: values[i]}
	}
	return out
}

// newTimeVariation builds the variant for kind from values ordered as
// VariationParams(kind).
func newTimeVariation(kind TimeVariationKind, values []float64) TimeVariation {
	tv := TimeVariation{Kind: kind}
	switch kind {
	case VariationSine:
		tv.Sine = &SineParams{Amplitude: values[0], Period: values[1], Delta: values[2]}
	case VariationGaussian:
		tv.Gaussian = &GaussianParams{Amplitude: values[0], StdDev: values[1], TMax: values[2]}
	case VariationSquare:
		tv.Square = &SquareParams{Amplitude: values[0], Duration: values[1], TStart: values[2]}
	}
	return tv
}

// Lookup returns the value at p in raw. A non-mapping value in the middle
// of the path counts as absent.
func (p Path) Lookup(raw Mapping) (interface{}, bool) { return lookup(raw, p) }

// Set stores v at p in raw, creating intermediate mappings.
func (p Path) Set(raw Mapping, v interface{}) {
	cur := raw
	for _, key := range p[:len(p)-1] {
		next, ok := cur[key].(Mapping)
		if !ok {
			next = Mapping{}
			cur[key] = next
		}
		cur = next
	}
	cur[p[len(p)-1]] = v
}

// Raw converts cfg back into the untyped form Validate accepts.
func Raw(cfg *Configuration) (Mapping, error) {
	data, err := Serialize(cfg)
	if err != nil {
		return nil, err
	}
	return Deserialize(data)
}

// Text renders a raw scalar the way a user would type it. Null is empty.
func Text(v interface{}) string { return toText(v) }
