package vmodel

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// maxExactInt bounds integers recovered from reals.
const maxExactInt = 1 << 53

// Mapping is an untyped nested document, as produced by Deserialize or by
// the interactive form.
type Mapping = map[string]interface{}

// Request carries the per-run state that does not come from the raw input.
type Request struct {
	// Outputs replaces whatever etc section the input carried.
	Outputs OutputOptions
	// Now stamps pyv_date_of_run; time.Now when nil.
	Now func() time.Time
}

// Validate converts raw into a Configuration, checking Fields in order and
// returning the first failure.
func Validate(raw Mapping, req Request) (*Configuration, error) {
	cfg := &Configuration{}

	for _, f := range Fields {
		v, err := f.resolve(raw)
		if err != nil {
			return nil, err
		}
		f.assign(cfg, v)
	}

	now := req.Now
	if now == nil {
		now = time.Now
	}
	cfg.Etc = req.Outputs
	if req.Outputs.PyvComaPickle != nil {
		pickle := *req.Outputs.PyvComaPickle
		cfg.Etc.PyvComaPickle = &pickle
	}
	cfg.Etc.PyvDateOfRun = now()

	return cfg, nil
}

func (f Field) resolve(raw Mapping) (interface{}, error) {
	switch f.Kind {
	case KindVariation:
		return ValidateTimeVariation(raw)
	case KindTransform:
		return ValidateTransformMethod(raw)
	}

	if f.Optional {
		if _, ok := lookup(raw, f.Path); !ok {
			return zeroValue(f.Kind), nil
		}
	}
	return ValidateSection(raw, f.Path, f.Kind)
}

func zeroValue(kind Kind) interface{} {
	switch kind {
	case KindFloat:
		return float64(0)
	case KindInt:
		return 0
	case KindBool:
		return false
	default:
		return ""
	}
}

// ValidateSection looks up path in raw and validates the value found there
// as kind. Only scalar kinds are accepted.
func ValidateSection(raw Mapping, path Path, kind Kind) (interface{}, error) {
	v, ok := lookup(raw, path)
	if !ok {
		return nil, &MissingFieldError{Path: path}
	}

	var (
		out interface{}
		err error
	)
	switch kind {
	case KindFloat, KindInt:
		out, err = ValidateNumeric(v, kind)
	case KindBool:
		out, err = ValidateBoolean(v)
	case KindText:
		out = toText(v)
	default:
		err = &InvalidValueError{Expected: kind, Value: v}
	}

	if e, ok := err.(*InvalidValueError); ok {
		e.Path = path
	}
	return out, err
}

// ValidateNumeric parses raw as a non-negative KindFloat (float64) or
// KindInt (int). Integral reals such as "20.0" are accepted as integers.
func ValidateNumeric(raw interface{}, kind Kind) (interface{}, error) {
	switch kind {
	case KindFloat:
		return ValidateFloat(raw)
	case KindInt:
		return ValidateInt(raw)
	default:
		return nil, &InvalidValueError{Expected: kind, Value: raw}
	}
}

// ValidateFloat is ValidateNumeric for KindFloat with a typed result.
func ValidateFloat(raw interface{}) (float64, error) {
	f, ok := parseReal(raw)
	if !ok || f < 0 {
		return 0, &InvalidValueError{Expected: KindFloat, Value: raw}
	}
	return f, nil
}

// ValidateInt is ValidateNumeric for KindInt with a typed result.
func ValidateInt(raw interface{}) (int, error) {
	invalid := &InvalidValueError{Expected: KindInt, Value: raw}

	switch v := raw.(type) {
	case int:
		if v < 0 {
			return 0, invalid
		}
		return v, nil
	case int64:
		if v < 0 || v > math.MaxInt {
			return 0, invalid
		}
		return int(v), nil
	case uint64:
		if v > math.MaxInt {
			return 0, invalid
		}
		return int(v), nil
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 0); err == nil {
			if i < 0 {
				return 0, invalid
			}
			return int(i), nil
		}
	}

	f, ok := parseReal(raw)
	if !ok || f < 0 || f != math.Trunc(f) || f > maxExactInt {
		return 0, invalid
	}
	return int(f), nil
}

// parseReal accepts YAML numbers and numeric strings; NaN and infinities
// are rejected.
func parseReal(raw interface{}) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case uint:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ValidateBoolean accepts booleans, the strings understood by
// strconv.ParseBool and the integers 0 and 1.
func ValidateBoolean(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b, nil
		}
	case int:
		if v == 0 || v == 1 {
			return v == 1, nil
		}
	}
	return false, &InvalidValueError{Expected: KindBool, Value: raw}
}

// ValidateTimeVariation reads production.time_variation_type and validates
// exactly the parameters of the declared kind under production.params. Null
// and "none" mean no variation.
func ValidateTimeVariation(raw Mapping) (TimeVariation, error) {
	path := Path{"production", "time_variation_type"}
	v, ok := lookup(raw, path)
	if !ok {
		return TimeVariation{}, &MissingFieldError{Path: path}
	}
	if isNone(v) {
		return TimeVariation{Kind: VariationNone}, nil
	}

	kind, recognized := matchVariation(v)
	if !recognized {
		allowed := []string{"null", NoneText}
		for _, k := range VariationKinds {
			allowed = append(allowed, string(k))
		}
		return TimeVariation{}, &UnrecognizedVariantError{Path: path, Got: v, Allowed: allowed}
	}

	params := VariationParams(kind)
	values := make([]float64, len(params))
	for i, p := range params {
		f, err := ValidateSection(raw, Path{"production", "params", p.Key}, KindFloat)
		if err != nil {
			return TimeVariation{}, err
		}
		values[i] = f.(float64)
	}

	return newTimeVariation(kind, values), nil
}

func matchVariation(v interface{}) (TimeVariationKind, bool) {
	s, ok := v.(string)
	if !ok {
		return VariationNone, false
	}
	for _, k := range VariationKinds {
		if s == string(k) {
			return k, true
		}
	}
	return VariationNone, false
}

// ValidateTransformMethod reads comet.transform_method, which must be one of
// TransformMethods, null or "none". A transform_applied key, when present,
// must be a boolean; the applied flag itself always follows the method.
func ValidateTransformMethod(raw Mapping) (TransformMethod, error) {
	path := Path{"comet", "transform_method"}
	v, ok := lookup(raw, path)
	if !ok {
		return TransformNone, &MissingFieldError{Path: path}
	}

	method := TransformNone
	if !isNone(v) {
		s, _ := v.(string)
		found := false
		for _, m := range TransformMethods {
			if s == string(m) {
				method, found = m, true
				break
			}
		}
		if !found {
			allowed := []string{"null", NoneText}
			for _, m := range TransformMethods {
				allowed = append(allowed, string(m))
			}
			return TransformNone, &UnrecognizedVariantError{Path: path, Got: v, Allowed: allowed}
		}
	}

	appliedPath := Path{"comet", "transform_applied"}
	if _, ok := lookup(raw, appliedPath); ok {
		if _, err := ValidateSection(raw, appliedPath, KindBool); err != nil {
			return TransformNone, err
		}
	}

	return method, nil
}

// NoneText is the form spelling of a null variation kind or transform
// method.
const NoneText = "none"

func isNone(v interface{}) bool {
	return v == nil || v == NoneText
}

// lookup walks path through nested mappings. A non-mapping value in the
// middle of the path counts as absent.
func lookup(raw Mapping, path Path) (interface{}, bool) {
	var cur interface{} = raw
	for _, key := range path {
		m, ok := asMapping(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asMapping(v interface{}) (Mapping, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, m != nil
	case map[interface{}]interface{}:
		out := make(Mapping, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func toText(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return strings.TrimSpace(describe(val))
	}
}
