// Package form collects a vectorial-model configuration from the terminal.
// Every field comes from vmodel.Fields; the answers are returned untyped so
// that vmodel.Validate reports problems the same way it does for files.
package form

import (
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/picogrid/vectorial-cli/pkg/logger"
	"github.com/picogrid/vectorial-cli/pkg/vmodel"
)

// EnvSkipPrompts switches the form to environment-only input.
const EnvSkipPrompts = "VMODEL_SKIP_PROMPTS"

// ask is survey.AskOne outside of tests
var ask = survey.AskOne

// Answers is everything the form collected for one run.
type Answers struct {
	Raw      vmodel.Mapping
	Outputs  vmodel.OutputOptions
	KeepFile bool
}

// Skipping reports whether prompts are disabled through the environment.
func Skipping() bool {
	return os.Getenv(EnvSkipPrompts) == "true"
}

// EnvKey is the environment variable that supplies the value at path,
// e.g. VMODEL_PARENT_TAU_D.
func EnvKey(path vmodel.Path) string {
	return "VMODEL_" + strings.ToUpper(strings.Join(path, "_"))
}

// Fill asks for every configuration field, pre-filled from defaults (the
// example configuration when nil).
func Fill(defaults *vmodel.Configuration) (*Answers, error) {
	if defaults == nil {
		defaults = vmodel.Example()
	}
	prefill, err := vmodel.Raw(defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare defaults: %w", err)
	}

	raw := vmodel.Mapping{}
	for _, section := range vmodel.Sections {
		if !Skipping() {
			logger.LogSubSection(sectionTitle(section))
		}
		for _, f := range vmodel.Fields {
			if f.Section() != section {
				continue
			}
			if err := askField(raw, prefill, f); err != nil {
				return nil, fmt.Errorf("failed to get %s: %w", f.Label, err)
			}
		}
	}

	outputs, err := AskOutputs(defaults.Etc)
	if err != nil {
		return nil, fmt.Errorf("failed to get output options: %w", err)
	}
	outputs.PyvComaPickle = nil

	keep, err := AskKeepFile()
	if err != nil {
		return nil, fmt.Errorf("failed to get keep file choice: %w", err)
	}

	return &Answers{Raw: raw, Outputs: outputs, KeepFile: keep}, nil
}

func askField(raw, prefill vmodel.Mapping, f vmodel.Field) error {
	switch f.Kind {
	case vmodel.KindVariation:
		return askVariation(raw, prefill, f)
	case vmodel.KindTransform:
		method, err := askChoice(f, prefill, transformOptions())
		if err != nil {
			return err
		}
		f.Path.Set(raw, method)
		return nil
	default:
		value, err := askText(f.Path, f.Label, f.Kind, prefill)
		if err != nil {
			return err
		}
		f.Path.Set(raw, value)
		return nil
	}
}

func askVariation(raw, prefill vmodel.Mapping, f vmodel.Field) error {
	kind, err := askChoice(f, prefill, variationOptions())
	if err != nil {
		return err
	}
	f.Path.Set(raw, kind)
	if kind == nil {
		return nil
	}

	for _, p := range vmodel.VariationParams(vmodel.TimeVariationKind(kind.(string))) {
		path := vmodel.Path{"production", "params", p.Key}
		value, err := askText(path, p.Label, vmodel.KindFloat, prefill)
		if err != nil {
			return err
		}
		path.Set(raw, value)
	}
	return nil
}

// askText asks for a scalar typed as text. The environment value, when set,
// replaces the pre-filled default.
func askText(path vmodel.Path, label string, kind vmodel.Kind, prefill vmodel.Mapping) (string, error) {
	def := envOr(path, prefill)
	if Skipping() {
		return def, nil
	}

	prompt := &survey.Input{Message: label + ":", Default: def}
	var opts []survey.AskOpt
	if kind == vmodel.KindFloat || kind == vmodel.KindInt {
		opts = append(opts, survey.WithValidator(numericValidator(kind)))
	}

	var answer string
	if err := ask(prompt, &answer, opts...); err != nil {
		return "", err
	}
	return answer, nil
}

// askChoice asks for one of options; "none" becomes nil.
func askChoice(f vmodel.Field, prefill vmodel.Mapping, options []string) (interface{}, error) {
	def := envOr(f.Path, prefill)
	if def == "" {
		def = vmodel.NoneText
	}

	answer := def
	if !Skipping() {
		prompt := &survey.Select{Message: f.Label + ":", Options: options}
		if contains(options, def) {
			prompt.Default = def
		}
		if err := ask(prompt, &answer); err != nil {
			return nil, err
		}
	}

	if answer == vmodel.NoneText || answer == "" {
		return nil, nil
	}
	return answer, nil
}

// AskOutputs asks which print and show toggles to pass to the simulator.
// In skip mode each toggle reads VMODEL_ETC_<KEY>.
func AskOutputs(defaults vmodel.OutputOptions) (vmodel.OutputOptions, error) {
	outputs := defaults

	if Skipping() {
		for _, t := range vmodel.Toggles {
			key := EnvKey(vmodel.Path{"etc", t.Key})
			value, ok := os.LookupEnv(key)
			if !ok {
				continue
			}
			on, err := vmodel.ValidateBoolean(value)
			if err != nil {
				return outputs, fmt.Errorf("%s: %w", key, err)
			}
			t.Set(&outputs, on)
		}
		return outputs, nil
	}

	var options, selected []string
	for _, t := range vmodel.Toggles {
		options = append(options, t.Label)
		if t.Get(defaults) {
			selected = append(selected, t.Label)
		}
	}

	prompt := &survey.MultiSelect{
		Message:  "Outputs:",
		Options:  options,
		Default:  selected,
		PageSize: len(options),
	}
	var answer []string
	if err := ask(prompt, &answer); err != nil {
		return outputs, err
	}

	for _, t := range vmodel.Toggles {
		t.Set(&outputs, contains(answer, t.Label))
	}
	return outputs, nil
}

// AskKeepFile asks whether the generated run file should outlive the run.
func AskKeepFile() (bool, error) {
	if Skipping() {
		value, ok := os.LookupEnv("VMODEL_KEEP_FILE")
		if !ok {
			return false, nil
		}
		return vmodel.ValidateBoolean(value)
	}

	var keep bool
	prompt := &survey.Confirm{Message: "Keep the configuration file after the run?", Default: false}
	if err := ask(prompt, &keep); err != nil {
		return false, err
	}
	return keep, nil
}

// numericValidator gives inline feedback while typing numbers.
func numericValidator(kind vmodel.Kind) survey.Validator {
	return func(ans interface{}) error {
		if _, err := vmodel.ValidateNumeric(ans, kind); err != nil {
			return fmt.Errorf("expected a %s", kind)
		}
		return nil
	}
}

func envOr(path vmodel.Path, prefill vmodel.Mapping) string {
	if v := os.Getenv(EnvKey(path)); v != "" {
		return v
	}
	v, _ := path.Lookup(prefill)
	return vmodel.Text(v)
}

func variationOptions() []string {
	options := []string{vmodel.NoneText}
	for _, k := range vmodel.VariationKinds {
		options = append(options, string(k))
	}
	return options
}

func transformOptions() []string {
	options := []string{vmodel.NoneText}
	for _, m := range vmodel.TransformMethods {
		options = append(options, string(m))
	}
	return options
}

func sectionTitle(section string) string {
	return strings.ToUpper(section[:1]) + section[1:]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
