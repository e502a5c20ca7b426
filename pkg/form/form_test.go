package form

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picogrid/vectorial-cli/pkg/logger"
	"github.com/picogrid/vectorial-cli/pkg/vmodel"
)

// scripted answers prompts by message and falls back to each prompt's
// default, recording every message asked.
type scripted struct {
	answers map[string]interface{}
	asked   []string
}

func (s *scripted) ask(p survey.Prompt, response interface{}, _ ...survey.AskOpt) error {
	var msg string
	var def interface{}
	switch prompt := p.(type) {
	case *survey.Input:
		msg, def = prompt.Message, prompt.Default
	case *survey.Select:
		msg, def = prompt.Message, prompt.Default
	case *survey.MultiSelect:
		msg, def = prompt.Message, prompt.Default
	case *survey.Confirm:
		msg, def = prompt.Message, prompt.Default
	}
	s.asked = append(s.asked, msg)
	if answer, ok := s.answers[msg]; ok {
		def = answer
	}

	switch r := response.(type) {
	case *string:
		*r, _ = def.(string)
	case *[]string:
		*r, _ = def.([]string)
	case *bool:
		*r, _ = def.(bool)
	}
	return nil
}

func stubAsk(t *testing.T, answers map[string]interface{}) *scripted {
	t.Helper()
	s := &scripted{answers: answers}
	previous := ask
	ask = s.ask
	t.Cleanup(func() { ask = previous })

	logger.Configure(logger.Config{Level: logger.InfoLevel, Writer: &bytes.Buffer{}, NoColor: true})
	t.Cleanup(func() { logger.Configure(logger.Config{Level: logger.InfoLevel, ShowTime: true}) })
	return s
}

func validate(t *testing.T, answers *Answers) *vmodel.Configuration {
	t.Helper()
	cfg, err := vmodel.Validate(answers.Raw, vmodel.Request{Outputs: answers.Outputs})
	require.NoError(t, err)
	return cfg
}

func TestFillDefaultsMatchExample(t *testing.T) {
	s := stubAsk(t, nil)

	answers, err := Fill(nil)
	require.NoError(t, err)

	cfg := validate(t, answers)
	example := vmodel.Example()
	assert.Equal(t, example.Production, cfg.Production)
	assert.Equal(t, example.Parent, cfg.Parent)
	assert.Equal(t, example.Fragment, cfg.Fragment)
	assert.Equal(t, example.Comet, cfg.Comet)
	assert.Equal(t, example.Grid, cfg.Grid)
	assert.Equal(t, vmodel.AllOutputs(), answers.Outputs)
	assert.False(t, answers.KeepFile)

	assert.Equal(t, "Base Q:", s.asked[0])
	assert.Equal(t, "Time Variation:", s.asked[1])
}

func TestFillVariationAndTransform(t *testing.T) {
	s := stubAsk(t, map[string]interface{}{
		"Time Variation:":        "square pulse",
		"Amplitude:":             "4e27",
		"Duration:":              "2",
		"Start Time:":            "10",
		"Transformation Method:": "festou_fortran",
		"Angular Points:":        "20.0",
		"Outputs:":               []string{"Print progress", "Aperture checks"},
		"Keep the configuration file after the run?": true,
	})

	answers, err := Fill(nil)
	require.NoError(t, err)
	assert.True(t, answers.KeepFile)
	assert.Contains(t, s.asked, "Duration:")
	assert.NotContains(t, s.asked, "Period:")

	cfg := validate(t, answers)
	assert.Equal(t, vmodel.TimeVariation{
		Kind:   vmodel.VariationSquare,
		Square: &vmodel.SquareParams{Amplitude: 4e27, Duration: 2, TStart: 10},
	}, cfg.Production.TimeVariation)
	assert.Equal(t, vmodel.TransformFestouFortran, cfg.Comet.TransformMethod)
	assert.True(t, cfg.Comet.TransformApplied)
	assert.Equal(t, 20, cfg.Grid.AngularPoints)

	assert.True(t, cfg.Etc.PrintProgress)
	assert.True(t, cfg.Etc.ShowApertureChecks)
	assert.False(t, cfg.Etc.ShowRadialPlots)
}

func TestFillInvalidAnswerSurfacesFirstError(t *testing.T) {
	stubAsk(t, map[string]interface{}{
		"Tau_D:":         "-1",
		"Radial Points:": "many",
	})

	answers, err := Fill(nil)
	require.NoError(t, err)

	_, err = vmodel.Validate(answers.Raw, vmodel.Request{})
	var invalid *vmodel.InvalidValueError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, vmodel.Path{"parent", "tau_d"}, invalid.Path)
}

func TestFillInterrupted(t *testing.T) {
	stubAsk(t, nil)
	ask = func(survey.Prompt, interface{}, ...survey.AskOpt) error { return terminal.InterruptErr }

	_, err := Fill(nil)
	assert.True(t, errors.Is(err, terminal.InterruptErr))
}

func TestFillSkipPrompts(t *testing.T) {
	s := stubAsk(t, nil)
	t.Setenv(EnvSkipPrompts, "true")
	t.Setenv("VMODEL_PRODUCTION_TIME_VARIATION_TYPE", "sine wave")
	t.Setenv("VMODEL_PRODUCTION_PARAMS_AMPLITUDE", "1e27")
	t.Setenv("VMODEL_PRODUCTION_PARAMS_PERIOD", "12")
	t.Setenv("VMODEL_PRODUCTION_PARAMS_DELTA", "0")
	t.Setenv("VMODEL_PARENT_TAU_T", "86430")
	t.Setenv("VMODEL_COMET_TRANSFORM_METHOD", "none")
	t.Setenv("VMODEL_ETC_SHOW_RADIAL_PLOTS", "false")
	t.Setenv("VMODEL_KEEP_FILE", "1")

	answers, err := Fill(nil)
	require.NoError(t, err)
	assert.Empty(t, s.asked)
	assert.True(t, answers.KeepFile)

	cfg := validate(t, answers)
	assert.Equal(t, vmodel.VariationSine, cfg.Production.TimeVariation.Kind)
	assert.Equal(t, 12.0, cfg.Production.TimeVariation.Sine.Period)
	assert.Equal(t, 86430.0, cfg.Parent.TauT)
	assert.Equal(t, vmodel.TransformNone, cfg.Comet.TransformMethod)
	assert.False(t, cfg.Etc.ShowRadialPlots)
	assert.True(t, cfg.Etc.ShowFragmentSputter)
}

func TestAskOutputsSkipRejectsBadBoolean(t *testing.T) {
	t.Setenv(EnvSkipPrompts, "true")
	t.Setenv("VMODEL_ETC_PRINT_PROGRESS", "sometimes")

	_, err := AskOutputs(vmodel.AllOutputs())
	assert.ErrorIs(t, err, vmodel.ErrInvalidValue)
	assert.ErrorContains(t, err, "VMODEL_ETC_PRINT_PROGRESS")
}

func TestEnvOverridesDefault(t *testing.T) {
	stubAsk(t, nil)
	t.Setenv("VMODEL_GRID_RADIAL_SUBSTEPS", "7")

	answers, err := Fill(nil)
	require.NoError(t, err)
	assert.Equal(t, 7, validate(t, answers).Grid.RadialSubsteps)
}

func TestFillFromDefaults(t *testing.T) {
	stubAsk(t, nil)

	defaults := vmodel.Example()
	defaults.Production.TimeVariation = vmodel.TimeVariation{
		Kind:     vmodel.VariationGaussian,
		Gaussian: &vmodel.GaussianParams{Amplitude: 1, StdDev: 2, TMax: 3},
	}
	defaults.Etc.PyvDateOfRun = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	answers, err := Fill(defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults.Production.TimeVariation, validate(t, answers).Production.TimeVariation)
}

func TestNumericValidator(t *testing.T) {
	validInt := numericValidator(vmodel.KindInt)
	assert.NoError(t, validInt("30"))
	assert.NoError(t, validInt("30.0"))
	assert.Error(t, validInt("30.5"))
	assert.Error(t, validInt("-1"))

	validFloat := numericValidator(vmodel.KindFloat)
	assert.NoError(t, validFloat("1e28"))
	err := validFloat("abc")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "expected a non-negative real"))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "VMODEL_PARENT_T_TO_D_RATIO", EnvKey(vmodel.Path{"parent", "T_to_d_ratio"}))
	assert.Equal(t, "VMODEL_PRODUCTION_PARAMS_STD_DEV", EnvKey(vmodel.Path{"production", "params", "std_dev"}))
}
