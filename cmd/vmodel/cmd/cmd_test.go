package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picogrid/vectorial-cli/pkg/config"
	"github.com/picogrid/vectorial-cli/pkg/form"
	"github.com/picogrid/vectorial-cli/pkg/logger"
	"github.com/picogrid/vectorial-cli/pkg/vmodel"
)

// execute runs the CLI with fresh flag values in an isolated home directory
// and returns the logged output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	cfgFile = ""

	var buf bytes.Buffer
	logger.Configure(logger.Config{Level: logger.InfoLevel, Writer: &buf, NoColor: true})
	t.Cleanup(func() { logger.Configure(logger.Config{Level: logger.InfoLevel, ShowTime: true}) })

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// sandbox gives each test its own home and working directory
func sandbox(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestInitAndValidate(t *testing.T) {
	dir := sandbox(t)

	_, err := execute(t, "init")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "pyvectorial.yaml"))

	_, err = execute(t, "init")
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "init", "--force")
	require.NoError(t, err)

	out, err := execute(t, "validate", "pyvectorial.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "pyvectorial.yaml  "+logger.IconCheck+" valid")
}

func TestValidateReportsFirstError(t *testing.T) {
	sandbox(t)
	require.NoError(t, vmodel.Write("good.yaml", vmodel.Example()))
	require.NoError(t, os.WriteFile("bad.yaml", []byte("production:\n  base_q: lots\n"), 0644))

	out, err := execute(t, "validate", "good.yaml", "bad.yaml")
	assert.ErrorContains(t, err, "1 of 2 files invalid")
	assert.Contains(t, out, `invalid value "lots" for "production.base_q"`)
}

func TestRunFilesWithDryRun(t *testing.T) {
	dir := sandbox(t)
	t.Setenv(form.EnvSkipPrompts, "true")
	t.Setenv("VMODEL_ETC_SHOW_RADIAL_PLOTS", "false")

	input := filepath.Join(dir, "inputs", "comet.yaml")
	require.NoError(t, vmodel.Write(input, vmodel.Example()))
	before, err := os.ReadFile(input)
	require.NoError(t, err)

	out, err := execute(t, "run", "--backend", "offline", "--output-dir", "runs", input)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration")

	after, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, before, after, "input file modified")

	runCfg, err := vmodel.Load(filepath.Join(dir, "runs", "configs", "001-comet.yaml"), vmodel.Request{})
	require.NoError(t, err)
	assert.Equal(t, vmodel.Example().Parent, runCfg.Parent)

	raw, err := vmodel.Read(filepath.Join(dir, "runs", "configs", "001-comet.yaml"))
	require.NoError(t, err)
	shown, _ := vmodel.Path{"etc", "show_radial_plots"}.Lookup(raw)
	assert.Equal(t, false, shown)
}

// driverScript is a pyvectorial driver stand-in run with sh. It always
// produces the radial figure and panel.
const driverScript = `
op=$1; shift
while [ $# -gt 0 ]; do
  [ "$1" = --out ] && out=$2
  shift
done
printf 'r n\n' > "$out/radial_density.txt"
: > "$out/radial.png"
cat > "$out/manifest.yaml" <<EOF
figures:
  - {kind: radial, title: Radial, file: radial.png}
panels:
  - {kind: radial_density, title: Radial Density, file: radial_density.txt}
EOF
`

func TestRunHidesSwitchedOffFigures(t *testing.T) {
	dir := sandbox(t)
	t.Setenv(form.EnvSkipPrompts, "true")
	t.Setenv("VMODEL_ETC_SHOW_RADIAL_PLOTS", "false")

	driver := filepath.Join(dir, "driver.sh")
	require.NoError(t, os.WriteFile(driver, []byte(driverScript), 0644))
	_, err := execute(t, "backend", "add", "fake", "--kind", "pyvectorial", "--python", "sh", "--script", driver)
	require.NoError(t, err)

	require.NoError(t, vmodel.Write("comet.yaml", vmodel.Example()))
	out, err := execute(t, "run", "--backend", "fake", "--output-dir", "runs", "comet.yaml")
	require.NoError(t, err)
	assert.NotContains(t, out, "radial.png")
	assert.Contains(t, out, "Radial Density")

	reports, err := filepath.Glob(filepath.Join(dir, "runs", "*", "report.txt"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	report, err := os.ReadFile(reports[0])
	require.NoError(t, err)
	assert.NotContains(t, string(report), "radial.png")
	assert.Contains(t, string(report), "Radial Density")
}

func TestRunBatchContinuesPastFailures(t *testing.T) {
	dir := sandbox(t)
	t.Setenv(form.EnvSkipPrompts, "true")

	configs := filepath.Join(dir, "batch")
	require.NoError(t, vmodel.Write(filepath.Join(configs, "a.yaml"), vmodel.Example()))
	require.NoError(t, os.WriteFile(filepath.Join(configs, "b.yaml"), []byte("grid: {"), 0644))
	require.NoError(t, vmodel.Write(filepath.Join(configs, "c.yml"), vmodel.Example()))

	out, err := execute(t, "run", "--backend", "offline", "--output-dir", "runs", "--dir", configs)
	assert.ErrorContains(t, err, "1 of 3 runs failed")
	assert.Contains(t, out, "100% (3/3)")
	assert.FileExists(t, filepath.Join(dir, "runs", "configs", "003-c.yml"))
}

func TestRunManualSkipPrompts(t *testing.T) {
	dir := sandbox(t)
	t.Setenv(form.EnvSkipPrompts, "true")

	_, err := execute(t, "run", "--mode", "manual", "--backend", "offline")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "pyvectorial.yaml"), "run file kept")

	_, err = execute(t, "run", "--mode", "manual", "--backend", "offline", "--keep-file", "--run-file", "kept.yaml")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "kept.yaml"))
}

func TestRunManualInvalidInput(t *testing.T) {
	sandbox(t)
	t.Setenv(form.EnvSkipPrompts, "true")
	t.Setenv("VMODEL_GRID_ANGULAR_POINTS", "-5")

	_, err := execute(t, "run", "--mode", "manual", "--backend", "offline")
	require.ErrorIs(t, err, vmodel.ErrInvalidValue)
	assert.ErrorContains(t, err, "grid.angular_points")
}

func TestRunPickleWithDryRun(t *testing.T) {
	sandbox(t)
	require.NoError(t, os.WriteFile("coma.pickle", []byte("pickle"), 0644))

	_, err := execute(t, "run", "--backend", "offline", "coma.pickle")
	assert.ErrorContains(t, err, "cannot read saved result")
}

func TestRunUnknownMode(t *testing.T) {
	sandbox(t)

	_, err := execute(t, "run", "--mode", "gui")
	assert.ErrorContains(t, err, "unknown mode gui")
}

func TestBackendCommands(t *testing.T) {
	sandbox(t)

	_, err := execute(t, "backend", "add", "conda", "--kind", "pyvectorial", "--python", "/opt/conda/bin/python")
	require.NoError(t, err)

	_, err = execute(t, "backend", "use", "conda")
	require.NoError(t, err)

	out, err := execute(t, "backend", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "/opt/conda/bin/python")

	backends, err := config.LoadBackends()
	require.NoError(t, err)
	assert.Equal(t, "conda", backends.Selected)

	_, err = execute(t, "backend", "add", "broken", "--kind", "gpu")
	assert.ErrorContains(t, err, "gpu not found")

	_, err = execute(t, "backend", "remove", "conda", "--yes")
	require.NoError(t, err)

	backends, err = config.LoadBackends()
	require.NoError(t, err)
	_, ok := backends.Find("conda")
	assert.False(t, ok)
	assert.Empty(t, backends.Selected)
}

func TestList(t *testing.T) {
	sandbox(t)

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "dry-run")
	assert.Contains(t, out, "column_density_3d_centered")
	assert.Contains(t, out, "aperture_checks")
}
