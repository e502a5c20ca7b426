package simulator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picogrid/vectorial-cli/pkg/vmodel"
)

// fakeDriver stands in for the Python driver. It is run with sh and writes
// one figure and one panel for run and load.
const fakeDriver = `
op=$1; shift
while [ $# -gt 0 ]; do
  case $1 in
    --out) out=$2; shift ;;
    --result) result=$2; shift ;;
  esac
  shift
done
case $op in
  probe)
    grep -q pickle "$result" || { echo "not a coma pickle" >&2; exit 1; } ;;
  run|load)
    printf 'r (km)  n (1/cm3)\n' > "$out/radial_density.txt"
    : > "$out/radial.png"
    cat > "$out/manifest.yaml" <<EOF
figures:
  - kind: radial
    title: Radial
    file: radial.png
panels:
  - kind: radial_density
    title: Radial Density
    file: radial_density.txt
EOF
    ;;
esac
`

const failingDriver = `
echo "Traceback (most recent call last):" >&2
echo "ValueError: grid too coarse" >&2
exit 3
`

func newFakeProcess(t *testing.T, script string) Simulator {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "driver.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0644))

	return NewProcess(Options{
		Python:    "sh",
		Script:    path,
		OutputDir: filepath.Join(dir, "runs"),
	})
}

func TestProcessRun(t *testing.T) {
	sim := newFakeProcess(t, fakeDriver)

	res, err := sim.Run(context.Background(), "pyvectorial.yaml")
	require.NoError(t, err)

	assert.Equal(t, BackendPyvectorial, res.Backend)
	assert.Equal(t, "pyvectorial.yaml", res.ConfigPath)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, res.ID, filepath.Base(res.OutputDir))
	assert.False(t, res.Saved)

	fig, ok := res.Figure(PlotRadial)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(res.OutputDir, "radial.png"), fig.Path)
	assert.FileExists(t, fig.Path)

	panel, ok := res.Panel(PanelRadialDensity)
	require.True(t, ok)
	assert.Equal(t, "r (km)  n (1/cm3)\n", panel.Text)

	_, ok = res.Panel(PanelApertureChecks)
	assert.False(t, ok)
}

func TestProcessRunRecordsOutputs(t *testing.T) {
	sim := newFakeProcess(t, fakeDriver)

	cfg := vmodel.Example()
	cfg.Etc.ShowRadialPlots = false
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, vmodel.Write(path, cfg))

	res, err := sim.Run(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, res.Outputs)
	assert.False(t, res.Outputs.ShowRadialPlots)
	assert.False(t, res.Shows(PlotRadial.Toggle()))
	assert.True(t, res.Shows(PanelRadialDensity.Toggle()))
	assert.True(t, res.Shows(PanelConfiguration.Toggle()))

	saved, err := sim.ReadSavedResult(context.Background(), "coma.pickle")
	require.NoError(t, err)
	assert.Nil(t, saved.Outputs)
	assert.True(t, saved.Shows(PlotRadial.Toggle()))
}

func TestProcessFailureRemovesOutputDir(t *testing.T) {
	sim := newFakeProcess(t, failingDriver)
	runs := sim.(*Process).opts.OutputDir

	_, err := sim.Run(context.Background(), "pyvectorial.yaml")
	require.Error(t, err)
	_, err = sim.ReadSavedResult(context.Background(), "coma.pickle")
	require.Error(t, err)

	entries, err := os.ReadDir(runs)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessRunsGetSeparateDirectories(t *testing.T) {
	sim := newFakeProcess(t, fakeDriver)

	first, err := sim.Run(context.Background(), "a.yaml")
	require.NoError(t, err)
	second, err := sim.Run(context.Background(), "b.yaml")
	require.NoError(t, err)

	assert.NotEqual(t, first.OutputDir, second.OutputDir)
}

func TestProcessReadSavedResult(t *testing.T) {
	sim := newFakeProcess(t, fakeDriver)

	res, err := sim.ReadSavedResult(context.Background(), "coma.pickle")
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.Len(t, res.Figures, 1)
}

func TestProcessCanRead(t *testing.T) {
	sim := newFakeProcess(t, fakeDriver)
	dir := t.TempDir()

	good := filepath.Join(dir, "good.pickle")
	require.NoError(t, os.WriteFile(good, []byte("pickle"), 0644))
	bad := filepath.Join(dir, "bad.pickle")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0644))

	assert.True(t, sim.CanRead(context.Background(), good))
	assert.False(t, sim.CanRead(context.Background(), bad))
	assert.False(t, sim.CanRead(context.Background(), filepath.Join(dir, "missing.pickle")))
}

func TestProcessCanReadConfiguration(t *testing.T) {
	sim := newFakeProcess(t, failingDriver)
	dir := t.TempDir()

	good := filepath.Join(dir, "run.yaml")
	require.NoError(t, vmodel.Write(good, vmodel.Example()))
	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("production: ["), 0644))

	assert.True(t, sim.CanRead(context.Background(), good))
	assert.False(t, sim.CanRead(context.Background(), bad))
}

func TestProcessFailure(t *testing.T) {
	sim := newFakeProcess(t, failingDriver)

	_, err := sim.Run(context.Background(), "pyvectorial.yaml")
	require.ErrorIs(t, err, ErrSimulationFailure)

	var failure *FailureError
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "run", failure.Op)
	assert.Equal(t, "exit code 3", failure.Reason)
	assert.Contains(t, failure.Stderr, "Traceback")
	assert.Equal(t, "pyvectorial run failed: exit code 3 (ValueError: grid too coarse)", err.Error())
}

func TestProcessCancelled(t *testing.T) {
	sim := newFakeProcess(t, fakeDriver)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Run(ctx, "pyvectorial.yaml")
	var failure *FailureError
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "cancelled", failure.Reason)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessMissingInterpreter(t *testing.T) {
	sim := NewProcess(Options{
		Python:    filepath.Join(t.TempDir(), "no-such-python"),
		OutputDir: t.TempDir(),
	})

	_, err := sim.Run(context.Background(), "pyvectorial.yaml")
	var failure *FailureError
	require.ErrorAs(t, err, &failure)
	assert.Contains(t, failure.Reason, "could not start")
}

func TestProcessDefaults(t *testing.T) {
	p := NewProcess(Options{}).(*Process)
	assert.Equal(t, "python3", p.opts.Python)
	assert.Equal(t, "vmodel-runs", p.opts.OutputDir)
}

func TestEmbeddedDriver(t *testing.T) {
	assert.Contains(t, string(driverScript), "manifest.yaml")

	p := NewProcess(Options{}).(*Process)
	path, cleanup, err := p.script()
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, driverScript, data)

	cleanup()
	assert.NoFileExists(t, path)
}

func TestLoadManifestMissingPanel(t *testing.T) {
	dir := t.TempDir()
	manifest := "figures: []\npanels:\n  - kind: column_density\n    title: Column Density\n    file: gone.txt\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0644))

	_, err := LoadManifest(dir)
	assert.ErrorContains(t, err, "column_density")

	_, err = LoadManifest(t.TempDir())
	assert.ErrorContains(t, err, "failed to read manifest")
}
