package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/picogrid/vectorial-cli/pkg/config"
	"github.com/picogrid/vectorial-cli/pkg/form"
	"github.com/picogrid/vectorial-cli/pkg/logger"
	"github.com/picogrid/vectorial-cli/pkg/results"
	"github.com/picogrid/vectorial-cli/pkg/simulator"
	"github.com/picogrid/vectorial-cli/pkg/utils"
	"github.com/picogrid/vectorial-cli/pkg/vmodel"
)

// Input modes
const (
	modeManual = "manual"
	modeYAML   = "yaml"
	modePickle = "pickle"
)

var runModes = []string{modeManual, modeYAML, modePickle}

var runCmd = &cobra.Command{
	Use:   "run [FILE...]",
	Short: "Run the vectorial model",
	Long: `Run the vectorial model from the interactive form (manual), from one or
more YAML configuration files (yaml), or display a saved result (pickle).

Every configuration is validated before the simulation starts; the first
problem found is reported and nothing is run for that input.`,
	RunE: runModel,
}

func init() {
	runCmd.Flags().StringP("mode", "m", "", "input mode: manual, yaml or pickle")
	runCmd.Flags().StringSliceP("file", "f", nil, "configuration or saved result file")
	runCmd.Flags().String("dir", "", "run every YAML configuration under a directory")
	runCmd.Flags().Bool("keep-file", false, "keep the configuration file written by a manual run")
	runCmd.Flags().String("run-file", "", "where a manual run writes its configuration")
}

func runModel(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if runFile, _ := cmd.Flags().GetString("run-file"); runFile != "" {
		settings.RunFile = runFile
	}

	files, _ := cmd.Flags().GetStringSlice("file")
	files = append(files, args...)
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		found, err := utils.DiscoverConfigs(dir)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return fmt.Errorf("no configuration files found in %s", dir)
		}
		files = append(files, found...)
	}

	mode, err := selectMode(cmd, files)
	if err != nil {
		return err
	}

	sim, err := newSimulator(settings)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			logger.Warn("Received interrupt signal, stopping simulation...")
			cancel()
		case <-ctx.Done():
		}
	}()

	switch mode {
	case modeManual:
		keep, _ := cmd.Flags().GetBool("keep-file")
		return runManual(ctx, sim, settings, keep)
	case modeYAML:
		return runFiles(ctx, sim, settings, files)
	default:
		return runPickle(ctx, sim, files)
	}
}

// selectMode uses the --mode flag, then infers the mode from the files
// given, then asks.
func selectMode(cmd *cobra.Command, files []string) (string, error) {
	mode, _ := cmd.Flags().GetString("mode")
	if mode != "" {
		for _, m := range runModes {
			if m == mode {
				return mode, nil
			}
		}
		return "", fmt.Errorf("unknown mode %s (expected one of %v)", mode, runModes)
	}

	if len(files) > 0 {
		for _, f := range files {
			if !utils.IsConfigFile(f) {
				return modePickle, nil
			}
		}
		return modeYAML, nil
	}

	if form.Skipping() {
		return modeManual, nil
	}
	if !interactive() {
		return "", fmt.Errorf("no input given; pass --mode or files when not running in a terminal")
	}

	prompt := &survey.Select{
		Message: "Input mode:",
		Options: runModes,
		Default: modeManual,
		Description: func(value string, _ int) string {
			switch value {
			case modeManual:
				return "enter values in a form"
			case modeYAML:
				return "run configuration files"
			default:
				return "show a saved result"
			}
		},
	}
	if err := survey.AskOne(prompt, &mode); err != nil {
		return "", err
	}
	return mode, nil
}

func runManual(ctx context.Context, sim simulator.Simulator, settings *config.Settings, keep bool) error {
	if !interactive() && !form.Skipping() {
		return fmt.Errorf("manual mode needs a terminal; set %s=true to read values from the environment", form.EnvSkipPrompts)
	}

	logger.LogSection(logger.IconConfig + " Vectorial Model Configuration")
	answers, err := form.Fill(nil)
	if err != nil {
		return err
	}

	cfg, err := vmodel.Validate(answers.Raw, vmodel.Request{Outputs: answers.Outputs})
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := vmodel.Write(settings.RunFile, cfg); err != nil {
		return err
	}
	if keep || answers.KeepFile {
		logger.Successf("Configuration saved to %s", settings.RunFile)
	} else {
		defer func() {
			if err := os.Remove(settings.RunFile); err != nil && !os.IsNotExist(err) {
				logger.Warnf("Failed to remove %s: %v", settings.RunFile, err)
			}
		}()
	}

	res, err := simulate(ctx, sim, settings.RunFile, true)
	if err != nil {
		return err
	}
	return present(res)
}

// runFiles validates and runs each configuration file in turn. The run
// uses a fresh copy with the current output toggles; the input file is not
// modified. A failing file does not stop the batch.
func runFiles(ctx context.Context, sim simulator.Simulator, settings *config.Settings, files []string) error {
	outputs := vmodel.AllOutputs()
	if form.Skipping() || interactive() {
		var err error
		if outputs, err = form.AskOutputs(outputs); err != nil {
			return fmt.Errorf("failed to get output options: %w", err)
		}
	}

	batch := len(files) > 1
	var bar *logger.ProgressBar
	if batch {
		logger.LogSection(fmt.Sprintf("%s Running %d configurations", logger.IconRocket, len(files)))
		bar = logger.NewProgressBar(len(files), "Runs")
	}

	var failed int
	for i, file := range files {
		if ctx.Err() != nil {
			break
		}
		log := logger.WithField("file", file)

		res, err := runFile(ctx, sim, settings, i, file, outputs, !batch)
		switch {
		case err != nil:
			failed++
			log.Errorf("%s %v", logger.IconError, err)
		case batch:
			report, err := results.WriteReport(res)
			if err != nil {
				log.Warnf("Failed to write report: %v", err)
			}
			log.Infof("%s %s %s", logger.IconCheck, logger.IconArrow, reportOrDir(res, report))
		default:
			if err := present(res); err != nil {
				return err
			}
		}

		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled: %w", err)
	}
	if failed > 0 {
		if !batch {
			return fmt.Errorf("run failed")
		}
		return fmt.Errorf("%d of %d runs failed", failed, len(files))
	}
	return nil
}

func runFile(ctx context.Context, sim simulator.Simulator, settings *config.Settings, index int, file string, outputs vmodel.OutputOptions, spin bool) (*simulator.Result, error) {
	cfg, err := vmodel.Load(file, vmodel.Request{Outputs: outputs})
	if err != nil {
		return nil, err
	}

	runPath := filepath.Join(settings.OutputDir, "configs", fmt.Sprintf("%03d-%s", index+1, filepath.Base(file)))
	if err := vmodel.Write(runPath, cfg); err != nil {
		return nil, err
	}
	logger.Debugf("Run configuration for %s written to %s", file, runPath)

	return simulate(ctx, sim, runPath, spin)
}

func runPickle(ctx context.Context, sim simulator.Simulator, files []string) error {
	if len(files) == 0 && interactive() && !form.Skipping() {
		var path string
		prompt := &survey.Input{Message: "Saved result file:"}
		if err := survey.AskOne(prompt, &path, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
		files = []string{path}
	}
	if len(files) != 1 {
		return fmt.Errorf("pickle mode takes exactly one saved result file")
	}

	path := files[0]
	if !sim.CanRead(ctx, path) {
		return fmt.Errorf("%s cannot read saved result %s", sim.Name(), path)
	}

	var res *simulator.Result
	err := logger.WithSpinner("Loading saved result", func() error {
		var err error
		res, err = sim.ReadSavedResult(ctx, path)
		return err
	})
	if err != nil {
		return err
	}
	return present(res)
}

// simulate probes the configuration file and runs it
func simulate(ctx context.Context, sim simulator.Simulator, path string, spin bool) (*simulator.Result, error) {
	if !sim.CanRead(ctx, path) {
		return nil, fmt.Errorf("%s cannot read %s", sim.Name(), path)
	}

	var res *simulator.Result
	run := func() error {
		var err error
		res, err = sim.Run(ctx, path)
		return err
	}

	var err error
	if spin {
		err = logger.WithSpinner(fmt.Sprintf("Running %s", sim.Name()), run)
	} else {
		err = run()
	}
	return res, err
}

func present(res *simulator.Result) error {
	results.Show(res)

	path, err := results.WriteReport(res)
	if err != nil {
		return err
	}
	if path != "" {
		logger.Successf("Report written to %s", path)
	}
	return nil
}

func reportOrDir(res *simulator.Result, report string) string {
	if report != "" {
		return report
	}
	if res.OutputDir != "" {
		return res.OutputDir
	}
	return res.ConfigPath
}
