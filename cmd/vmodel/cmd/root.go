package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/picogrid/vectorial-cli/pkg/config"
	"github.com/picogrid/vectorial-cli/pkg/logger"
	"github.com/picogrid/vectorial-cli/pkg/simulator"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vmodel",
	Short: "Vectorial model configuration and run tool",
	Long: `vmodel builds, validates and runs configurations for the vectorial
model of cometary comae. Configurations are entered through an interactive
form or read from YAML files, validated, and handed to the pyvectorial
simulation in a separate Python process.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.vmodel/config.yaml)")
	flags.String("backend", "", "backend profile from backends.yaml")
	flags.String("python", "", "python interpreter (overrides the backend profile)")
	flags.String("output-dir", "", "directory for run output (default vmodel-runs)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("no-color", false, "disable colored output")

	for key, flag := range map[string]string{
		"backend":    "backend",
		"python":     "python",
		"output_dir": "output-dir",
		"log_level":  "log-level",
		"no_color":   "no-color",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(backendCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if dir, err := config.Dir(); err == nil {
		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	config.BindEnv(viper.GetViper())

	// If a config file is found, read it in
	_ = viper.ReadInConfig()

	logger.SetLevel(logger.ParseLevel(viper.GetString("log_level")))
	logger.SetNoColor(viper.GetBool("no_color"))
}

func loadSettings() (*config.Settings, error) {
	settings, err := config.LoadSettings(viper.GetViper())
	if err != nil {
		return nil, err
	}
	logger.Debugf("Settings: backend=%q output_dir=%q run_file=%q", settings.Backend, settings.OutputDir, settings.RunFile)
	return settings, nil
}

// newSimulator resolves the backend profile and builds its simulator
func newSimulator(settings *config.Settings) (simulator.Simulator, error) {
	backends, err := config.LoadBackends()
	if err != nil {
		return nil, fmt.Errorf("failed to load backends: %w", err)
	}

	backend, err := settings.ResolveBackend(backends)
	if err != nil {
		return nil, err
	}

	sim, err := simulator.DefaultRegistry.Get(backend.Kind, backend.Options(settings.OutputDir))
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", backend.Name, err)
	}

	logger.WithField("backend", backend.Name).Debugf("Using %s simulator", sim.Name())
	return sim, nil
}

// interactive reports whether prompts can be shown
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
