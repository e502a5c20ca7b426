package cmd

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/picogrid/vectorial-cli/pkg/config"
	"github.com/picogrid/vectorial-cli/pkg/logger"
	"github.com/picogrid/vectorial-cli/pkg/simulator"
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Manage simulator backend profiles",
	Long:  `Manage the named Python environments and backends stored in $HOME/.vmodel/backends.yaml`,
}

var backendListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured backend profiles",
	RunE:  listProfiles,
}

var backendAddCmd = &cobra.Command{
	Use:   "add [NAME]",
	Short: "Add a backend profile",
	Args:  cobra.MaximumNArgs(1),
	RunE:  addProfile,
}

var backendRemoveCmd = &cobra.Command{
	Use:   "remove [NAME]",
	Short: "Remove a backend profile",
	Args:  cobra.MaximumNArgs(1),
	RunE:  removeProfile,
}

var backendUseCmd = &cobra.Command{
	Use:   "use NAME",
	Short: "Select the default backend profile",
	Args:  cobra.ExactArgs(1),
	RunE:  useProfile,
}

func init() {
	backendAddCmd.Flags().String("kind", "", "simulator backend ("+fmt.Sprint(simulator.DefaultRegistry.List())+")")
	backendAddCmd.Flags().String("python", "", "python interpreter with pyvectorial installed")
	backendAddCmd.Flags().String("script", "", "driver script (default is the built-in driver)")
	backendRemoveCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	backendCmd.AddCommand(backendListCmd)
	backendCmd.AddCommand(backendAddCmd)
	backendCmd.AddCommand(backendRemoveCmd)
	backendCmd.AddCommand(backendUseCmd)
}

func listProfiles(cmd *cobra.Command, args []string) error {
	backends, err := config.LoadBackends()
	if err != nil {
		return fmt.Errorf("failed to load backends: %w", err)
	}
	printBackends(backends)
	return nil
}

func printBackends(backends *config.Backends) {
	if len(backends.Backends) == 0 {
		logger.Info("No backends configured")
		return
	}

	table := logger.NewTable("", "NAME", "KIND", "PYTHON", "SCRIPT")
	for _, b := range backends.Backends {
		selected := ""
		if b.Name == backends.Selected {
			selected = "*"
		}
		script := b.Script
		if script == "" {
			script = "(built-in)"
		}
		table.AddRow(selected, b.Name, b.Kind, b.Python, script)
	}
	table.Print()
}

func addProfile(cmd *cobra.Command, args []string) error {
	backends, err := config.LoadBackends()
	if err != nil {
		return fmt.Errorf("failed to load backends: %w", err)
	}

	var b config.Backend
	if len(args) == 1 {
		b.Name = args[0]
	}
	b.Kind, _ = cmd.Flags().GetString("kind")
	b.Python, _ = cmd.Flags().GetString("python")
	b.Script, _ = cmd.Flags().GetString("script")

	if b.Name == "" {
		if !interactive() {
			return fmt.Errorf("backend name is required")
		}
		namePrompt := &survey.Input{Message: "Backend name:"}
		if err := survey.AskOne(namePrompt, &b.Name, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}

	if b.Kind == "" {
		b.Kind = simulator.BackendPyvectorial
		if interactive() {
			kindPrompt := &survey.Select{
				Message: "Simulator backend:",
				Options: simulator.DefaultRegistry.List(),
				Default: simulator.BackendPyvectorial,
			}
			if err := survey.AskOne(kindPrompt, &b.Kind); err != nil {
				return err
			}
		}
	}
	if _, err := simulator.DefaultRegistry.Get(b.Kind, simulator.Options{}); err != nil {
		return err
	}

	if b.Kind == simulator.BackendPyvectorial && b.Python == "" {
		b.Python = "python3"
		if interactive() {
			pythonPrompt := &survey.Input{
				Message: "Python interpreter:",
				Default: "python3",
				Help:    "Interpreter of the environment where pyvectorial is installed",
			}
			if err := survey.AskOne(pythonPrompt, &b.Python, survey.WithValidator(survey.Required)); err != nil {
				return err
			}
		}
	}

	if err := backends.Add(b); err != nil {
		return err
	}
	if err := config.SaveBackends(backends); err != nil {
		return fmt.Errorf("failed to save backends: %w", err)
	}

	logger.Successf("Backend %s added", b.Name)
	return nil
}

func removeProfile(cmd *cobra.Command, args []string) error {
	backends, err := config.LoadBackends()
	if err != nil {
		return fmt.Errorf("failed to load backends: %w", err)
	}

	if len(backends.Backends) == 0 {
		logger.Info("No backends to remove")
		return nil
	}

	var selected string
	if len(args) == 1 {
		selected = args[0]
	} else {
		if !interactive() {
			return fmt.Errorf("backend name is required")
		}
		prompt := &survey.Select{
			Message: "Select backend to remove:",
			Options: backends.Names(),
		}
		if err := survey.AskOne(prompt, &selected); err != nil {
			return err
		}
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes && interactive() {
		var confirm bool
		confirmPrompt := &survey.Confirm{
			Message: fmt.Sprintf("Are you sure you want to remove %s?", selected),
			Default: false,
		}
		if err := survey.AskOne(confirmPrompt, &confirm); err != nil {
			return err
		}
		if !confirm {
			logger.Info("Removal cancelled")
			return nil
		}
	}

	if !backends.Remove(selected) {
		return fmt.Errorf("backend %s not found", selected)
	}
	if err := config.SaveBackends(backends); err != nil {
		return fmt.Errorf("failed to save backends: %w", err)
	}

	logger.Successf("Backend %s removed", selected)
	return nil
}

func useProfile(cmd *cobra.Command, args []string) error {
	backends, err := config.LoadBackends()
	if err != nil {
		return fmt.Errorf("failed to load backends: %w", err)
	}

	if _, ok := backends.Find(args[0]); !ok {
		return fmt.Errorf("backend %s not found", args[0])
	}
	backends.Selected = args[0]

	if err := config.SaveBackends(backends); err != nil {
		return fmt.Errorf("failed to save backends: %w", err)
	}
	logger.Successf("Backend %s selected", args[0])
	return nil
}
