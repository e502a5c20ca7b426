package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/picogrid/vectorial-cli/pkg/config"
	"github.com/picogrid/vectorial-cli/pkg/logger"
	"github.com/picogrid/vectorial-cli/pkg/simulator"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List simulator backends and outputs",
	Long:  `List the simulator backends, the configured backend profiles, and the figures and text panels a run can produce`,
	RunE:  listAll,
}

func listAll(cmd *cobra.Command, args []string) error {
	backends, err := config.LoadBackends()
	if err != nil {
		return fmt.Errorf("failed to load backends: %w", err)
	}

	logger.LogList("Simulator backends:", simulator.DefaultRegistry.List())

	logger.Info("Profiles:")
	printBackends(backends)

	var plots []string
	for _, kind := range simulator.PlotKinds {
		plots = append(plots, string(kind))
	}
	logger.LogList("Figures:", plots)

	var panels []string
	for _, kind := range simulator.PanelKinds {
		panels = append(panels, string(kind))
	}
	logger.LogList("Text panels:", panels)

	return nil
}
