package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/picogrid/vectorial-cli/pkg/logger"
	"github.com/picogrid/vectorial-cli/pkg/vmodel"
)

var initCmd = &cobra.Command{
	Use:   "init [FILE]",
	Short: "Write an example configuration",
	Long:  `Write an example configuration (water parent, hydroxyl fragment) to FILE, pyvectorial.yaml by default.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  writeExample,
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing file")
}

func writeExample(cmd *cobra.Command, args []string) error {
	path := "pyvectorial.yaml"
	if len(args) == 1 {
		path = args[0]
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := vmodel.Example()
	cfg.Etc.PyvDateOfRun = time.Now()
	if err := vmodel.Write(path, cfg); err != nil {
		return err
	}

	logger.Successf("Example configuration written to %s", path)
	return nil
}
