package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/picogrid/vectorial-cli/pkg/logger"
	"github.com/picogrid/vectorial-cli/pkg/vmodel"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Validate configuration files",
	Long: `Validate one or more configuration files without running them. The
first problem in each file is reported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateFiles,
}

func validateFiles(cmd *cobra.Command, args []string) error {
	table := logger.NewTable("FILE", "RESULT")

	var invalid int
	for _, file := range args {
		if _, err := vmodel.Load(file, vmodel.Request{}); err != nil {
			invalid++
			table.AddRow(file, logger.IconCross+" "+err.Error())
			continue
		}
		table.AddRow(file, logger.IconCheck+" valid")
	}
	table.Print()

	if invalid > 0 {
		return fmt.Errorf("%d of %d files invalid", invalid, len(args))
	}
	logger.Successf("%d files valid", len(args))
	return nil
}
