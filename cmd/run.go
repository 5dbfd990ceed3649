package cmd

import (
	"fmt"
	"os"

	"github.com/shape-cli/shape-launcher/internal/installer"
	"github.com/shape-cli/shape-launcher/internal/runner"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [args...]",
	Short: "Run the shape binary, installing it first if needed",
	Long:  `Run the shape binary with the given arguments. The binary is installed on first use; its exit code becomes the launcher's exit code.`,
	// All arguments, including flags, belong to the shape binary
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		inst := installer.New(Cfg)

		binaryPath, err := inst.Install(cmd.Context(), Version)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		code, err := runner.New().Run(binaryPath, args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error executing shape: %v\n", err)
			os.Exit(1)
		}

		os.Exit(code)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(runCmd)
}
