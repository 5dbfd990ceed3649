package cmd

import (
	"fmt"

	"github.com/shape-cli/shape-launcher/internal/installer"
	"github.com/spf13/cobra"
)

var forceInstall bool

var installCmd = &cobra.Command{
	Use:   "install [version]",
	Short: "Download and install the shape binary",
	Long:  `Download the shape release archive for this platform, verify its checksum and install the binary. Defaults to the launcher's own version.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version := Version
		if len(args) > 0 {
			version = args[0]
		}

		inst := installer.New(Cfg)

		var path string
		var err error
		if forceInstall {
			path, err = inst.ForceInstall(cmd.Context(), version)
		} else {
			path, err = inst.Install(cmd.Context(), version)
		}
		if err != nil {
			return err
		}

		fmt.Println(path)
		return nil
	},
}

func init() {
	installCmd.Flags().BoolVarP(&forceInstall, "force", "f", false, "reinstall even if the binary already exists")
	RootCmd.AddCommand(installCmd)
}
