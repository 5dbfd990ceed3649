package cmd

import (
	"fmt"
	"os"

	"github.com/shape-cli/shape-launcher/internal/config"
	"github.com/shape-cli/shape-launcher/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	Cfg     *config.Config
	Version string
)

var RootCmd = &cobra.Command{
	Use:          "shape-launcher",
	Short:        "Shape Launcher - provisions and runs the shape binary",
	Long:         `Shape Launcher downloads the shape binary for the current platform from the release store, verifies its checksum, installs it locally and runs it transparently.`,
	SilenceUsage: true,
}

func Execute(version string) error {
	Version = version
	return RootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.shape/config.yaml)")
}

func initConfig() {
	var err error

	Cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Printf("Fatal: Configuration could not be loaded: %v\n", err)
		os.Exit(1)
	}

	logCfg := Cfg.Logging
	logCfg.Module = "root"
	if err := logger.Init(logCfg); err != nil {
		fmt.Printf("Fatal: Logger could not be initialized: %v\n", err)
		os.Exit(1)
	}
}
