package main

import (
	"github.com/shape-cli/shape-launcher/cmd"
	"github.com/shape-cli/shape-launcher/pkg/logger"
)

// version is set at build time and doubles as the shape release to provision.
var version = "0.0.0"

func main() {
	if err := cmd.Execute(version); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}
