// Package cmd implements the fwdopt command line.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/forward-optimizer/internal/adapter"
	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/logger"
)

// newRegistry builds the adapter registry for a command. Tests replace it.
var newRegistry = adapter.NewDefaultRegistry

// NewRootCmd assembles the fwdopt command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fwdopt",
		Short: "Bounded scalar optimization of forward model inputs",
		Long: `fwdopt minimizes the scalar output of forward models (simulations, analytic
functions, external programs) over one bounded input variable at a time.
Variables are listed in a delimited text file; model adapters and run
behavior are configured in an optional YAML settings file.`,
		SilenceUsage: true,
	}
	root.CompletionOptions.HiddenDefaultCmd = true

	root.AddCommand(newRunCmd(), newModelsCmd(), newServeCmd(), newVersionCmd())
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSettings reads the settings file and installs the logger it describes.
// A non-empty logLevel overrides the file.
func loadSettings(path, logLevel string, stderr io.Writer) (*config.Settings, error) {
	settings, err := config.LoadSettings(path)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		if !logger.ValidLevel(logLevel) {
			return nil, &config.ConfigError{Column: "log-level", Reason: fmt.Sprintf("invalid log level %q", logLevel)}
		}
		settings.LogLevel = logger.LevelName(logLevel)
	}
	logger.SetDefault(logger.NewFormat(settings.LogFormat, settings.LogLevel, stderr))
	return settings, nil
}
