package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/forward-optimizer/internal/driver"
	"github.com/GoSim-25-26J-441/forward-optimizer/internal/report"
	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/logger"
)

type runOptions struct {
	settingsPath string
	xatol        float64
	maxIter      int
	modelOrder   string
	parallel     int
	evalTimeout  time.Duration
	output       string
	logLevel     string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run VARIABLES",
		Short: "Optimize every variable listed in a variables file",
		Long: `Optimize each (model, variable) row of VARIABLES independently with a
bounded Brent search. Results are printed to stdout; progress is logged to
stderr. A malformed variables or settings file exits with status 1 before any
model runs. Variables that fail or do not converge are reported but do not
change the exit status.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(cmd, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.settingsPath, "settings", "s", "", "YAML settings file")
	f.Float64Var(&opts.xatol, "xatol", 0, "absolute tolerance on x (overrides settings)")
	f.IntVar(&opts.maxIter, "max-iter", 0, "maximum evaluations per variable (overrides settings)")
	f.StringVar(&opts.modelOrder, "model-order", "", "model processing order: file or sorted (overrides settings)")
	f.IntVar(&opts.parallel, "parallel", 0, "models optimized concurrently (overrides settings)")
	f.DurationVar(&opts.evalTimeout, "eval-timeout", 0, "timeout per model evaluation, 0 disables (overrides settings)")
	f.StringVarP(&opts.output, "output", "o", "text", "output format: text or json")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides settings)")
	return cmd
}

// applyFlags copies explicitly set flags over the settings file values.
func (o *runOptions) applyFlags(cmd *cobra.Command, s *config.Settings) error {
	flags := cmd.Flags()
	if flags.Changed("xatol") {
		s.Minimizer.XAtol = o.xatol
	}
	if flags.Changed("max-iter") {
		s.Minimizer.MaxIter = o.maxIter
	}
	if flags.Changed("model-order") {
		s.Driver.ModelOrder = o.modelOrder
	}
	if flags.Changed("parallel") {
		s.Driver.ParallelModels = o.parallel
	}
	if flags.Changed("eval-timeout") {
		s.Driver.EvalTimeout = o.evalTimeout.String()
	}
	return s.Validate()
}

func runOptimize(cmd *cobra.Command, opts *runOptions, variablesPath string) error {
	format, err := report.ParseFormat(opts.output)
	if err != nil {
		return err
	}
	settings, err := loadSettings(opts.settingsPath, opts.logLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := opts.applyFlags(cmd, settings); err != nil {
		return err
	}
	order, err := config.ParseModelOrder(settings.Driver.ModelOrder)
	if err != nil {
		return err
	}

	// The whole variables file is validated before any adapter exists.
	models, err := config.LoadVariables(variablesPath, order)
	if err != nil {
		return err
	}

	reg, err := newRegistry(settings)
	if err != nil {
		return err
	}
	d, err := driver.NewFromSettings(reg, settings)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting optimization", "variables_file", variablesPath, "models", len(models))
	results, runErr := d.Run(ctx, models)

	if err := report.Write(cmd.OutOrStdout(), format, results); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	if runErr != nil {
		return fmt.Errorf("optimization interrupted: %w", runErr)
	}
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
