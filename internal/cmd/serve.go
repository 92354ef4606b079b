package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/forward-optimizer/internal/optd"
)

func newServeCmd() *cobra.Command {
	var (
		grpcAddr     string
		httpAddr     string
		settingsPath string
		logLevel     string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the optimizer daemon",
		Long: `Serve accepts optimization runs over gRPC (fwdopt.v1.OptimizerService) and
HTTP (/v1/runs). Prometheus metrics are exposed on /metrics of the HTTP
listener. Runs are kept in memory only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(settingsPath, logLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			reg, err := newRegistry(settings)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			d := optd.New(optd.Config{GRPCAddr: grpcAddr, HTTPAddr: httpAddr, Settings: settings}, reg)
			return d.Serve(ctx)
		},
	}
	f := cmd.Flags()
	f.StringVar(&grpcAddr, "grpc-addr", ":50051", "gRPC listen address (empty disables)")
	f.StringVar(&httpAddr, "http-addr", ":8080", "HTTP listen address (empty disables)")
	f.StringVarP(&settingsPath, "settings", "s", "", "YAML settings file")
	f.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	return cmd
}
