// Command mission propagates scenarios, inverts states into mean elements and inspects TLEs.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	smd "github.com/lanan07075/aldev-sub001"
	"github.com/lanan07075/aldev-sub001/metrics"
	"github.com/spf13/cobra"
)

var (
	logLevel      string
	logFormat     string
	metricsListen string

	logger        log.Logger
	metricsServer *http.Server
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "mission",
		Short:        "orbit propagation and mean element tools",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdownMetrics()
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error or none (default from $SMD_CONFIG, else info)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: logfmt or json")
	root.PersistentFlags().StringVar(&metricsListen, "metrics-listen", "", "address serving Prometheus metrics while the command runs, e.g. :9090")

	root.AddCommand(propagateCommand(), invertCommand(), tleCommand(), classifyCommand())
	return root
}

// setup applies the library configuration, overridden by the flags.
func setup(cmd *cobra.Command) error {
	conf, err := smd.LoadConfig()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("log-level") {
		logLevel = conf.LogLevel
	}
	if !cmd.Flags().Changed("log-format") {
		logFormat = conf.LogFormat
	}
	if !cmd.Flags().Changed("metrics-listen") {
		metricsListen = conf.MetricsListen
	}
	logger = smd.NewLogger(os.Stderr, logFormat, logLevel)
	smd.SetLogger(logger)
	logger = log.With(logger, "subsys", "mission")

	if metricsListen != "" {
		metricsServer = &http.Server{Addr: metricsListen, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			level.Info(logger).Log("msg", "serving metrics", "addr", metricsListen)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				level.Error(logger).Log("msg", "metrics server failed", "err", err)
			}
		}()
	}
	return nil
}

func shutdownMetrics() {
	if metricsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(ctx); err != nil {
		level.Error(logger).Log("msg", "metrics server shutdown", "err", err)
	}
}
