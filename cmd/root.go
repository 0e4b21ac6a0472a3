package main

import (
	"fmt"
	"io"

	service "github.com/qqqlxhjy/NishimoriLine/internal/app"
	"github.com/qqqlxhjy/NishimoriLine/internal/config"
	"github.com/qqqlxhjy/NishimoriLine/internal/domain/peak"
	"github.com/qqqlxhjy/NishimoriLine/pkg/logger"
	"github.com/spf13/cobra"
)

// cli carries state shared by the subcommands once the root has
// initialized logging and configuration.
type cli struct {
	out    io.Writer
	errOut io.Writer

	logLevel string
	jsonLogs bool

	cfg *config.Config
	log logger.Logger
}

// newRootCommand creates the reanalysis command tree. Command output goes
// to out, logs to errOut.
func newRootCommand(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "reanalysis",
		Short:         "Tc and beta reanalysis of Ising temperature scans",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().BoolVar(&c.jsonLogs, "log-json", false, "emit logs as JSON lines")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return c.initialize(cmd)
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.AddCommand(analyzeCommand(c), serveCommand(c))
	return root
}

// initialize sets up logging and loads configuration (defaults, optional
// file, env). Subcommands apply their own flags on top.
func (c *cli) initialize(cmd *cobra.Command) error {
	opts := []logger.Option{logger.WithWriter(c.errOut)}
	if c.jsonLogs {
		opts = append(opts, logger.WithJSON())
	}
	if err := logger.Init(opts...); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	c.log = logger.Named(cmd.Name())

	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	c.cfg = cfg

	level := cfg.LogLevel
	if c.logLevel != "" {
		level = c.logLevel
	}
	if err := logger.SetLevelString(level); err != nil {
		c.log.Warn(cmd.Context(), "invalid log_level; falling back to info", logger.String("log_level", level), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

// serviceOptions maps the loaded configuration onto the analysis service.
func (c *cli) serviceOptions(extra ...service.Option) []service.Option {
	opts := []service.Option{
		service.WithLogger(logger.Get()),
		service.WithWorkerCount(c.cfg.WorkerCount),
		service.WithQueueSize(c.cfg.QueueSize),
		service.WithStep(c.cfg.TcStep),
		service.WithPeakOptions(
			peak.WithMinIndex(c.cfg.PeakMinIndex),
			peak.WithLookback(c.cfg.PeakLookback),
		),
	}
	return append(opts, extra...)
}
