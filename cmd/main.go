package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	service "github.com/okian/planner/internal/app"
	"github.com/okian/planner/internal/config"
	"github.com/okian/planner/pkg/logger"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(1)
	}
}

// cli carries what every subcommand shares once the root has booted.
type cli struct {
	cfg      *config.Config
	log      logger.Logger
	logLevel string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	cmd := &cobra.Command{
		Use:           "planner",
		Short:         "A personal month planner backed by a small REST service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.boot(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override log_level (debug, info, warn, error)")

	addServe(cmd, c)
	addEvents(cmd, c)
	addCategories(cmd, c)
	addMonth(cmd, c)
	return cmd
}

// boot initializes logging, loads configuration (defaults, then the file
// named by PLANNER_CONFIG, then PLANNER_* env) and applies the log level.
func (c *cli) boot(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if cfg.LogFormat != "" {
		if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr()), logger.WithFormat(cfg.LogFormat)); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	c.cfg = cfg
	c.log = logger.Get()
	return nil
}

// withService runs fn against a started planner service and stops it after.
func (c *cli) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.Service) error) error {
	ctx := cmd.Context()
	svc, err := service.New(service.WithConfig(c.cfg), service.WithLogger(c.log))
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	if st := svc.Status(); st.SyncErr != nil {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(),
			color.YellowString("warning: backend unreachable, showing local snapshot:"), st.SyncErr)
	}
	return fn(ctx, svc)
}
