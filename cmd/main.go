package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/okian/smarthr/internal/config"
	"github.com/okian/smarthr/pkg/logger"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if serr := logger.Sync(); serr != nil {
		os.Stderr.WriteString("failed to sync logger: " + serr.Error() + "\n")
	}
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

// cliState carries what PersistentPreRunE prepared to the subcommands.
type cliState struct {
	configFile string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	st := &cliState{}
	root := &cobra.Command{
		Use:   "smarthr",
		Short: "SmartHR portal: attrition risk, recommendations and HR narratives",
		Long: `smarthr serves the HR portal API.

Configuration is layered: built-in defaults, then the YAML file named by
--config or SMARTHR_CONFIG, then SMARTHR_* environment variables. A .env
file in the working directory is loaded first when present.

Run without a subcommand to start the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.prepare(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), st.cfg, "")
		},
	}
	root.PersistentFlags().StringVarP(&st.configFile, "config", "c", "", "YAML config file (overrides SMARTHR_CONFIG)")
	root.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(st),
		newMigrateCmd(st),
		newScoreCmd(st),
		newSmokeCmd(),
	)
	return root
}

// prepare loads .env, initializes logging, and loads configuration.
func (st *cliState) prepare(ctx context.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := logger.Init(); err != nil {
		return err
	}
	if st.configFile != "" {
		if err := os.Setenv(config.EnvPrefix+"CONFIG", st.configFile); err != nil {
			return err
		}
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if st.logLevel != "" {
		cfg.LogLevel = st.logLevel
	}
	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	st.cfg = cfg
	return nil
}
