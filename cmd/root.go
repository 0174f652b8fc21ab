package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/pi/api"
	"github.com/s0up4200/pi/config"
	"github.com/s0up4200/pi/format"
)

var (
	cfgFile   string
	logLevel  string
	cfg       *config.Config
	logger    zerolog.Logger
	client    api.API
	formatter = format.NewConsoleFormatter()

	version   = "dev"
	buildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pi",
	Short: "Ask questions to Pi and explore the answers",
	Long: `pi is a command line client for the Pi question service. It asks
questions, waits for their evaluation, lists and exports past questions
and summarizes the timeseries Pi correlated with them.`,
	SilenceUsage:      true,
	PersistentPreRunE: initializeApp,
}

// SetVersion records build information shown by the version command
func SetVersion(v, built string) {
	version = v
	buildTime = built
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml, then ~/.pi/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(meCmd)
	rootCmd.AddCommand(datasourcesCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp loads the configuration and creates the API client
func initializeApp(cmd *cobra.Command, args []string) error {
	// A missing .env file is fine, the environment may already be set
	envErr := godotenv.Load()

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}

	logger = setupLogger(cfg.Logging, cmd.ErrOrStderr())
	if envErr == nil {
		logger.Debug().Msg("Loaded environment from .env")
	}

	client, err = api.NewClient(cfg.API.Key, cfg.API.BaseURL, logger,
		api.WithPageSize(cfg.API.PageSize),
		api.WithTimeout(cfg.API.Timeout),
		api.WithUserAgent("pi-cli/"+version),
	)
	if err != nil {
		return fmt.Errorf("failed to create Pi client: %w", err)
	}

	logger.Debug().Str("base_url", cfg.API.BaseURL).Int("page_size", cfg.API.PageSize).Msg("Pi client ready")
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	if cfg.Format == "json" {
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isTerminal(out),
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// isTerminal reports whether out is an interactive terminal
func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// meCmd represents the me command
var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the user owning the API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := client.GetCurrentUser(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get current user: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCurrentUser(user))
		return nil
	},
}

// datasourcesCmd represents the datasources command
var datasourcesCmd = &cobra.Command{
	Use:   "datasources",
	Short: "List the datasources questions can be asked against",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		datasources, err := client.ListDatasources(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list datasources: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDatasources(datasources))
		return nil
	},
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print version information",
	Args:              cobra.NoArgs,
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pi %s (built %s)\n", version, buildTime)
	},
}
