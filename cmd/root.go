package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/backloggery/backloggery"
	"github.com/s0up4200/backloggery/config"
	"github.com/s0up4200/backloggery/filter"
	"github.com/s0up4200/backloggery/library"
)

var (
	cfgFile       string
	cfg           *config.Config
	logger        zerolog.Logger
	apiClient     *backloggery.Client
	libraryClient *library.Client
	presets       *filter.Manager
	formatter     library.Formatter = library.NewConsoleFormatter()

	version   = "dev"
	buildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "backloggery",
	Short: "Browse and search Backloggery game libraries",
	Long: `backloggery is a CLI for the Backloggery game tracking service. It fetches
a user's library, decodes status, priority, ownership and other codes into
readable labels, and searches the games by regular expressions over any field
or by expressions.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// SetVersion records build information reported by the version and update commands
func SetVersion(v, built string) {
	version = v
	buildTime = built
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
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}

// skipInit marks commands that run without configuration or clients
const skipInit = "skip-init"

// initializeApp initializes the configuration and clients
func initializeApp(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipInit] == "true" {
		logger = setupLogger(config.LoggingConfig{Level: "info", Format: "console", Color: true})
		return nil
	}

	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	// Create Backloggery client
	apiClient, err = backloggery.NewClient(logger,
		backloggery.WithEndpoint(cfg.Backloggery.URL),
		backloggery.WithContact(cfg.Backloggery.Contact),
		backloggery.WithTimeout(cfg.Backloggery.Timeout),
		backloggery.WithVersion(version),
	)
	if err != nil {
		return fmt.Errorf("failed to create Backloggery client: %w", err)
	}

	compiler := filter.NewCompiler(filter.WithCache(cfg.Search.CacheSize))
	evaluator := filter.NewConcurrentEvaluator(
		filter.WithWorkers(cfg.Search.Workers),
		filter.WithBatchSize(cfg.Search.BatchSize),
	)

	libraryClient = library.NewClient(apiClient, logger,
		library.WithCompiler(compiler),
		library.WithEvaluator(evaluator),
		library.WithConcurrency(cfg.Library.Concurrency),
	)

	// Compile presets up front so a bad one fails every command
	presets = filter.NewManager(filter.WithCompiler(compiler), filter.WithEvaluator(evaluator))
	configured, err := cfg.Search.FilterPresets()
	if err != nil {
		return err
	}
	if err := presets.RegisterPresets(configured); err != nil {
		return fmt.Errorf("invalid search preset: %w", err)
	}

	logger.Debug().
		Str("endpoint", apiClient.Endpoint()).
		Str("user_agent", apiClient.UserAgent()).
		Int("presets", len(configured)).
		Msg("Initialized")

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format, without colour when stderr is not a terminal
	fd := os.Stderr.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !tty,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
