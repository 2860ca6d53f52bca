package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gsabyss/internal/abyss"
	"gsabyss/internal/config"
	"gsabyss/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	cacheDir   string
	timeout    time.Duration

	// Logger
	logger *zap.Logger

	// Loaded in PersistentPreRunE
	cfg *config.Config

	// Extra service options, replaced in tests
	serviceOptions []abyss.Option
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "abyss",
	Short: "gsabyss - Spiral Abyss quick views and statistics",
	Long: `abyss renders Spiral Abyss pictures from the HHW schedule dataset and the
Akasha statistics.

Run "abyss chat" to answer chat commands from stdin, or call the commands directly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.SetConsole(logger)

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cacheDir != "" {
			cfg.Dir = cacheDir
		}

		opts := cfg.Logging.Options()
		if verbose {
			opts.Level = "debug"
		}
		if err := logging.Initialize(cfg.Dir, opts); err != nil {
			return err
		}
		return logging.InitAudit()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAudit()
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// syntaxCmd prints the command grammar
var syntaxCmd = &cobra.Command{
	Use:   "syntax",
	Short: "Show the quick view query syntax",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := renderSyntax("auto")
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "Config file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&cacheDir, "dir", "d", "", "Cache directory (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	// Output flags
	quickViewCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the picture here (default: a new file in the current directory)")
	statsCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the picture here (default: a new file in the current directory)")
	chatCmd.Flags().StringVar(&chatOutDir, "out-dir", ".", "Directory for pictures produced by chat commands")
	chatCmd.Flags().DurationVar(&chatRefresh, "refresh", 0, "Dataset refresh period (default: config refresh_interval)")
	assetsCmd.Flags().StringVar(&assetCategory, "category", "", "Only list assets of this category")

	// Add commands to root
	rootCmd.AddCommand(quickViewCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(assetsCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(syntaxCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if p := os.Getenv("GSABYSS_CONFIG"); p != "" {
		return p
	}
	return filepath.Join("data", "gsabyss", "config.yaml")
}

// commandContext returns a context bounded by --timeout that also ends on SIGINT/SIGTERM.
func commandContext(d time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	if d <= 0 {
		return ctx, stop
	}
	tctx, cancel := context.WithTimeout(ctx, d)
	return tctx, func() {
		cancel()
		stop()
	}
}

// newService builds the service from the loaded config.
func newService(ctx context.Context) (*abyss.Service, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	svc, err := abyss.NewService(ctx, cfg, serviceOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to start: %w", err)
	}
	return svc, nil
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
