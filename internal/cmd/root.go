package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dosanma1/imgship/internal/logging"
)

// Version is set at build time with -ldflags.
var Version = "dev"

var (
	configPath string
	verbose    bool
	logFormat  string

	logger = logging.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "imgship",
	Short: "Build, verify and package a container image for offline shipping",
	Long: `imgship builds a container image for one fixed platform, verifies the built
architecture, exports it to an archive and packages it with the compose file,
the Dockerfile, a manifest and two scripts: upload.sh copies the package to a
remote host and load.sh loads it there.

Without a subcommand imgship runs the build pipeline.

Configuration is read from .imgship.yaml in the current directory when present.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	RunE:              runBuild,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the running
// engine command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default .imgship.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log executed commands and timings")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text|json)")
	addBuildFlags(rootCmd)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	format, err := logging.ParseFormat(logFormat)
	if err != nil {
		return err
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = logging.New(format, os.Stderr, level)
	slog.SetDefault(logger)
	return nil
}
