package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dosanma1/imgship/internal/ui"
	"github.com/dosanma1/imgship/pkg/xos"
)

var cleanYes bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the output directory",
	Long: `Remove the output directory with the archive, manifest, copied files and
generated scripts. Asks for confirmation unless --yes is given.`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "Do not ask for confirmation")
	cleanCmd.Flags().StringVarP(&buildOverrides.Output, "output", "o", "", "Override output.dir")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(buildOverrides)
	if err != nil {
		return err
	}
	dir := cfg.Output.Dir
	printer := ui.Stdout()

	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		printer.Info("%s does not exist, nothing to clean", dir)
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	size, err := xos.DirSize(dir)
	if err != nil {
		return err
	}

	ok, err := newConfirmer(cleanYes, false).Confirm(fmt.Sprintf("Remove %s (%s)", dir, humanize.Bytes(uint64(size))))
	if err != nil {
		return err
	}
	if !ok {
		printer.Info("Cancelled.")
		return nil
	}

	printer.Step(ui.IconTool, "Removing %s", dir)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	printer.Success("Clean completed successfully")
	return nil
}
