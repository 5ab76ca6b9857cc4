package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dosanma1/imgship/internal/compose"
	"github.com/dosanma1/imgship/internal/loader"
)

var (
	loadYes     bool
	loadNoInput bool
	loadCompose string
	loadKeep    bool
)

var loadCmd = &cobra.Command{
	Use:   "load [DIR]",
	Short: "Load every image archive in a directory",
	Long: `Load every *.tar archive in DIR (default: the current directory) into the
local image store. Each archive is attempted even when an earlier one fails;
any failure makes the command exit non-zero.

When every archive loaded and the compose file is present, the data
directories it bind-mounts are created and you are asked whether to start the
services. Finally you are asked whether to delete the archives.

Use --yes to answer every question with yes, --no-input to answer no.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().BoolVarP(&loadYes, "yes", "y", false, "Answer yes to every question")
	loadCmd.Flags().BoolVar(&loadNoInput, "no-input", false, "Never prompt; answer no to every question")
	loadCmd.Flags().StringVar(&loadCompose, "compose", "", "Compose file inside DIR (default package.compose_file)")
	loadCmd.Flags().BoolVar(&loadKeep, "keep", false, "Do not offer to delete the archives")
	loadCmd.MarkFlagsMutuallyExclusive("yes", "no-input")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	cfg, err := loadConfig(buildOverrides)
	if err != nil {
		return err
	}
	composeFile := loadCompose
	if composeFile == "" {
		composeFile = filepath.Base(cfg.Package.ComposeFile)
	}

	dataDirs := append([]string{}, cfg.Deploy.DataDirs...)
	if f, err := compose.Load(filepath.Join(dir, composeFile)); err == nil {
		dataDirs = append(dataDirs, f.BindSources()...)
	}

	runner := newRunner()
	l := &loader.Loader{
		Engine: newEngine(cfg, runner),
		Compose: &loader.ComposeStarter{
			Runner: runner,
			Engine: cfg.Deploy.Engine,
			Stdout: os.Stdout,
			Stderr: os.Stderr,
		},
		Confirm: newConfirmer(loadYes, loadNoInput),
		Out:     os.Stdout,
	}

	_, err = l.Run(cmd.Context(), loader.Options{
		Dir:         dir,
		ComposeFile: composeFile,
		DataDirs:    dataDirs,
		Cleanup:     !loadKeep,
	})
	return err
}
