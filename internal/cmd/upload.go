package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dosanma1/imgship/internal/pipeline"
	"github.com/dosanma1/imgship/internal/ui"
	"github.com/dosanma1/imgship/internal/upload"
)

var uploadDir string

var uploadCmd = &cobra.Command{
	Use:   "upload user@host:/remote/path/",
	Short: "Copy the package to a remote host",
	Long: `Copy the archive, manifest, copied configuration files and load script to a
remote host. The remote directory is created over ssh; files are transferred
with rsync when it is installed, otherwise with scp.

The destination is split on its first colon, so the host part cannot contain
a colon.

Examples:
  imgship upload deploy@10.0.0.5:/opt/app/
  imgship upload --dir release deploy@host:app`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadDir, "dir", "d", "", "Package directory (default output.dir)")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	var arg string
	if len(args) == 1 {
		arg = args[0]
	}
	dest, err := upload.ParseDestination(arg)
	if err != nil {
		if errors.Is(err, upload.ErrUsage) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Usage: %s\n", cmd.UseLine())
		}
		return err
	}

	cfg, err := loadConfig(buildOverrides)
	if err != nil {
		return err
	}
	dir := uploadDir
	if dir == "" {
		dir = cfg.Output.Dir
	}

	files, err := upload.Files(dir, cfg, pipeline.LoadScriptName)
	if err != nil {
		return err
	}

	printer := ui.Stdout()
	printer.Step(ui.IconUpload, "Uploading %d file(s) to %s", len(files), dest)

	u := &upload.Uploader{Runner: newRunner(), Stdout: os.Stdout, Stderr: os.Stderr}
	if err := u.Upload(cmd.Context(), dest, files); err != nil {
		return err
	}

	printer.Success("Upload complete")
	printer.Hint("On the remote host: cd %s && ./%s", dest.Path, pipeline.LoadScriptName)
	return nil
}
