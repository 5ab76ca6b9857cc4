package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dosanma1/imgship/internal/ui"
)

var scriptsCmd = &cobra.Command{
	Use:   "scripts",
	Short: "Regenerate upload.sh and load.sh without building",
	Long: `Regenerate the upload and load scripts in the output directory from the
current configuration. Files already present in the output directory are
listed in the upload script; the image is not rebuilt.`,
	RunE: runScripts,
}

func init() {
	scriptsCmd.Flags().StringVarP(&buildOverrides.Output, "output", "o", "", "Override output.dir")
	scriptsCmd.Flags().StringVar(&templatesDir, "templates", "", "Directory with upload.sh.tmpl/load.sh.tmpl overrides")
	rootCmd.AddCommand(scriptsCmd)
}

func runScripts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(buildOverrides)
	if err != nil {
		return err
	}

	p := newPipeline(cfg)
	set, err := p.GenerateScripts(p.ExistingPackage())
	if err != nil {
		return err
	}

	printer := ui.Stdout()
	printer.Info("%s", set.Upload)
	printer.Info("%s", set.Load)
	return nil
}
