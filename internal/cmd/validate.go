package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dosanma1/imgship/internal/config"
	"github.com/dosanma1/imgship/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the imgship configuration",
	Long: `Validates the configuration file against the JSON Schema, then checks the
values the schema cannot: the image reference, the platform and the output
file names.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultFileName
	}

	printer := ui.Stdout()
	printer.Step(ui.IconSearch, "Validating %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if configPath == "" && errors.Is(err, os.ErrNotExist) {
			printer.Info("%s not found, defaults apply", path)
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	violations, err := config.ValidateDocument(data)
	if err != nil {
		return err
	}
	if len(violations) > 0 {
		printer.Error("Validation failed with the following errors:")
		for i, v := range violations {
			printer.Info("%d. %s", i+1, v.Description)
			printer.Hint("Field: %s", v.Field)
		}
		return fmt.Errorf("%w: %d schema errors", config.ErrInvalid, len(violations))
	}

	// Semantic checks beyond the schema.
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	printer.Success("%s is valid", path)
	printer.Info("Image:    %s", cfg.ImageRef())
	printer.Info("Platform: %s", cfg.Image.Platform)
	printer.Info("Archive:  %s", cfg.ArchivePath())
	return nil
}
