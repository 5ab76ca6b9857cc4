package main

import (
	"os"

	"github.com/dosanma1/imgship/internal/cmd"
	"github.com/dosanma1/imgship/internal/ui"
)

func main() {
	if err := cmd.Execute(); err != nil {
		ui.Stdout().Error("Error: %v", err)
		os.Exit(1)
	}
}
