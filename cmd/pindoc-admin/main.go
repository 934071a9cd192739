package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/notepid/pindoc/internal/admin/app"
	"github.com/notepid/pindoc/internal/admin/ui"
)

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:   "pindoc-admin",
		Short: "Browse the history archive and preview digests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := app.New(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			_, err = tea.NewProgram(ui.NewRootModel(a), tea.WithAltScreen()).Run()
			return err
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to configuration file")

	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
