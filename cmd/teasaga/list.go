package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kingrea/teasaga/internal/demos"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available demos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProject(cmd)
			if err != nil {
				return err
			}
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))).
				Headers("", "ID", "TITLE", "KEYS")
			for _, d := range demos.Catalog(demos.Options{FetchDelay: cfg.FetchDelay()}) {
				marker := ""
				if d.ID == cfg.DefaultDemo() {
					marker = "*"
				}
				keys := make([]string, 0, len(d.Bindings))
				for _, b := range d.Bindings {
					keys = append(keys, b.Key+" "+b.Help)
				}
				t.Row(marker, d.ID, d.Title, strings.Join(keys, ", "))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return err
		},
	}
}
