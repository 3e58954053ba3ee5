package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/luhuaei/interleave/internal/config"
	"github.com/luhuaei/interleave/internal/tui"
)

var (
	cfgFile     string
	noAltScreen bool
)

var rootCmd = &cobra.Command{
	Use:   "interleave [outline-or-pdf]",
	Short: "Read a PDF and its outline notes side by side",
	Long: `Interleave pairs a PDF with an org-style outline file and keeps the two
in sync: turning a page moves the outline to that page's note section, and
moving between note sections turns the page.

Given a PDF argument the matching outline file is found on the configured
search path, or created next to the PDF. Given an outline file the PDF it
declares is opened; an outline holding notes for several PDFs scopes the
session to the matching top-level heading.`,
	Version: fmt.Sprintf("%s (%s, %s)", gitRelease, gitCommit, gitCommitDate),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		target := ""
		if len(args) == 1 {
			target = args[0]
		}

		opts := []tea.ProgramOption{}
		if !noAltScreen {
			opts = append(opts, tea.WithAltScreen())
		}
		program := tea.NewProgram(
			tui.New(tui.Config{App: cfg, Target: target}),
			opts...,
		)
		_, err = program.Run()
		return err
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.config/interleave/config.yaml)",
	)
	rootCmd.Flags().BoolVar(
		&noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer",
	)

	rootCmd.AddCommand(versionCmd)
}
