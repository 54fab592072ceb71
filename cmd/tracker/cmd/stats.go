package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print live stats of the current fight",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := s.app.Store.Tick(s.timestamp())
			return renderStats(cmd.OutOrStdout(), s.printer, st, s.app.Store.State(), s.app.Reducer)
		},
	}
}

func newShowCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the build and the attack log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderState(cmd.OutOrStdout(), s.printer, s.app.Store.State())
		},
	}
}

func newClearCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved state and start over",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.Store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved state cleared.")
			return nil
		},
	}
}
