package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func newDataCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "List the game data the tracker knows about",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "bosses",
			Short: "List bosses and their HP",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tNAME\tHP\tPHASES")
				fmt.Fprintln(tw, "--\t----\t--\t------")
				for _, b := range s.app.Catalog.Current().Bosses() {
					phases := "-"
					if len(b.Phases) > 0 {
						parts := make([]string, 0, len(b.Phases))
						for _, p := range b.Phases {
							part := s.printer.Sprintf("%.0f", p.HP)
							if p.DiscardOverkill {
								part += "*"
							}
							parts = append(parts, part)
						}
						phases = strings.Join(parts, " / ")
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.ID, b.Name, s.printer.Sprintf("%.0f", b.TotalHP()), phases)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "sequences",
			Short: "List boss sequences with their stages",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				w := cmd.OutOrStdout()
				state := s.app.Store.State()
				for _, seq := range s.app.Catalog.Current().Sequences() {
					stages := seq.Resolve(state.SequenceConditions[seq.ID])
					fmt.Fprintf(w, "%s (%s), %d stages\n", seq.Name, seq.ID, len(stages))
					for _, c := range seq.Conditions {
						fmt.Fprintf(w, "  condition %s: %s\n", c.ID, c.Label)
					}
					for _, st := range stages {
						fmt.Fprintf(w, "  %2d. %s\n", st.Index+1, st.TargetID)
					}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "presets",
			Short: "List attack presets with their damage under the current build",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				caser := cases.Title(language.English)
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tLABEL\tCATEGORY\tDAMAGE")
				fmt.Fprintln(tw, "--\t-----\t--------\t------")
				for _, p := range s.app.Catalog.Current().Presets() {
					damage := "error"
					if attack, err := s.app.Preset(cmd.Context(), p.ID); err == nil {
						damage = s.printer.Sprintf("%.0f", attack.Damage)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Label, caser.String(p.Category), damage)
				}
				return tw.Flush()
			},
		},
	)
	return cmd
}
