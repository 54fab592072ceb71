package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/bosstracker/internal/fight"
)

func newLogCmd(s *session) *cobra.Command {
	var (
		damage   float64
		label    string
		category string
	)
	cmd := &cobra.Command{
		Use:   "log [preset]",
		Short: "Log an attack against the current target",
		Long: `Log an attack. With a preset id the damage is computed from the current
build; with --damage a manual hit is logged instead.

Examples:
  tracker log nail
  tracker log vengeful-spirit
  tracker log --damage 21 --label "Pure Nail" --category nail`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts := s.timestamp()
			var action fight.LogAttack
			switch {
			case len(args) == 1:
				attack, err := s.app.Preset(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				action = attack.LogAction(ts)
			case cmd.Flags().Changed("damage"):
				action = fight.LogAttack{
					ID:        "manual",
					Label:     label,
					Damage:    damage,
					Category:  fight.Category(category),
					Timestamp: ts,
				}
				if !action.Category.Valid() {
					return fmt.Errorf("unknown category %q", category)
				}
			default:
				return fmt.Errorf("a preset or --damage is required")
			}
			changed := s.dispatch(action)
			if changed {
				fmt.Fprintln(cmd.OutOrStdout(), s.printer.Sprintf("Logged %s for %.0f.", action.Label, max(0, action.Damage)))
			}
			return s.printStatsAfter(cmd.OutOrStdout(), changed)
		},
	}
	cmd.Flags().Float64VarP(&damage, "damage", "d", 0, "Damage of a manual hit")
	cmd.Flags().StringVarP(&label, "label", "l", "Manual hit", "Label of a manual hit")
	cmd.Flags().StringVarP(&category, "category", "c", string(fight.CategoryNail), "Category of a manual hit (nail, spell, nail-art, charm)")
	return cmd
}

// simpleCmd builds a command that dispatches one action and prints stats.
func simpleCmd(s *session, use, short string, action func() fight.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.printStatsAfter(cmd.OutOrStdout(), s.dispatch(action()))
		},
	}
}

func newUndoCmd(s *session) *cobra.Command {
	return simpleCmd(s, "undo", "Remove the last logged attack", func() fight.Action {
		return fight.UndoLastAttack{}
	})
}

func newRedoCmd(s *session) *cobra.Command {
	return simpleCmd(s, "redo", "Restore the last undone attack", func() fight.Action {
		return fight.RedoLastAttack{}
	})
}

func newResetCmd(s *session) *cobra.Command {
	return simpleCmd(s, "reset", "Clear the current fight", func() fight.Action {
		return fight.ResetLog{}
	})
}

func newStartCmd(s *session) *cobra.Command {
	return simpleCmd(s, "start", "Mark the fight as started now", func() fight.Action {
		return fight.StartFight{Timestamp: s.timestamp()}
	})
}

func newEndCmd(s *session) *cobra.Command {
	return simpleCmd(s, "end", "Mark the fight as ended now", func() fight.Action {
		return fight.EndFight{Timestamp: s.timestamp()}
	})
}
