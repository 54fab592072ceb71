package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/bosstracker/internal/fight"
)

func (s *session) printBuild(w io.Writer, changed bool) error {
	if !changed {
		fmt.Fprintln(w, "No change.")
	}
	b := s.app.Store.State().Build
	used := fight.CharmCost(b.ActiveCharmIDs, s.app.Catalog)
	charms := "none"
	if len(b.ActiveCharmIDs) > 0 {
		charms = strings.Join(b.ActiveCharmIDs, ", ")
	}
	fmt.Fprintf(w, "Nail: %s\n", b.NailUpgradeID)
	fmt.Fprintf(w, "Charms: %s (%d/%d notches)", charms, used, b.NotchLimit)
	if fight.IsOvercharmed(b, s.app.Catalog) {
		fmt.Fprint(w, " overcharmed")
	}
	fmt.Fprintln(w)
	return nil
}

func newNailCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "nail <upgrade-id>",
		Short: "Set the nail upgrade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := s.app.Catalog.NailUpgrade(args[0]); !ok {
				return fmt.Errorf("unknown nail upgrade %q", args[0])
			}
			return s.printBuild(cmd.OutOrStdout(), s.dispatch(fight.SetNailUpgrade{ID: args[0]}))
		},
	}
}

func newCharmsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "charms",
		Short: "Manage equipped charms",
		Long: `Manage equipped charms. Charms that do not fit the notch limit are dropped;
one charm may overcharm the build while a notch is still free.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set [charm-id...]",
			Short: "Replace the equipped charms",
			RunE: func(cmd *cobra.Command, args []string) error {
				var ids []string
				for _, arg := range args {
					ids = append(ids, strings.Split(arg, ",")...)
				}
				return s.printBuild(cmd.OutOrStdout(), s.dispatch(fight.SetActiveCharms{IDs: ids}))
			},
		},
		&cobra.Command{
			Use:   "toggle <charm-id>",
			Short: "Equip or unequip one charm",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return s.printBuild(cmd.OutOrStdout(), s.dispatch(fight.ToggleCharm{ID: args[0]}))
			},
		},
		&cobra.Command{
			Use:   "notches <limit>",
			Short: fmt.Sprintf("Set the notch limit (%d-%d)", fight.MinNotchLimit, fight.MaxNotchLimit),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				limit, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid notch limit %q: %w", args[0], err)
				}
				return s.printBuild(cmd.OutOrStdout(), s.dispatch(fight.SetCharmNotchLimit{Limit: limit}))
			},
		},
	)
	return cmd
}

func newSpellCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "spell <spell-id> <none|base|upgrade>",
		Short: "Set how far a spell is upgraded",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level := fight.SpellLevel(args[1])
			if !level.Valid() {
				return fmt.Errorf("unknown spell level %q", args[1])
			}
			if _, ok := s.app.Catalog.Spell(args[0]); !ok {
				return fmt.Errorf("unknown spell %q", args[0])
			}
			changed := s.dispatch(fight.SetSpellLevel{SpellID: args[0], Level: level})
			if !changed {
				fmt.Fprintln(cmd.OutOrStdout(), "No change.")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], level)
			return nil
		},
	}
}
