package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nfrund/bosstracker/internal/domain"
	"github.com/nfrund/bosstracker/internal/fight"
)

func newTargetCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "target <boss-id|custom>",
		Short: "Select the boss to fight",
		Long: `Select a boss from the game data, or "custom" to fight a target with the
HP set by "tracker hp". Switching targets starts a fresh fight and leaves
any active sequence.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if _, ok := s.app.Catalog.Boss(id); !ok && id != fight.CustomTargetID {
				return fmt.Errorf("target %q: %w", id, domain.ErrUnknownTarget)
			}
			return s.printStatsAfter(cmd.OutOrStdout(), s.dispatch(fight.SelectTarget{ID: id}))
		},
	}
}

func newHPCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "hp <value>",
		Short: "Set the HP of the custom target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hp, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid hp %q: %w", args[0], err)
			}
			return s.printStatsAfter(cmd.OutOrStdout(), s.dispatch(fight.SetCustomTargetHP{HP: hp}))
		},
	}
}
