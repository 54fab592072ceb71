package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nfrund/bosstracker/internal/domain"
	"github.com/nfrund/bosstracker/internal/fight"
)

func newSeqCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seq",
		Short: "Run a boss sequence",
		Long: `Run a boss sequence. Every stage keeps its own log, redo stack and fight
markers, so moving between stages never loses data.

Examples:
  tracker seq start pantheon-of-the-master
  tracker seq next
  tracker seq goto 3
  tracker seq cond pantheon-of-the-master include-mawlek on`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "start <sequence-id>",
			Short: "Enter the first stage of a sequence",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, ok := s.app.Catalog.Sequence(args[0]); !ok {
					return fmt.Errorf("sequence %q: %w", args[0], domain.ErrUnknownSequence)
				}
				return s.printStatsAfter(cmd.OutOrStdout(), s.dispatch(fight.StartSequence{ID: args[0]}))
			},
		},
		simpleCmd(s, "stop", "Leave the active sequence", func() fight.Action {
			return fight.StopSequence{}
		}),
		simpleCmd(s, "next", "Advance to the next stage", func() fight.Action {
			return fight.AdvanceSequence{}
		}),
		simpleCmd(s, "prev", "Go back to the previous stage", func() fight.Action {
			return fight.RewindSequence{}
		}),
		&cobra.Command{
			Use:   "goto <stage>",
			Short: "Jump to a stage, counting from 1",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid stage %q: %w", args[0], err)
				}
				return s.printStatsAfter(cmd.OutOrStdout(), s.dispatch(fight.SetSequenceStage{Index: n - 1}))
			},
		},
		&cobra.Command{
			Use:   "cond <sequence-id> <condition-id> <on|off>",
			Short: "Toggle a condition that changes the stages of a sequence",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				seq, ok := s.app.Catalog.Sequence(args[0])
				if !ok {
					return fmt.Errorf("sequence %q: %w", args[0], domain.ErrUnknownSequence)
				}
				if _, ok := seq.ConditionDefault(args[1]); !ok {
					return fmt.Errorf("sequence %q has no condition %q", args[0], args[1])
				}
				enabled, err := parseSwitch(args[2])
				if err != nil {
					return err
				}
				return s.printStatsAfter(cmd.OutOrStdout(), s.dispatch(fight.SetSequenceCondition{
					SequenceID:  args[0],
					ConditionID: args[1],
					Enabled:     enabled,
				}))
			},
		},
	)
	return cmd
}

func parseSwitch(v string) (bool, error) {
	switch v {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", v)
}
