package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nfrund/bosstracker/internal/events"
)

// lockedWriter serialises command output with event notices printed from
// bus subscriptions. Writes after stop are dropped.
type lockedWriter struct {
	mu      sync.Mutex
	w       io.Writer
	stopped bool
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return len(p), nil
	}
	return l.w.Write(p)
}

func (l *lockedWriter) stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
}

func newReplCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Track a fight interactively",
		Long: `Start an interactive session. Every line is run as a tracker command
against the same in-memory state, so timing stays exact between hits.
State is saved in the background and flushed on exit.

Type "help" for the command list and "exit" to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			out := &lockedWriter{w: cmd.OutOrStdout()}
			defer out.stop()
			if err := s.listen(ctx, out); err != nil {
				return err
			}

			s.interactive = true
			defer func() { s.interactive = false }()
			return s.repl(ctx, cmd.InOrStdin(), out, cmd.ErrOrStderr())
		},
	}
}

func (s *session) listen(ctx context.Context, out io.Writer) error {
	err := events.Listen(ctx, s.app.Bus, events.TopicFightComplete, func(_ context.Context, ev events.FightCompleted) error {
		elapsed := "-"
		if ev.Start != nil {
			ms := ev.End - *ev.Start
			elapsed = seconds(&ms)
		}
		fmt.Fprintln(out, s.printer.Sprintf("** %s down: %.0f damage, %d attacks, %s", ev.TargetID, ev.TotalDamage, ev.Attacks, elapsed))
		return nil
	})
	if err != nil {
		return err
	}
	return events.Listen(ctx, s.app.Bus, events.TopicStageEntered, func(_ context.Context, ev events.StageEntered) error {
		fmt.Fprintf(out, "** %s stage %d: %s\n", ev.SequenceID, ev.Index+1, ev.TargetID)
		return nil
	})
}

func (s *session) repl(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 {
			if fields[0] == "exit" || fields[0] == "quit" {
				break
			}
			tree := newCommandTree(s)
			tree.SetArgs(fields)
			tree.SetIn(in)
			tree.SetOut(out)
			tree.SetErr(errOut)
			// Cobra already reported the error on errOut.
			_ = tree.ExecuteContext(ctx)
		}
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "> ")
	}
	fmt.Fprintln(out)
	return scanner.Err()
}
