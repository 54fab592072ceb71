package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nfrund/bosstracker/internal/app"
	"github.com/nfrund/bosstracker/internal/config"
	"github.com/nfrund/bosstracker/internal/fight"
	"github.com/nfrund/bosstracker/internal/logging"
)

// annotationNoApp marks commands that run without hydrating the tracker.
const annotationNoApp = "tracker/no-app"

// session is what every command of one invocation shares. In the REPL a
// single session outlives many command trees.
type session struct {
	app         *app.App
	printer     *message.Printer
	interactive bool
	now         func() time.Time
}

func newSession() *session {
	return &session{
		printer: message.NewPrinter(language.English),
		now:     time.Now,
	}
}

// timestamp is the current wall-clock time in milliseconds.
func (s *session) timestamp() float64 {
	return float64(s.now().UnixMilli())
}

// dispatch applies a and reports whether the state changed.
func (s *session) dispatch(a fight.Action) bool {
	prev := s.app.Store.State()
	return s.app.Store.Dispatch(a) != prev
}

func (s *session) open(ctx context.Context) error {
	if s.app != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogFormat, cfg.LogLevel)
	a, err := app.New(ctx, cfg, app.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("start tracker: %w", err)
	}
	s.app = a
	return nil
}

func (s *session) close(ctx context.Context) error {
	if s.app == nil || s.interactive {
		return nil
	}
	err := s.app.Close(ctx)
	s.app = nil
	return err
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	s := newSession()
	root := newCommandTree(s)
	root.AddCommand(newReplCmd(s), newVersionCmd())
	return root
}

// newCommandTree builds the commands shared by one-shot invocations and
// REPL lines.
func newCommandTree(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:   "tracker",
		Short: "Boss-fight damage tracker",
		Long: `tracker logs attacks against a boss, derives live fight stats and keeps
separate logs for every stage of a boss sequence. State is persisted between
invocations according to TRACKER_STORAGE.

Use "tracker [command] --help" for more information about a command.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoApp] != "" {
				return nil
			}
			return s.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return s.close(cmd.Context())
		},
	}

	root.AddCommand(
		newLogCmd(s),
		newUndoCmd(s),
		newRedoCmd(s),
		newResetCmd(s),
		newStartCmd(s),
		newEndCmd(s),
		newTargetCmd(s),
		newHPCmd(s),
		newNailCmd(s),
		newCharmsCmd(s),
		newSpellCmd(s),
		newSeqCmd(s),
		newStatsCmd(s),
		newShowCmd(s),
		newClearCmd(s),
		newDataCmd(s),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// printStatsAfter is the RunE tail of every command that changes the fight.
func (s *session) printStatsAfter(w io.Writer, changed bool) error {
	if !changed {
		fmt.Fprintln(w, "No change.")
	}
	st := s.app.Store.Tick(s.timestamp())
	return renderStats(w, s.printer, st, s.app.Store.State(), s.app.Reducer)
}
