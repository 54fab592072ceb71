package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/text/message"

	"github.com/nfrund/bosstracker/internal/fight"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func fightStatus(st fight.Stats) string {
	switch {
	case st.IsFightComplete:
		return "complete"
	case st.IsFightInProgress:
		return "in progress"
	default:
		return "idle"
	}
}

func optional(p *message.Printer, v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return p.Sprintf(format, *v)
}

func seconds(ms *float64) string {
	if ms == nil {
		return "-"
	}
	return (time.Duration(*ms) * time.Millisecond).Round(100 * time.Millisecond).String()
}

func renderStats(w io.Writer, p *message.Printer, st fight.Stats, s *fight.State, r *fight.Reducer) error {
	tw := newTable(w)

	name := st.TargetName
	if name == "" {
		name = st.TargetID
	}
	fmt.Fprintf(tw, "Target:\t%s\t%s\n", name, p.Sprintf("%.0f HP", st.TargetHP))
	if s.InSequence() {
		stages := r.Stages(s, s.ActiveSequenceID)
		fmt.Fprintf(tw, "Sequence:\t%s\tstage %d/%d\n", s.ActiveSequenceID, s.SequenceIndex+1, len(stages))
	}
	if st.Phase.Count > 0 {
		fmt.Fprintf(tw, "Phase:\t%s\t%d/%d\n", st.Phase.Label, st.Phase.Number, st.Phase.Count)
	}
	fmt.Fprintf(tw, "Damage:\t%s\t%s\n",
		p.Sprintf("%.0f / %.0f", st.EffectiveDamage, st.TargetHP),
		p.Sprintf("%.0f remaining", st.RemainingHP))
	fmt.Fprintf(tw, "Attacks:\t%d\tavg %s\n", st.AttacksLogged, optional(p, st.AverageDamage, "%.1f"))
	fmt.Fprintf(tw, "Elapsed:\t%s\t\n", seconds(st.ElapsedMs))
	fmt.Fprintf(tw, "DPS:\t%s\tAPM %s\n", optional(p, st.DPS, "%.1f"), optional(p, st.ActionsPerMinute, "%.1f"))
	fmt.Fprintf(tw, "ETA:\t%s\t\n", optional(p, st.EstimatedSecondsRemaining, "%.1fs"))
	fmt.Fprintf(tw, "Status:\t%s\t\n", fightStatus(st))
	return tw.Flush()
}

func renderState(w io.Writer, p *message.Printer, s *fight.State) error {
	tw := newTable(w)
	b := s.Build
	fmt.Fprintf(tw, "Nail:\t%s\n", b.NailUpgradeID)
	fmt.Fprintf(tw, "Notches:\t%d\n", b.NotchLimit)
	charms := "-"
	if len(b.ActiveCharmIDs) > 0 {
		charms = strings.Join(b.ActiveCharmIDs, ", ")
	}
	fmt.Fprintf(tw, "Charms:\t%s\n", charms)
	for _, id := range slices.Sorted(maps.Keys(b.SpellLevels)) {
		fmt.Fprintf(tw, "Spell %s:\t%s\n", id, b.SpellLevels[id])
	}
	fmt.Fprintf(tw, "Custom HP:\t%s\n", p.Sprintf("%.0f", s.CustomTargetHP))
	fmt.Fprintf(tw, "Log version:\t%d\n", s.DamageLogVersion)
	fmt.Fprintf(tw, "Redo:\t%d\n", len(s.RedoStack))
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.DamageLog) == 0 {
		fmt.Fprintln(w, "\nNo attacks logged.")
		return nil
	}
	fmt.Fprintln(w)
	tw = newTable(w)
	fmt.Fprintln(tw, "#\tID\tLABEL\tCATEGORY\tDAMAGE")
	fmt.Fprintln(tw, "-\t--\t-----\t--------\t------")
	for i, ev := range s.DamageLog {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, ev.ID, ev.Label, ev.Category, p.Sprintf("%.0f", ev.Damage))
	}
	return tw.Flush()
}
