package fight

import (
	"fmt"

	"github.com/nfrund/bosstracker/internal/gamedata"
)

// Target is the HP model of whatever is currently selected.
type Target struct {
	ID     string
	Name   string
	HP     float64
	Phases []gamedata.Phase
}

// ResolveTarget returns the HP model for the selected boss. Unknown ids
// resolve to a zero-HP target.
func ResolveTarget(s *State, catalog Catalog) Target {
	if s.SelectedBossID == CustomTargetID {
		return Target{ID: CustomTargetID, Name: "Custom", HP: s.CustomTargetHP}
	}
	b, ok := catalog.Boss(s.SelectedBossID)
	if !ok {
		return Target{ID: s.SelectedBossID}
	}
	return Target{ID: b.ID, Name: b.Name, HP: b.TotalHP(), Phases: b.Phases}
}

func discardsOverkill(phases []gamedata.Phase) bool {
	for _, p := range phases {
		if p.DiscardOverkill {
			return true
		}
	}
	return false
}

// EffectiveDamage is the damage that counts against the target. Without a
// discarding phase it is min(totalDamage, HP). Otherwise the log is replayed
// against the phase pools and the overflow of any hit past a discarding
// phase is dropped instead of carried into the next phase.
func EffectiveDamage(log []AttackEvent, totalDamage float64, t Target) float64 {
	if !discardsOverkill(t.Phases) {
		return max(0, min(totalDamage, t.HP))
	}

	var (
		cursor    int
		remaining = t.Phases[0].HP
		applied   float64
	)
	for _, ev := range log {
		dmg := ev.Damage
		for dmg > 0 && cursor < len(t.Phases) {
			if dmg < remaining {
				remaining -= dmg
				applied += dmg
				break
			}
			applied += remaining
			dmg -= remaining
			discard := t.Phases[cursor].DiscardOverkill
			cursor++
			if cursor < len(t.Phases) {
				remaining = t.Phases[cursor].HP
			}
			if discard {
				break
			}
		}
		if cursor >= len(t.Phases) {
			break
		}
	}
	return applied
}

// PhaseInfo describes where in a multi-phase fight the damage has reached.
type PhaseInfo struct {
	Number     int
	Count      int
	Label      string
	Thresholds []float64
}

// DescribePhase reports the first phase whose cumulative HP has not been
// reached by effective, or the last phase once all are consumed. Thresholds
// are the remaining-HP values at each phase boundary. The zero value is
// returned for single-pool targets.
func DescribePhase(t Target, effective float64) PhaseInfo {
	if len(t.Phases) == 0 {
		return PhaseInfo{}
	}

	info := PhaseInfo{Count: len(t.Phases), Number: len(t.Phases)}
	cumulative := 0.0
	found := false
	for i, p := range t.Phases {
		cumulative += p.HP
		if i < len(t.Phases)-1 {
			info.Thresholds = append(info.Thresholds, t.HP-cumulative)
		}
		if !found && effective < cumulative {
			info.Number = i + 1
			found = true
		}
	}

	phase := t.Phases[info.Number-1]
	info.Label = phase.Label
	if info.Label == "" {
		info.Label = fmt.Sprintf("Phase %d", info.Number)
	}
	return info
}
