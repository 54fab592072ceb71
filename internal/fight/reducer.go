package fight

import (
	"maps"
	"math"
	"slices"
	"strconv"
)

// Reducer is the single state-transition function of the tracker. It is
// pure: it never mutates its input, performs no I/O and returns the input
// pointer unchanged when an action has no effect.
type Reducer struct {
	catalog Catalog
}

// NewReducer creates a reducer over catalog.
func NewReducer(catalog Catalog) *Reducer {
	return &Reducer{catalog: catalog}
}

// Catalog returns the game data the reducer consults.
func (r *Reducer) Catalog() Catalog { return r.catalog }

// Reduce applies a to s.
func (r *Reducer) Reduce(s *State, a Action) *State {
	switch a := a.(type) {
	case LogAttack:
		return r.logAttack(s, a)
	case UndoLastAttack:
		return r.undo(s)
	case RedoLastAttack:
		return r.redo(s)
	case ResetLog:
		return r.resetLog(s)
	case StartFight:
		return r.startFight(s, a.Timestamp)
	case EndFight:
		return r.endFight(s, a.Timestamp)
	case SelectTarget:
		return r.selectTarget(s, a.ID)
	case SetCustomTargetHP:
		return r.setCustomTargetHP(s, a.HP)
	case SetNailUpgrade:
		return r.setNailUpgrade(s, a.ID)
	case SetActiveCharms:
		return r.setBuild(s, s.Build.NotchLimit, a.IDs)
	case ToggleCharm:
		return r.toggleCharm(s, a.ID)
	case SetCharmNotchLimit:
		return r.setBuild(s, a.Limit, s.Build.ActiveCharmIDs)
	case SetSpellLevel:
		return r.setSpellLevel(s, a.SpellID, a.Level)
	case StartSequence:
		return r.startSequence(s, a.ID)
	case StopSequence:
		return r.stopSequence(s)
	case SetSequenceStage:
		return r.setSequenceStage(s, a.Index)
	case AdvanceSequence:
		return r.setSequenceStage(s, s.SequenceIndex+1)
	case RewindSequence:
		return r.setSequenceStage(s, s.SequenceIndex-1)
	case SetSequenceCondition:
		return r.setSequenceCondition(s, a)
	default:
		return s
	}
}

// WholeDamage rounds damage to a non-negative whole number. Logged damage is
// always whole so aggregate totals match a refold of the log exactly.
func WholeDamage(v float64) float64 {
	return max(0, math.Round(v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// eventID derives an id unique within a log from the caller id, the
// timestamp and the log position.
func eventID(callerID string, ts float64, position int) string {
	return callerID + "-" + strconv.FormatFloat(ts, 'f', -1, 64) + "-" + strconv.Itoa(position)
}

// pop returns log without its last element. The result never shares
// writable capacity with log and is nil when empty.
func pop(log []AttackEvent) []AttackEvent {
	if len(log) <= 1 {
		return nil
	}
	return slices.Clip(log[:len(log)-1])
}

func push(log []AttackEvent, ev AttackEvent) []AttackEvent {
	return append(slices.Clip(log), ev)
}

func (r *Reducer) logAttack(s *State, a LogAttack) *State {
	if !finite(a.Timestamp) || !finite(a.Damage) || !a.Category.Valid() {
		return s
	}
	callerID := a.ID
	if callerID == "" {
		callerID = string(a.Category)
	}
	ev := AttackEvent{
		ID:        eventID(callerID, a.Timestamp, len(s.DamageLog)),
		Label:     a.Label,
		Damage:    WholeDamage(a.Damage),
		Category:  a.Category,
		Timestamp: a.Timestamp,
	}
	if a.SoulCost != nil && finite(*a.SoulCost) && *a.SoulCost >= 0 {
		ev.SoulCost = ptr(*a.SoulCost)
	}

	next := s.clone()
	next.DamageLog = push(s.DamageLog, ev)
	next.DamageLogAggregates = AppendEvent(s.DamageLogAggregates, ev)
	next.RedoStack = nil
	return r.commitLog(next)
}

func (r *Reducer) undo(s *State) *State {
	if len(s.DamageLog) == 0 {
		return s
	}
	last := s.DamageLog[len(s.DamageLog)-1]
	next := s.clone()
	next.DamageLog = pop(s.DamageLog)
	next.DamageLogAggregates = RemoveLastEvent(next.DamageLog, last, s.DamageLogAggregates)
	next.RedoStack = push(s.RedoStack, last)
	return r.commitLog(next)
}

func (r *Reducer) redo(s *State) *State {
	if len(s.RedoStack) == 0 {
		return s
	}
	ev := s.RedoStack[len(s.RedoStack)-1]
	next := s.clone()
	next.RedoStack = pop(s.RedoStack)
	next.DamageLog = push(s.DamageLog, ev)
	next.DamageLogAggregates = AppendEvent(s.DamageLogAggregates, ev)
	return r.commitLog(next)
}

func (r *Reducer) resetLog(s *State) *State {
	if len(s.DamageLog) == 0 && len(s.RedoStack) == 0 &&
		s.FightStartTimestamp == nil && s.FightEndTimestamp == nil &&
		!s.FightManuallyStarted && !s.FightManuallyEnded {
		return s
	}
	next := s.clone()
	clearFight(next)
	next.DamageLogVersion++
	return persistActiveStage(next)
}

// clearFight empties the active log and fight markers of a fresh clone.
func clearFight(s *State) {
	s.DamageLog = nil
	s.DamageLogAggregates = Aggregates{}
	s.RedoStack = nil
	s.FightStartTimestamp = nil
	s.FightManuallyStarted = false
	s.FightEndTimestamp = nil
	s.FightManuallyEnded = false
}

// commitLog finishes a log mutation on a fresh clone: it bumps the version,
// re-evaluates auto-completion and writes the stage back.
func (r *Reducer) commitLog(next *State) *State {
	next.DamageLogVersion++
	r.applyCompletion(next)
	return persistActiveStage(next)
}

// applyCompletion ends the fight at the timestamp of the event that brought
// effective damage to the target's HP. A manual end is sticky until reset.
func (r *Reducer) applyCompletion(s *State) {
	if s.FightManuallyEnded {
		return
	}
	target := ResolveTarget(s, r.catalog)
	if target.HP <= 0 || len(s.DamageLog) == 0 {
		s.FightEndTimestamp = nil
		return
	}
	if EffectiveDamage(s.DamageLog, s.DamageLogAggregates.TotalDamage, target) < target.HP {
		s.FightEndTimestamp = nil
		return
	}
	if s.FightEndTimestamp == nil {
		s.FightEndTimestamp = ptr(s.DamageLog[len(s.DamageLog)-1].Timestamp)
	}
}

func (r *Reducer) startFight(s *State, ts float64) *State {
	if !finite(ts) {
		return s
	}
	next := s.clone()
	next.FightStartTimestamp = ptr(ts)
	next.FightManuallyStarted = true
	next.FightEndTimestamp = nil
	next.FightManuallyEnded = false
	r.applyCompletion(next)
	return persistActiveStage(next)
}

func (r *Reducer) endFight(s *State, ts float64) *State {
	if !finite(ts) || s.FightManuallyEnded {
		return s
	}
	start := s.FightStartTimestamp
	if start == nil {
		start = s.DamageLogAggregates.FirstAttackTimestamp
	}
	if start == nil {
		return s
	}
	next := s.clone()
	next.FightEndTimestamp = ptr(max(ts, *start))
	next.FightManuallyEnded = true
	return persistActiveStage(next)
}

func (r *Reducer) knownTarget(id string) bool {
	if id == CustomTargetID {
		return true
	}
	_, ok := r.catalog.Boss(id)
	return ok
}

func (r *Reducer) selectTarget(s *State, id string) *State {
	if id == s.SelectedBossID || !r.knownTarget(id) {
		return s
	}
	var next *State
	if s.InSequence() {
		next = leaveSequence(persistActiveStage(s))
	} else {
		next = s.clone()
		clearFight(next)
		next.DamageLogVersion++
	}
	next.SelectedBossID = id
	return next
}

func (r *Reducer) setCustomTargetHP(s *State, hp float64) *State {
	if !finite(hp) {
		return s
	}
	hp = min(max(math.Round(hp), 1), MaxCustomTargetHP)
	if hp == s.CustomTargetHP {
		return s
	}
	next := s.clone()
	next.CustomTargetHP = hp
	if next.SelectedBossID == CustomTargetID {
		r.applyCompletion(next)
		return persistActiveStage(next)
	}
	return next
}

func (r *Reducer) setNailUpgrade(s *State, id string) *State {
	if id == s.Build.NailUpgradeID {
		return s
	}
	if _, ok := r.catalog.NailUpgrade(id); !ok {
		return s
	}
	next := s.clone()
	next.Build.NailUpgradeID = id
	return next
}

func (r *Reducer) setBuild(s *State, limit int, charms []string) *State {
	limit = ClampNotchLimit(limit)
	kept := NormalizeCharms(charms, limit, r.catalog)
	if limit == s.Build.NotchLimit && slices.Equal(kept, s.Build.ActiveCharmIDs) {
		return s
	}
	next := s.clone()
	next.Build.NotchLimit = limit
	next.Build.ActiveCharmIDs = kept
	return next
}

func (r *Reducer) toggleCharm(s *State, id string) *State {
	if i := slices.Index(s.Build.ActiveCharmIDs, id); i >= 0 {
		return r.setBuild(s, s.Build.NotchLimit, slices.Delete(slices.Clone(s.Build.ActiveCharmIDs), i, i+1))
	}
	return r.setBuild(s, s.Build.NotchLimit, append(slices.Clip(s.Build.ActiveCharmIDs), id))
}

func (r *Reducer) setSpellLevel(s *State, spellID string, level SpellLevel) *State {
	if !level.Valid() {
		return s
	}
	if _, ok := r.catalog.Spell(spellID); !ok {
		return s
	}
	current, ok := s.Build.SpellLevels[spellID]
	if ok && current == level {
		return s
	}
	next := s.clone()
	next.Build.SpellLevels = withEntry(s.Build.SpellLevels, spellID, level)
	return next
}

// Normalize re-establishes the invariants of a state that did not come out
// of Reduce, such as one restored from storage: the build fits its notch
// limit, custom HP is in range, an active sequence exists and its stage is
// in range, and the active fields mirror the current stage entry.
func (r *Reducer) Normalize(s *State) *State {
	next := s.clone()
	next.Build = normalizeBuild(s.Build, r.catalog)
	if next.Build.SpellLevels == nil {
		next.Build.SpellLevels = map[string]SpellLevel{}
	}
	if !finite(next.CustomTargetHP) || next.CustomTargetHP < 1 {
		next.CustomTargetHP = DefaultCustomTargetHP
	}
	next.CustomTargetHP = min(next.CustomTargetHP, MaxCustomTargetHP)
	next.DamageLogAggregates = DeriveFromLog(next.DamageLog)

	if !next.InSequence() {
		next.SequenceIndex = 0
		return next
	}
	stages, ok := r.stages(next, next.ActiveSequenceID)
	if !ok || len(stages) == 0 {
		next.ActiveSequenceID = ""
		next.SequenceIndex = 0
		return next
	}
	index := min(max(next.SequenceIndex, 0), len(stages)-1)
	if index != next.SequenceIndex {
		return r.enterStage(next, next.ActiveSequenceID, index)
	}
	next.SelectedBossID = stages[index].TargetID
	return persistActiveStage(next)
}

func withEntry[V any](m map[string]V, key string, v V) map[string]V {
	next := maps.Clone(m)
	if next == nil {
		next = make(map[string]V, 1)
	}
	next[key] = v
	return next
}

func withoutEntry[V any](m map[string]V, key string) map[string]V {
	if _, ok := m[key]; !ok {
		return m
	}
	next := maps.Clone(m)
	delete(next, key)
	return next
}
