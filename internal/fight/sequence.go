package fight

import (
	"maps"
	"slices"
	"strings"

	"github.com/nfrund/bosstracker/internal/gamedata"
)

// stages resolves the stage list of seqID under the state's conditions.
func (r *Reducer) stages(s *State, seqID string) ([]gamedata.Stage, bool) {
	seq, ok := r.catalog.Sequence(seqID)
	if !ok {
		return nil, false
	}
	return seq.Resolve(s.SequenceConditions[seqID]), true
}

// Stages exposes the resolved stage list of seqID for s.
func (r *Reducer) Stages(s *State, seqID string) []gamedata.Stage {
	stages, _ := r.stages(s, seqID)
	return stages
}

// persistActiveStage writes the active log, aggregates, redo stack and
// fight markers under the current stage key. It is a no-op outside a
// sequence.
func persistActiveStage(s *State) *State {
	if !s.InSequence() {
		return s
	}
	key := StageKey(s.ActiveSequenceID, s.SequenceIndex)
	next := s.clone()
	next.SequenceLogs = withEntry(s.SequenceLogs, key, s.DamageLog)
	next.SequenceLogAggregates = withEntry(s.SequenceLogAggregates, key, s.DamageLogAggregates)
	next.SequenceRedoStacks = withEntry(s.SequenceRedoStacks, key, s.RedoStack)
	if s.FightStartTimestamp != nil {
		next.SequenceFightStartTimestamps = withEntry(s.SequenceFightStartTimestamps, key, *s.FightStartTimestamp)
	} else {
		next.SequenceFightStartTimestamps = withoutEntry(s.SequenceFightStartTimestamps, key)
	}
	if s.FightEndTimestamp != nil {
		next.SequenceFightEndTimestamps = withEntry(s.SequenceFightEndTimestamps, key, *s.FightEndTimestamp)
	} else {
		next.SequenceFightEndTimestamps = withoutEntry(s.SequenceFightEndTimestamps, key)
	}
	next.SequenceManualStartFlags = withEntry(s.SequenceManualStartFlags, key, s.FightManuallyStarted)
	next.SequenceManualEndFlags = withEntry(s.SequenceManualEndFlags, key, s.FightManuallyEnded)
	return next
}

// enterStage makes stage index of seqID active, loading whatever was stored
// for it. index is clamped into the stage list.
func (r *Reducer) enterStage(s *State, seqID string, index int) *State {
	stages, ok := r.stages(s, seqID)
	if !ok || len(stages) == 0 {
		return s
	}
	index = min(max(index, 0), len(stages)-1)
	key := StageKey(seqID, index)

	next := s.clone()
	next.ActiveSequenceID = seqID
	next.SequenceIndex = index
	next.SelectedBossID = stages[index].TargetID
	next.DamageLog = s.SequenceLogs[key]
	next.DamageLogAggregates = s.SequenceLogAggregates[key]
	next.RedoStack = s.SequenceRedoStacks[key]
	next.FightStartTimestamp = nil
	if v, ok := s.SequenceFightStartTimestamps[key]; ok {
		next.FightStartTimestamp = ptr(v)
	}
	next.FightEndTimestamp = nil
	if v, ok := s.SequenceFightEndTimestamps[key]; ok {
		next.FightEndTimestamp = ptr(v)
	}
	next.FightManuallyStarted = s.SequenceManualStartFlags[key]
	next.FightManuallyEnded = s.SequenceManualEndFlags[key]
	next.DamageLogVersion++
	return persistActiveStage(next)
}

// leaveSequence deactivates the sequence of an already persisted state and
// starts a fresh fight. Stored stage data is kept for a later resume.
func leaveSequence(s *State) *State {
	next := s.clone()
	next.ActiveSequenceID = ""
	next.SequenceIndex = 0
	clearFight(next)
	next.DamageLogVersion++
	return next
}

func (r *Reducer) startSequence(s *State, id string) *State {
	if id == s.ActiveSequenceID {
		return s
	}
	if stages, ok := r.stages(s, id); !ok || len(stages) == 0 {
		return s
	}
	return r.enterStage(persistActiveStage(s), id, 0)
}

func (r *Reducer) stopSequence(s *State) *State {
	if !s.InSequence() {
		return s
	}
	return leaveSequence(persistActiveStage(s))
}

// setSequenceStage moves to index. Moving past either end is a no-op.
func (r *Reducer) setSequenceStage(s *State, index int) *State {
	if !s.InSequence() {
		return s
	}
	stages, ok := r.stages(s, s.ActiveSequenceID)
	if !ok || len(stages) == 0 {
		return s
	}
	index = min(max(index, 0), len(stages)-1)
	if index == s.SequenceIndex {
		return s
	}
	return r.enterStage(persistActiveStage(s), s.ActiveSequenceID, index)
}

// setSequenceCondition records a condition value. When it changes which
// targets the sequence resolves to, every stored stage of that sequence is
// dropped because indices may now point at different fights; an active
// sequence then reloads its (clamped) current stage.
func (r *Reducer) setSequenceCondition(s *State, a SetSequenceCondition) *State {
	seq, ok := r.catalog.Sequence(a.SequenceID)
	if !ok {
		return s
	}
	if _, defined := seq.ConditionDefault(a.ConditionID); !defined {
		return s
	}
	current, explicit := s.SequenceConditions[a.SequenceID][a.ConditionID]
	if explicit && current == a.Enabled {
		return s
	}

	before := stageTargets(seq.Resolve(s.SequenceConditions[a.SequenceID]))
	next := s.clone()
	next.SequenceConditions = withEntry(s.SequenceConditions, a.SequenceID,
		withEntry(s.SequenceConditions[a.SequenceID], a.ConditionID, a.Enabled))
	after := stageTargets(seq.Resolve(next.SequenceConditions[a.SequenceID]))
	if slices.Equal(before, after) {
		return next
	}

	dropSequenceStages(next, a.SequenceID)
	if next.ActiveSequenceID != a.SequenceID {
		return next
	}
	return r.enterStage(next, a.SequenceID, next.SequenceIndex)
}

func stageTargets(stages []gamedata.Stage) []string {
	out := make([]string, len(stages))
	for i, st := range stages {
		out[i] = st.TargetID
	}
	return out
}

// dropSequenceStages removes every per-stage entry of seqID from a fresh
// clone.
func dropSequenceStages(s *State, seqID string) {
	prefix := seqID + "#"
	s.SequenceLogs = withoutPrefix(s.SequenceLogs, prefix)
	s.SequenceLogAggregates = withoutPrefix(s.SequenceLogAggregates, prefix)
	s.SequenceRedoStacks = withoutPrefix(s.SequenceRedoStacks, prefix)
	s.SequenceFightStartTimestamps = withoutPrefix(s.SequenceFightStartTimestamps, prefix)
	s.SequenceManualStartFlags = withoutPrefix(s.SequenceManualStartFlags, prefix)
	s.SequenceFightEndTimestamps = withoutPrefix(s.SequenceFightEndTimestamps, prefix)
	s.SequenceManualEndFlags = withoutPrefix(s.SequenceManualEndFlags, prefix)
}

func withoutPrefix[V any](m map[string]V, prefix string) map[string]V {
	next := maps.Clone(m)
	if next == nil {
		next = map[string]V{}
	}
	maps.DeleteFunc(next, func(k string, _ V) bool { return strings.HasPrefix(k, prefix) })
	return next
}

// Rebase re-establishes s after the game data changed from prev to the
// reducer's catalog. A sequence whose resolved targets differ between the two
// loses its stored stages, since an index may now name a different fight; an
// active one re-enters its clamped stage, or is left when it no longer
// resolves. Normalize then applies the new charm costs and limits.
func (r *Reducer) Rebase(s *State, prev Catalog) *State {
	next := s.clone()
	for _, seqID := range storedSequences(s) {
		before := resolvedTargets(prev, s, seqID)
		after := resolvedTargets(r.catalog, s, seqID)
		if slices.Equal(before, after) {
			continue
		}
		dropSequenceStages(next, seqID)
		if next.ActiveSequenceID != seqID {
			continue
		}
		if len(after) == 0 {
			next = leaveSequence(next)
			continue
		}
		next = r.enterStage(next, seqID, next.SequenceIndex)
	}
	return r.Normalize(next)
}

// storedSequences lists every sequence with stage data or an active stage.
func storedSequences(s *State) []string {
	var ids []string
	add := func(id string) {
		if id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	add(s.ActiveSequenceID)
	for key := range s.SequenceLogs {
		if i := strings.LastIndex(key, "#"); i > 0 {
			add(key[:i])
		}
	}
	for key := range s.SequenceManualStartFlags {
		if i := strings.LastIndex(key, "#"); i > 0 {
			add(key[:i])
		}
	}
	slices.Sort(ids)
	return ids
}

func resolvedTargets(c Catalog, s *State, seqID string) []string {
	seq, ok := c.Sequence(seqID)
	if !ok {
		return nil
	}
	return stageTargets(seq.Resolve(s.SequenceConditions[seqID]))
}
