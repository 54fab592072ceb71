package persist

import (
	"encoding/json"
	"fmt"

	"github.com/nfrund/bosstracker/internal/fight"
)

// StateVersion tags the document layout. Documents carrying any other
// version are discarded on restore.
const StateVersion = 3

type document struct {
	Version int       `json:"version"`
	State   wireState `json:"state"`
}

type wireEvent struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Damage    float64  `json:"damage"`
	Category  string   `json:"category"`
	Timestamp float64  `json:"timestamp"`
	SoulCost  *float64 `json:"soulCost,omitempty"`
}

type wireAggregates struct {
	TotalDamage          float64  `json:"totalDamage"`
	AttacksLogged        int      `json:"attacksLogged"`
	FirstAttackTimestamp *float64 `json:"firstAttackTimestamp"`
	LastAttackTimestamp  *float64 `json:"lastAttackTimestamp"`
}

type wireBuild struct {
	NailUpgradeID  string            `json:"nailUpgradeId"`
	ActiveCharmIDs []string          `json:"activeCharmIds"`
	SpellLevels    map[string]string `json:"spellLevels"`
	NotchLimit     int               `json:"notchLimit"`
}

type wireState struct {
	SelectedBossID string    `json:"selectedBossId"`
	CustomTargetHP float64   `json:"customTargetHp"`
	Build          wireBuild `json:"build"`

	DamageLog []wireEvent `json:"damageLog"`
	RedoStack []wireEvent `json:"redoStack"`

	ActiveSequenceID *string `json:"activeSequenceId"`
	SequenceIndex    int     `json:"sequenceIndex"`

	SequenceLogs          map[string][]wireEvent     `json:"sequenceLogs"`
	SequenceLogAggregates map[string]wireAggregates  `json:"sequenceLogAggregates"`
	SequenceRedoStacks    map[string][]wireEvent     `json:"sequenceRedoStacks"`
	SequenceConditions    map[string]map[string]bool `json:"sequenceConditions"`

	FightStartTimestamp  *float64 `json:"fightStartTimestamp"`
	FightManuallyStarted bool     `json:"fightManuallyStarted"`
	FightEndTimestamp    *float64 `json:"fightEndTimestamp"`
	FightManuallyEnded   bool     `json:"fightManuallyEnded"`

	SequenceFightStartTimestamps map[string]float64 `json:"sequenceFightStartTimestamps"`
	SequenceManualStartFlags     map[string]bool    `json:"sequenceManualStartFlags"`
	SequenceFightEndTimestamps   map[string]float64 `json:"sequenceFightEndTimestamps"`
	SequenceManualEndFlags       map[string]bool    `json:"sequenceManualEndFlags"`
}

// Serialize encodes s as a versioned JSON document. Empty lists are
// written as [] and an inactive sequence as null.
func Serialize(s *fight.State) ([]byte, error) {
	doc := document{Version: StateVersion, State: toWire(s)}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

func toWire(s *fight.State) wireState {
	w := wireState{
		SelectedBossID: s.SelectedBossID,
		CustomTargetHP: s.CustomTargetHP,
		Build: wireBuild{
			NailUpgradeID:  s.Build.NailUpgradeID,
			ActiveCharmIDs: nonNil(s.Build.ActiveCharmIDs),
			SpellLevels:    make(map[string]string, len(s.Build.SpellLevels)),
			NotchLimit:     s.Build.NotchLimit,
		},
		DamageLog:                    wireEvents(s.DamageLog),
		RedoStack:                    wireEvents(s.RedoStack),
		SequenceIndex:                s.SequenceIndex,
		SequenceLogs:                 make(map[string][]wireEvent, len(s.SequenceLogs)),
		SequenceLogAggregates:        make(map[string]wireAggregates, len(s.SequenceLogAggregates)),
		SequenceRedoStacks:           make(map[string][]wireEvent, len(s.SequenceRedoStacks)),
		SequenceConditions:           make(map[string]map[string]bool, len(s.SequenceConditions)),
		FightStartTimestamp:          s.FightStartTimestamp,
		FightManuallyStarted:         s.FightManuallyStarted,
		FightEndTimestamp:            s.FightEndTimestamp,
		FightManuallyEnded:           s.FightManuallyEnded,
		SequenceFightStartTimestamps: nonNilMap(s.SequenceFightStartTimestamps),
		SequenceManualStartFlags:     nonNilMap(s.SequenceManualStartFlags),
		SequenceFightEndTimestamps:   nonNilMap(s.SequenceFightEndTimestamps),
		SequenceManualEndFlags:       nonNilMap(s.SequenceManualEndFlags),
	}
	if s.InSequence() {
		id := s.ActiveSequenceID
		w.ActiveSequenceID = &id
	}
	for id, level := range s.Build.SpellLevels {
		w.Build.SpellLevels[id] = string(level)
	}
	for key, log := range s.SequenceLogs {
		w.SequenceLogs[key] = wireEvents(log)
	}
	for key, agg := range s.SequenceLogAggregates {
		w.SequenceLogAggregates[key] = wireAggregates(agg)
	}
	for key, log := range s.SequenceRedoStacks {
		w.SequenceRedoStacks[key] = wireEvents(log)
	}
	for seqID, values := range s.SequenceConditions {
		w.SequenceConditions[seqID] = nonNilMap(values)
	}
	return w
}

func wireEvents(log []fight.AttackEvent) []wireEvent {
	out := make([]wireEvent, len(log))
	for i, ev := range log {
		out[i] = wireEvent{
			ID:        ev.ID,
			Label:     ev.Label,
			Damage:    ev.Damage,
			Category:  string(ev.Category),
			Timestamp: ev.Timestamp,
			SoulCost:  ev.SoulCost,
		}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func nonNilMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}
