package persist

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/nfrund/bosstracker/internal/fight"
)

// Restore decodes a stored document and merges it over fallback. Anything
// that is not a JSON object with the current version and an object-valued
// state yields fallback itself.
func Restore(data []byte, fallback *fight.State) *fight.State {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		return fallback
	}
	version, ok := integer(doc["version"])
	if !ok || version != StateVersion {
		return fallback
	}
	raw, ok := doc["state"].(map[string]any)
	if !ok {
		return fallback
	}
	return Merge(raw, fallback)
}

// Merge builds a state from an untyped record. Every field is validated on
// its own and replaced by the matching fallback field when it is missing or
// invalid. Aggregates are rebuilt from the accepted logs and the log
// version is carried over from fallback.
func Merge(raw map[string]any, fallback *fight.State) *fight.State {
	out := &fight.State{
		SelectedBossID: nonEmptyString(raw["selectedBossId"], fallback.SelectedBossID),
		CustomTargetHP: number(raw["customTargetHp"], fallback.CustomTargetHP),
		Build:          mergeBuild(raw["build"], fallback.Build),

		DamageLog:        eventList(raw["damageLog"], fallback.DamageLog),
		DamageLogVersion: fallback.DamageLogVersion,
		RedoStack:        eventList(raw["redoStack"], fallback.RedoStack),

		FightStartTimestamp:  optionalNumber(raw, "fightStartTimestamp", fallback.FightStartTimestamp),
		FightManuallyStarted: boolean(raw["fightManuallyStarted"], fallback.FightManuallyStarted),
		FightEndTimestamp:    optionalNumber(raw, "fightEndTimestamp", fallback.FightEndTimestamp),
		FightManuallyEnded:   boolean(raw["fightManuallyEnded"], fallback.FightManuallyEnded),

		ActiveSequenceID: fallback.ActiveSequenceID,
		SequenceIndex:    fallback.SequenceIndex,

		SequenceLogs:                 mapOf(raw["sequenceLogs"], fallback.SequenceLogs, eventListValue),
		SequenceRedoStacks:           mapOf(raw["sequenceRedoStacks"], fallback.SequenceRedoStacks, eventListValue),
		SequenceConditions:           mapOf(raw["sequenceConditions"], fallback.SequenceConditions, conditionSet),
		SequenceFightStartTimestamps: mapOf(raw["sequenceFightStartTimestamps"], fallback.SequenceFightStartTimestamps, finiteValue),
		SequenceManualStartFlags:     mapOf(raw["sequenceManualStartFlags"], fallback.SequenceManualStartFlags, boolValue),
		SequenceFightEndTimestamps:   mapOf(raw["sequenceFightEndTimestamps"], fallback.SequenceFightEndTimestamps, finiteValue),
		SequenceManualEndFlags:       mapOf(raw["sequenceManualEndFlags"], fallback.SequenceManualEndFlags, boolValue),
	}
	out.DamageLogAggregates = fight.DeriveFromLog(out.DamageLog)

	out.SequenceLogAggregates = make(map[string]fight.Aggregates, len(out.SequenceLogs))
	for key, log := range out.SequenceLogs {
		out.SequenceLogAggregates[key] = fight.DeriveFromLog(log)
	}

	switch v := raw["activeSequenceId"].(type) {
	case nil:
		if _, present := raw["activeSequenceId"]; present {
			out.ActiveSequenceID = ""
		}
	case string:
		out.ActiveSequenceID = v
	}
	if i, ok := integer(raw["sequenceIndex"]); ok && i >= 0 {
		out.SequenceIndex = i
	}
	return out
}

func mergeBuild(v any, fallback fight.Build) fight.Build {
	raw, ok := v.(map[string]any)
	if !ok {
		return fallback
	}
	b := fight.Build{
		NailUpgradeID:  nonEmptyString(raw["nailUpgradeId"], fallback.NailUpgradeID),
		ActiveCharmIDs: fallback.ActiveCharmIDs,
		SpellLevels:    mapOf(raw["spellLevels"], fallback.SpellLevels, spellLevel),
		NotchLimit:     fallback.NotchLimit,
	}
	if ids, ok := uniqueStrings(raw["activeCharmIds"]); ok {
		b.ActiveCharmIDs = ids
	}
	if n, ok := integer(raw["notchLimit"]); ok {
		b.NotchLimit = n
	}
	return b
}

// toFloat accepts a finite JSON number or a string holding one.
func toFloat(v any) (float64, bool) {
	var f float64
	switch v := v.(type) {
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func number(v any, fallback float64) float64 {
	if f, ok := toFloat(v); ok {
		return f
	}
	return fallback
}

func integer(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// optionalNumber reads a nullable timestamp: an explicit null clears it, a
// finite number sets it, anything else keeps fallback.
func optionalNumber(raw map[string]any, key string, fallback *float64) *float64 {
	v, present := raw[key]
	if !present {
		return fallback
	}
	if v == nil {
		return nil
	}
	if f, ok := toFloat(v); ok {
		return &f
	}
	return fallback
}

func boolean(v any, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}

func nonEmptyString(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

// uniqueStrings keeps the first occurrence of each non-empty string in an
// array. ok is false when v is not an array.
func uniqueStrings(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	var out []string
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok || s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, true
}

// event validates one stored attack. A record missing any required field
// is rejected outright.
func event(v any) (fight.AttackEvent, bool) {
	raw, ok := v.(map[string]any)
	if !ok {
		return fight.AttackEvent{}, false
	}
	id, ok := raw["id"].(string)
	if !ok || id == "" {
		return fight.AttackEvent{}, false
	}
	label, ok := raw["label"].(string)
	if !ok {
		return fight.AttackEvent{}, false
	}
	damage, ok := toFloat(raw["damage"])
	if !ok || damage < 0 {
		return fight.AttackEvent{}, false
	}
	ts, ok := toFloat(raw["timestamp"])
	if !ok {
		return fight.AttackEvent{}, false
	}
	category, ok := raw["category"].(string)
	if !ok || !fight.Category(category).Valid() {
		return fight.AttackEvent{}, false
	}

	ev := fight.AttackEvent{
		ID:        id,
		Label:     label,
		Damage:    fight.WholeDamage(damage),
		Category:  fight.Category(category),
		Timestamp: ts,
	}
	if cost, ok := toFloat(raw["soulCost"]); ok && cost >= 0 {
		ev.SoulCost = &cost
	}
	return ev, true
}

// eventListValue filters an array down to its valid events, keeping the
// first event of each id. An empty result is nil.
func eventListValue(v any) ([]fight.AttackEvent, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	var out []fight.AttackEvent
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		ev, ok := event(item)
		if !ok || seen[ev.ID] {
			continue
		}
		seen[ev.ID] = true
		out = append(out, ev)
	}
	return out, true
}

func eventList(v any, fallback []fight.AttackEvent) []fight.AttackEvent {
	if log, ok := eventListValue(v); ok {
		return log
	}
	return fallback
}

func finiteValue(v any) (float64, bool) { return toFloat(v) }

func boolValue(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func spellLevel(v any) (fight.SpellLevel, bool) {
	s, ok := v.(string)
	if !ok || !fight.SpellLevel(s).Valid() {
		return "", false
	}
	return fight.SpellLevel(s), true
}

func conditionSet(v any) (map[string]bool, bool) {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string]bool, len(raw))
	for id, value := range raw {
		if b, ok := value.(bool); ok && id != "" {
			out[id] = b
		}
	}
	return out, true
}

// mapOf sanitizes an object key by key with valid, dropping entries whose
// value does not validate. A non-object input yields fallback.
func mapOf[V any](v any, fallback map[string]V, valid func(any) (V, bool)) map[string]V {
	raw, ok := v.(map[string]any)
	if !ok {
		return fallback
	}
	out := make(map[string]V, len(raw))
	for key, value := range raw {
		if key == "" {
			continue
		}
		if parsed, ok := valid(value); ok {
			out[key] = parsed
		}
	}
	return out
}
