package persist

import (
	"encoding/json"
	"testing"

	"github.com/nfrund/bosstracker/internal/fight"
	"github.com/nfrund/bosstracker/internal/gamedata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reachableState(t *testing.T) *fight.State {
	t.Helper()
	r := fight.NewReducer(gamedata.Default())
	cost := 33.0
	s := fight.NewState("false-knight", "old-nail")
	for _, a := range []fight.Action{
		fight.SetNailUpgrade{ID: "pure-nail"},
		fight.SetActiveCharms{IDs: []string{"unbreakable-strength", "shaman-stone", "quick-slash"}},
		fight.SetSpellLevel{SpellID: "vengeful-spirit", Level: fight.SpellUpgrade},
		fight.StartFight{Timestamp: 0},
		fight.LogAttack{ID: "nail", Label: "Nail", Damage: 21, Category: fight.CategoryNail, Timestamp: 100},
		fight.LogAttack{ID: "vs", Label: "Vengeful Spirit", Damage: 30, Category: fight.CategorySpell, Timestamp: 400, SoulCost: &cost},
		fight.UndoLastAttack{},
		fight.StartSequence{ID: "pantheon-of-the-master"},
		fight.SetSequenceCondition{SequenceID: "pantheon-of-the-master", ConditionID: "include-mawlek", Enabled: false},
		fight.LogAttack{ID: "nail", Label: "Nail", Damage: 21, Category: fight.CategoryNail, Timestamp: 1000},
		fight.LogAttack{ID: "nail", Label: "Nail", Damage: 21, Category: fight.CategoryNail, Timestamp: 1300},
		fight.EndFight{Timestamp: 2000},
		fight.AdvanceSequence{},
		fight.LogAttack{ID: "gs", Label: "Great Slash", Damage: 52, Category: fight.CategoryNailArt, Timestamp: 2500},
		fight.UndoLastAttack{},
	} {
		s = r.Reduce(s, a)
	}
	require.True(t, s.InSequence())
	require.NotEmpty(t, s.SequenceLogs)
	return s
}

func fractionalHitsState() *fight.State {
	r := fight.NewReducer(gamedata.Default())
	s := fight.NewState("nosk", "old-nail")
	for _, a := range []fight.Action{
		fight.LogAttack{ID: "manual", Label: "Chip", Damage: 0.1, Category: fight.CategoryNail, Timestamp: 100},
		fight.LogAttack{ID: "manual", Label: "Chip", Damage: 0.7, Category: fight.CategoryNail, Timestamp: 200},
		fight.LogAttack{ID: "manual", Label: "Chip", Damage: 12.6, Category: fight.CategoryNail, Timestamp: 300},
		fight.UndoLastAttack{},
	} {
		s = r.Reduce(s, a)
	}
	return s
}

func TestSerializeRestore_RoundTrip(t *testing.T) {
	states := map[string]*fight.State{
		"default":         fight.NewState("gruz-mother", "old-nail"),
		"reachable":       reachableState(t),
		"fractional hits": fractionalHitsState(),
	}
	for name, s := range states {
		t.Run(name, func(t *testing.T) {
			data, err := Serialize(s)
			require.NoError(t, err)
			assert.Equal(t, s, Restore(data, s))
		})
	}
}

func TestSerialize_WireShape(t *testing.T) {
	data, err := Serialize(fight.NewState("gruz-mother", "old-nail"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.EqualValues(t, StateVersion, doc["version"])

	state := doc["state"].(map[string]any)
	assert.Equal(t, "gruz-mother", state["selectedBossId"])
	assert.Equal(t, []any{}, state["damageLog"])
	assert.Nil(t, state["activeSequenceId"])
	assert.Nil(t, state["fightStartTimestamp"])
	assert.Equal(t, map[string]any{}, state["sequenceLogs"])
}

func TestRestore_DiscardsWholeDocument(t *testing.T) {
	fallback := fight.NewState("gruz-mother", "old-nail")

	for name, data := range map[string]string{
		"empty":            ``,
		"not json":         `{"version":3,`,
		"array":            `[1,2,3]`,
		"null":             `null`,
		"missing version":  `{"state":{}}`,
		"old version":      `{"version":2,"state":{"selectedBossId":"nosk"}}`,
		"fractional":       `{"version":3.5,"state":{}}`,
		"state not object": `{"version":3,"state":"nosk"}`,
		"state null":       `{"version":3,"state":null}`,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Same(t, fallback, Restore([]byte(data), fallback))
		})
	}
}

func TestRestore_NumericStringVersion(t *testing.T) {
	fallback := fight.NewState("gruz-mother", "old-nail")
	got := Restore([]byte(`{"version":"3","state":{"selectedBossId":"nosk"}}`), fallback)
	assert.Equal(t, "nosk", got.SelectedBossID)
}

func TestMerge_FieldFallback(t *testing.T) {
	start, end := 10.0, 90.0
	fallback := fight.NewState("gruz-mother", "old-nail")
	fallback.FightStartTimestamp = &start
	fallback.FightEndTimestamp = &end
	fallback.ActiveSequenceID = "warrior-gauntlet"
	fallback.SequenceIndex = 1
	fallback.DamageLogVersion = 7

	got := Merge(map[string]any{
		"selectedBossId":       42.0,
		"customTargetHp":       "not a number",
		"build":                []any{"x"},
		"damageLog":            "nope",
		"redoStack":            map[string]any{},
		"activeSequenceId":     12.0,
		"sequenceIndex":        -2.0,
		"fightStartTimestamp":  "later",
		"fightManuallyStarted": "yes",
		"fightEndTimestamp":    []any{},
		"fightManuallyEnded":   1.0,
		"sequenceLogs":         "x",
		"sequenceConditions":   []any{},
	}, fallback)

	assert.Equal(t, fallback.SelectedBossID, got.SelectedBossID)
	assert.Equal(t, fallback.CustomTargetHP, got.CustomTargetHP)
	assert.Equal(t, fallback.Build, got.Build)
	assert.Nil(t, got.DamageLog)
	assert.Nil(t, got.RedoStack)
	assert.Equal(t, "warrior-gauntlet", got.ActiveSequenceID)
	assert.Equal(t, 1, got.SequenceIndex)
	assert.Same(t, fallback.FightStartTimestamp, got.FightStartTimestamp)
	assert.Same(t, fallback.FightEndTimestamp, got.FightEndTimestamp)
	assert.False(t, got.FightManuallyStarted)
	assert.False(t, got.FightManuallyEnded)
	assert.Equal(t, fallback.SequenceLogs, got.SequenceLogs)
	assert.Equal(t, fallback.SequenceConditions, got.SequenceConditions)
	assert.Equal(t, 7, got.DamageLogVersion)
}

func TestMerge_EventLists(t *testing.T) {
	fallback := fight.NewState("gruz-mother", "old-nail")
	ev := func(id string, damage float64) map[string]any {
		return map[string]any{"id": id, "label": id, "damage": damage, "category": "nail", "timestamp": 1.0}
	}

	got := Merge(map[string]any{
		"damageLog": []any{ev("a", 10.4), ev("b", 3), ev("a", 99), ev("c", 0.6)},
		"redoStack": []any{ev("r", 1), ev("r", 2)},
	}, fallback)

	require.Len(t, got.DamageLog, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got.DamageLog[0].ID, got.DamageLog[1].ID, got.DamageLog[2].ID})
	assert.Equal(t, 10.0, got.DamageLog[0].Damage, "first event of an id wins and damage is whole")
	assert.Equal(t, 1.0, got.DamageLog[2].Damage)
	assert.Equal(t, 14.0, got.DamageLogAggregates.TotalDamage)
	require.Len(t, got.RedoStack, 1)
	assert.Equal(t, 1.0, got.RedoStack[0].Damage)
}

func TestMerge_EmptyRecordIsFallback(t *testing.T) {
	fallback := reachableState(t)
	assert.Equal(t, fallback, Merge(map[string]any{}, fallback))
}

func TestMerge_CoercesAndFilters(t *testing.T) {
	fallback := fight.NewState("gruz-mother", "old-nail")
	good := map[string]any{"id": "a", "label": "A", "damage": 10.0, "category": "nail", "timestamp": 5.0}

	got := Merge(map[string]any{
		"customTargetHp": " 250 ",
		"build": map[string]any{
			"nailUpgradeId":  "",
			"activeCharmIds": []any{"kingsoul", "kingsoul", 3.0, "", "void-heart"},
			"spellLevels":    map[string]any{"vengeful-spirit": "upgrade", "desolate-dive": "mastered", "howling-wraiths": 2.0},
			"notchLimit":     "8",
		},
		"damageLog": []any{
			good,
			map[string]any{"id": "b", "label": "B", "damage": "12", "category": "spell", "timestamp": "7", "soulCost": -3.0},
			map[string]any{"id": 3.0, "label": "C", "damage": 1.0, "category": "nail", "timestamp": 1.0},
			map[string]any{"id": "d", "damage": 1.0, "category": "nail", "timestamp": 1.0},
			map[string]any{"id": "e", "label": "E", "damage": -1.0, "category": "nail", "timestamp": 1.0},
			map[string]any{"id": "f", "label": "F", "damage": 1.0, "category": "kick", "timestamp": 1.0},
			map[string]any{"id": "g", "label": "G", "damage": 1.0, "category": "nail"},
			"junk",
		},
		"activeSequenceId":    nil,
		"sequenceIndex":       "2",
		"fightStartTimestamp": nil,
		"sequenceLogs": map[string]any{
			"pantheon-of-the-master#0": []any{good},
			"pantheon-of-the-master#1": "junk",
		},
		"sequenceConditions": map[string]any{
			"pantheon-of-the-master": map[string]any{"include-mawlek": true, "failed-champion": "yes"},
			"warrior-gauntlet":       "junk",
		},
		"sequenceFightStartTimestamps": map[string]any{"pantheon-of-the-master#0": "4", "x#1": nil},
		"sequenceManualEndFlags":       map[string]any{"pantheon-of-the-master#0": true, "x#1": "true"},
	}, fallback)

	assert.Equal(t, 250.0, got.CustomTargetHP)
	assert.Equal(t, "old-nail", got.Build.NailUpgradeID)
	assert.Equal(t, []string{"kingsoul", "void-heart"}, got.Build.ActiveCharmIDs)
	assert.Equal(t, map[string]fight.SpellLevel{"vengeful-spirit": fight.SpellUpgrade}, got.Build.SpellLevels)
	assert.Equal(t, 8, got.Build.NotchLimit)

	require.Len(t, got.DamageLog, 2)
	assert.Equal(t, "a", got.DamageLog[0].ID)
	assert.Equal(t, 12.0, got.DamageLog[1].Damage)
	assert.Equal(t, 7.0, got.DamageLog[1].Timestamp)
	assert.Nil(t, got.DamageLog[1].SoulCost)
	assert.Equal(t, fight.DeriveFromLog(got.DamageLog), got.DamageLogAggregates)

	assert.Equal(t, "", got.ActiveSequenceID)
	assert.Equal(t, 2, got.SequenceIndex)
	assert.Nil(t, got.FightStartTimestamp)

	assert.Equal(t, []string{"pantheon-of-the-master#0"}, keys(got.SequenceLogs))
	assert.Equal(t, 10.0, got.SequenceLogAggregates["pantheon-of-the-master#0"].TotalDamage)
	assert.Equal(t, map[string]map[string]bool{"pantheon-of-the-master": {"include-mawlek": true}}, got.SequenceConditions)
	assert.Equal(t, map[string]float64{"pantheon-of-the-master#0": 4}, got.SequenceFightStartTimestamps)
	assert.Equal(t, map[string]bool{"pantheon-of-the-master#0": true}, got.SequenceManualEndFlags)
	assert.Equal(t, fallback.SequenceManualStartFlags, got.SequenceManualStartFlags)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
