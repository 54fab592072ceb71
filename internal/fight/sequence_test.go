package fight

import (
	"strings"
	"testing"

	"github.com/nfrund/bosstracker/internal/gamedata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stageTargetIDs(r *Reducer, s *State, seqID string) []string {
	return stageTargets(r.Stages(s, seqID))
}

func TestStartSequence(t *testing.T) {
	r, s := newTestReducer(t)
	s = apply(r, s, SelectTarget{ID: "big"}, hit("free", 50, 0))

	seq := r.Reduce(s, StartSequence{ID: "trio"})
	assert.Equal(t, "trio", seq.ActiveSequenceID)
	assert.Equal(t, 0, seq.SequenceIndex)
	assert.Equal(t, "dummy", seq.SelectedBossID)
	assert.Nil(t, seq.DamageLog)
	assert.Contains(t, seq.SequenceLogs, StageKey("trio", 0))

	assert.Same(t, seq, r.Reduce(seq, StartSequence{ID: "trio"}))
	assert.Same(t, s, r.Reduce(s, StartSequence{ID: "ghost"}))
}

func TestSequence_StageIsolation(t *testing.T) {
	r, s := newTestReducer(t)
	s = apply(r, s, StartSequence{ID: "trio"}, hit("a", 10, 0))

	second := r.Reduce(s, AdvanceSequence{})
	assert.Equal(t, 1, second.SequenceIndex)
	assert.Equal(t, "big", second.SelectedBossID)
	assert.Nil(t, second.DamageLog)
	second = r.Reduce(second, hit("b", 20, 100))

	back := r.Reduce(second, RewindSequence{})
	require.Len(t, back.DamageLog, 1)
	assert.Equal(t, "a", back.DamageLog[0].Label)
	assert.Equal(t, 10.0, back.DamageLogAggregates.TotalDamage)

	again := r.Reduce(back, AdvanceSequence{})
	require.Len(t, again.DamageLog, 1)
	assert.Equal(t, "b", again.DamageLog[0].Label)
	assert.Equal(t, 20.0, again.DamageLogAggregates.TotalDamage)
}

func TestSequence_StageKeepsFightMarkers(t *testing.T) {
	r, s := newTestReducer(t)
	s = apply(r, s,
		StartSequence{ID: "trio"},
		StartFight{Timestamp: 5},
		hit("a", 100, 40),
		AdvanceSequence{},
	)
	assert.Nil(t, s.FightStartTimestamp)
	assert.Nil(t, s.FightEndTimestamp)
	assert.False(t, s.FightManuallyStarted)

	s = r.Reduce(s, SetSequenceStage{Index: 0})
	require.NotNil(t, s.FightStartTimestamp)
	assert.Equal(t, 5.0, *s.FightStartTimestamp)
	assert.True(t, s.FightManuallyStarted)
	require.NotNil(t, s.FightEndTimestamp)
	assert.Equal(t, 40.0, *s.FightEndTimestamp)
}

func TestSequence_EndsAreIdentity(t *testing.T) {
	r, s := newTestReducer(t)
	first := r.Reduce(s, StartSequence{ID: "trio"})
	assert.Same(t, first, r.Reduce(first, RewindSequence{}))

	last := r.Reduce(first, SetSequenceStage{Index: 99})
	assert.Equal(t, 2, last.SequenceIndex)
	assert.Same(t, last, r.Reduce(last, AdvanceSequence{}))
	assert.Same(t, last, r.Reduce(last, SetSequenceStage{Index: 2}))

	assert.Same(t, s, r.Reduce(s, AdvanceSequence{}), "outside a sequence")
}

func TestStopSequence_KeepsStageData(t *testing.T) {
	r, s := newTestReducer(t)
	s = apply(r, s, StartSequence{ID: "trio"}, hit("a", 10, 0))

	stopped := r.Reduce(s, StopSequence{})
	assert.False(t, stopped.InSequence())
	assert.Nil(t, stopped.DamageLog)
	assert.Len(t, stopped.SequenceLogs[StageKey("trio", 0)], 1)
	assert.Same(t, stopped, r.Reduce(stopped, StopSequence{}))

	resumed := r.Reduce(stopped, StartSequence{ID: "trio"})
	require.Len(t, resumed.DamageLog, 1)
	assert.Equal(t, "a", resumed.DamageLog[0].Label)
}

func TestSelectTarget_LeavesSequence(t *testing.T) {
	r, s := newTestReducer(t)
	s = apply(r, s, StartSequence{ID: "trio"}, hit("a", 10, 0))

	free := r.Reduce(s, SelectTarget{ID: "big"})
	assert.False(t, free.InSequence())
	assert.Equal(t, "big", free.SelectedBossID)
	assert.Nil(t, free.DamageLog)
	assert.Len(t, free.SequenceLogs[StageKey("trio", 0)], 1)
}

func TestSetSequenceCondition(t *testing.T) {
	r, s := newTestReducer(t)

	t.Run("resolution", func(t *testing.T) {
		assert.Equal(t, []string{"dummy", "big", "phased"}, stageTargetIDs(r, s, "trio"))

		swapped := r.Reduce(s, SetSequenceCondition{SequenceID: "trio", ConditionID: "swap", Enabled: true})
		assert.Equal(t, []string{"big", "big", "phased"}, stageTargetIDs(r, swapped, "trio"))

		extra := r.Reduce(s, SetSequenceCondition{SequenceID: "trio", ConditionID: "extra", Enabled: true})
		assert.Equal(t, []string{"dummy", "big", "carry", "phased"}, stageTargetIDs(r, extra, "trio"))
	})

	t.Run("unknown inputs are identity", func(t *testing.T) {
		assert.Same(t, s, r.Reduce(s, SetSequenceCondition{SequenceID: "ghost", ConditionID: "swap", Enabled: true}))
		assert.Same(t, s, r.Reduce(s, SetSequenceCondition{SequenceID: "trio", ConditionID: "ghost", Enabled: true}))
	})

	t.Run("explicit default keeps stage data", func(t *testing.T) {
		played := apply(r, s, StartSequence{ID: "trio"}, hit("a", 10, 0))
		set := r.Reduce(played, SetSequenceCondition{SequenceID: "trio", ConditionID: "extra", Enabled: false})
		assert.NotSame(t, played, set)
		assert.Equal(t, map[string]bool{"extra": false}, set.SequenceConditions["trio"])
		assert.Len(t, set.DamageLog, 1)
		assert.Same(t, set, r.Reduce(set, SetSequenceCondition{SequenceID: "trio", ConditionID: "extra", Enabled: false}))
	})

	t.Run("changed stage list drops stage data", func(t *testing.T) {
		played := apply(r, s,
			StartSequence{ID: "trio"},
			hit("a", 10, 0),
			AdvanceSequence{},
			hit("b", 20, 100),
		)
		changed := r.Reduce(played, SetSequenceCondition{SequenceID: "trio", ConditionID: "extra", Enabled: true})
		assert.Equal(t, "trio", changed.ActiveSequenceID)
		assert.Equal(t, 1, changed.SequenceIndex)
		assert.Equal(t, "big", changed.SelectedBossID)
		assert.Nil(t, changed.DamageLog)
		assert.NotContains(t, changed.SequenceLogs, StageKey("trio", 0))
		assert.Empty(t, changed.SequenceLogs[StageKey("trio", 1)])
		assert.Len(t, played.SequenceLogs[StageKey("trio", 0)], 1, "input state must not change")
	})

	t.Run("inactive sequence only drops data", func(t *testing.T) {
		played := apply(r, s, StartSequence{ID: "trio"}, hit("a", 10, 0), StopSequence{}, hit("free", 5, 10))
		changed := r.Reduce(played, SetSequenceCondition{SequenceID: "trio", ConditionID: "swap", Enabled: true})
		assert.False(t, changed.InSequence())
		assert.Len(t, changed.DamageLog, 1)
		assert.NotContains(t, changed.SequenceLogs, StageKey("trio", 0))
	})

	t.Run("stage clamps when list shrinks", func(t *testing.T) {
		on := r.Reduce(s, SetSequenceCondition{SequenceID: "trio", ConditionID: "extra", Enabled: true})
		at := apply(r, on, StartSequence{ID: "trio"}, SetSequenceStage{Index: 3})
		require.Equal(t, "phased", at.SelectedBossID)

		off := r.Reduce(at, SetSequenceCondition{SequenceID: "trio", ConditionID: "extra", Enabled: false})
		assert.Equal(t, 2, off.SequenceIndex)
		assert.Equal(t, "phased", off.SelectedBossID)
	})
}

func TestRebase(t *testing.T) {
	r, s := newTestReducer(t)
	s = apply(r, s,
		SetActiveCharms{IDs: []string{"five", "three", "two"}},
		StartSequence{ID: "solo"}, hit("a", 10, 0),
		StartSequence{ID: "trio"}, hit("b", 20, 100),
	)
	require.Equal(t, []string{"five", "three", "two"}, s.Build.ActiveCharmIDs)
	require.Len(t, s.SequenceLogs[StageKey("trio", 0)], 1)

	t.Run("unchanged data keeps everything", func(t *testing.T) {
		assert.Equal(t, withoutVersion(s), withoutVersion(r.Rebase(s, r.Catalog())))
	})

	t.Run("changed stages and costs", func(t *testing.T) {
		edited := strings.NewReplacer(
			"      - { target: phased }", "      - { target: big }",
			"{ id: three, name: Three, cost: 3 }", "{ id: three, name: Three, cost: 6 }",
		).Replace(fixtureData)
		c, err := gamedata.Parse([]byte(edited))
		require.NoError(t, err)
		prev := r.Catalog()
		next := NewReducer(c).Rebase(s, prev)

		assert.Equal(t, "trio", next.ActiveSequenceID)
		assert.Equal(t, 0, next.SequenceIndex)
		assert.Equal(t, "dummy", next.SelectedBossID)
		assert.Empty(t, next.DamageLog)
		assert.Equal(t, Aggregates{}, next.DamageLogAggregates)
		assert.Empty(t, next.SequenceLogs[StageKey("trio", 0)])
		assert.Len(t, next.SequenceLogs[StageKey("solo", 0)], 1, "untouched sequence keeps its stages")
		assert.Equal(t, []string{"five", "three"}, next.Build.ActiveCharmIDs)
	})

	t.Run("removed sequence is left", func(t *testing.T) {
		edited := strings.Replace(fixtureData, "  - id: trio\n    name: Trio\n", "  - id: trio2\n    name: Trio\n", 1)
		c, err := gamedata.Parse([]byte(edited))
		require.NoError(t, err)
		next := NewReducer(c).Rebase(s, r.Catalog())

		assert.False(t, next.InSequence())
		assert.Empty(t, next.DamageLog)
		assert.Empty(t, next.SequenceLogs[StageKey("trio", 0)])
	})
}
