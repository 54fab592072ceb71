package fight

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCharms(t *testing.T) {
	catalog := testCatalog(t)

	tests := []struct {
		name  string
		ids   []string
		limit int
		want  []string
	}{
		{"fits", []string{"one", "two"}, 3, []string{"one", "two"}},
		{"overcharm once", []string{"one", "three"}, 3, []string{"one", "three"}},
		{"later entries rejected after overcharm", []string{"one", "three", "one", "two", "free"}, 3, []string{"one", "three"}},
		{"no free notch means no overcharm", []string{"three", "one"}, 3, []string{"three"}},
		{"overcharm up to allowance", []string{"two", "five"}, 3, []string{"two", "five"}},
		{"duplicates dropped", []string{"one", "one", "two"}, 5, []string{"one", "two"}},
		{"unknown dropped", []string{"ghost", "one"}, 5, []string{"one"}},
		{"zero cost fits at limit", []string{"three", "free"}, 3, []string{"three", "free"}},
		{"empty", nil, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCharms(tt.ids, tt.limit, catalog))
		})
	}
}

func TestNormalizeCharms_CapacityInvariant(t *testing.T) {
	catalog := testCatalog(t)
	pool := []string{"one", "two", "three", "five", "free", "ghost"}
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 500; i++ {
		ids := make([]string, rng.Intn(8))
		for j := range ids {
			ids[j] = pool[rng.Intn(len(pool))]
		}
		limit := ClampNotchLimit(rng.Intn(15))
		kept := NormalizeCharms(ids, limit, catalog)
		assert.LessOrEqual(t, CharmCost(kept, catalog), limit+OvercharmAllowance)
	}
}

func TestClampNotchLimit(t *testing.T) {
	assert.Equal(t, MinNotchLimit, ClampNotchLimit(-4))
	assert.Equal(t, 7, ClampNotchLimit(7))
	assert.Equal(t, MaxNotchLimit, ClampNotchLimit(99))
}

func TestReducer_BuildActions(t *testing.T) {
	r, s := newTestReducer(t)

	t.Run("notch limit shrink truncates", func(t *testing.T) {
		next := apply(r, s,
			SetCharmNotchLimit{Limit: 9},
			SetActiveCharms{IDs: []string{"five", "three", "one"}},
			SetCharmNotchLimit{Limit: 3},
		)
		assert.Equal(t, 3, next.Build.NotchLimit)
		assert.Equal(t, []string{"five"}, next.Build.ActiveCharmIDs)
		assert.True(t, IsOvercharmed(next.Build, r.Catalog()))
	})

	t.Run("toggle adds and removes", func(t *testing.T) {
		next := apply(r, s, ToggleCharm{ID: "two"}, ToggleCharm{ID: "one"})
		assert.Equal(t, []string{"two", "one"}, next.Build.ActiveCharmIDs)
		next = r.Reduce(next, ToggleCharm{ID: "two"})
		assert.Equal(t, []string{"one"}, next.Build.ActiveCharmIDs)
	})

	t.Run("same selection is identity", func(t *testing.T) {
		next := r.Reduce(s, SetActiveCharms{IDs: []string{"one"}})
		assert.Same(t, next, r.Reduce(next, SetActiveCharms{IDs: []string{"one"}}))
		assert.Same(t, next, r.Reduce(next, SetCharmNotchLimit{Limit: next.Build.NotchLimit}))
	})

	t.Run("nail and spell", func(t *testing.T) {
		next := apply(r, s, SetNailUpgrade{ID: "n9"}, SetSpellLevel{SpellID: "fireball", Level: SpellUpgrade})
		assert.Equal(t, "n9", next.Build.NailUpgradeID)
		assert.Equal(t, SpellUpgrade, next.Build.SpellLevels["fireball"])
		assert.Empty(t, s.Build.SpellLevels, "input state must not change")

		assert.Same(t, next, r.Reduce(next, SetNailUpgrade{ID: "rusty"}))
		assert.Same(t, next, r.Reduce(next, SetSpellLevel{SpellID: "fireball", Level: "legendary"}))
		assert.Same(t, next, r.Reduce(next, SetSpellLevel{SpellID: "icebolt", Level: SpellBase}))
	})
}
