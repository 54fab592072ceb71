package formula

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nfrund/bosstracker/internal/fight"
	"github.com/nfrund/bosstracker/internal/gamedata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(nail string, charms ...string) fight.Build {
	return fight.Build{
		NailUpgradeID:  nail,
		ActiveCharmIDs: charms,
		SpellLevels:    map[string]fight.SpellLevel{},
		NotchLimit:     fight.MaxNotchLimit,
	}
}

func preset(t *testing.T, id string) gamedata.AttackPreset {
	t.Helper()
	p, ok := gamedata.Default().Preset(id)
	require.True(t, ok, "preset %s", id)
	return p
}

func TestEvaluate_DefaultPresets(t *testing.T) {
	catalog := gamedata.Default()
	engine := NewEngine()
	ctx := context.Background()

	upgraded := build("pure-nail", "shaman-stone")
	upgraded.SpellLevels["vengeful-spirit"] = fight.SpellUpgrade
	none := build("pure-nail")
	none.SpellLevels["desolate-dive"] = fight.SpellNone

	tests := []struct {
		name   string
		preset string
		build  fight.Build
		want   float64
	}{
		{"nail", "nail", build("old-nail"), 5},
		{"nail with strength", "nail", build("pure-nail", "unbreakable-strength"), 32},
		{"great slash", "great-slash", build("pure-nail"), 53},
		{"great slash with strength", "great-slash", build("pure-nail", "unbreakable-strength"), 79},
		{"base spell", "vengeful-spirit", build("old-nail"), 15},
		{"upgraded spell with shaman", "vengeful-spirit", upgraded, 40},
		{"unlearned spell", "desolate-dive", none, 0},
		{"grubberfly", "grubberfly-beam", build("pure-nail"), 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attack, err := engine.Evaluate(ctx, preset(t, tt.preset), tt.build, catalog)
			require.NoError(t, err)
			assert.Equal(t, tt.want, attack.Damage)
			assert.Equal(t, tt.preset, attack.PresetID)
		})
	}
}

func TestAttack_LogAction(t *testing.T) {
	engine := NewEngine()
	attack, err := engine.Evaluate(context.Background(), preset(t, "vengeful-spirit"), build("old-nail"), gamedata.Default())
	require.NoError(t, err)

	a := attack.LogAction(1234)
	assert.Equal(t, fight.CategorySpell, a.Category)
	assert.Equal(t, "Vengeful Spirit", a.Label)
	assert.Equal(t, 1234.0, a.Timestamp)
	require.NotNil(t, a.SoulCost)
	assert.Equal(t, 33.0, *a.SoulCost)
}

func TestEvaluate_CachesCompiledFormula(t *testing.T) {
	engine := NewEngine()
	catalog := gamedata.Default()
	p := preset(t, "nail")

	for i := 0; i < 3; i++ {
		_, err := engine.Evaluate(context.Background(), p, build("old-nail"), catalog)
		require.NoError(t, err)
	}
	assert.Len(t, engine.compiled, 1)

	p.Formula = "damage := nail * 10"
	attack, err := engine.Evaluate(context.Background(), p, build("old-nail"), catalog)
	require.NoError(t, err)
	assert.Equal(t, 50.0, attack.Damage)
	assert.Len(t, engine.compiled, 2)
}

func TestEvaluate_Errors(t *testing.T) {
	catalog := gamedata.Default()

	tests := []struct {
		name    string
		formula string
		want    ErrorType
	}{
		{"syntax", "damage := (", ErrorTypeCompilation},
		{"no damage", "x := nail", ErrorTypeResult},
		{"not a number", `damage := "lots"`, ErrorTypeResult},
		{"runtime", `damage := nail + undefined_fn()`, ErrorTypeCompilation},
		{"bad operation", `damage := nail + charms`, ErrorTypeExecution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := gamedata.AttackPreset{ID: "broken", Label: "Broken", Category: "nail", Formula: tt.formula}
			_, err := NewEngine().Evaluate(context.Background(), p, build("old-nail"), catalog)
			var ferr *FormulaError
			require.True(t, errors.As(err, &ferr), "got %v", err)
			assert.Equal(t, tt.want, ferr.Type)
			assert.Equal(t, "broken", ferr.Preset)
		})
	}
}

func TestEvaluate_Timeout(t *testing.T) {
	engine := NewEngine(WithTimeout(20 * time.Millisecond))
	p := gamedata.AttackPreset{ID: "spin", Label: "Spin", Category: "nail", Formula: "damage := 0\nfor { damage += 1 }"}

	_, err := engine.Evaluate(context.Background(), p, build("old-nail"), gamedata.Default())
	var ferr *FormulaError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, ErrorTypeTimeout, ferr.Type)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEvaluate_NegativeClampsToZero(t *testing.T) {
	p := gamedata.AttackPreset{ID: "heal", Label: "Heal", Category: "charm", Formula: "damage := -nail"}
	attack, err := NewEngine().Evaluate(context.Background(), p, build("old-nail"), gamedata.Default())
	require.NoError(t, err)
	assert.Equal(t, 0.0, attack.Damage)
}
