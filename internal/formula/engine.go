// Package formula computes attack damage from the player's build by running
// the tengo formula attached to each attack preset.
package formula

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/nfrund/bosstracker/internal/fight"
	"github.com/nfrund/bosstracker/internal/gamedata"
)

// DefaultTimeout bounds a single formula run.
const DefaultTimeout = 100 * time.Millisecond

// Variables visible to formulas. A formula must assign damage.
const (
	varNail        = "nail"
	varCharms      = "charms"
	varSpellLevel  = "spell_level"
	varSpellDamage = "spell_damage"
	varDamage      = "damage"
)

// Catalog is the game data a formula run reads.
type Catalog interface {
	NailUpgrade(id string) (gamedata.NailUpgrade, bool)
	Spell(id string) (gamedata.Spell, bool)
}

// Attack is a preset resolved against a build, ready to be logged.
type Attack struct {
	PresetID string
	Label    string
	Category fight.Category
	Damage   float64
	SoulCost *float64
}

// LogAction turns the attack into a reducer action stamped with ts.
func (a Attack) LogAction(ts float64) fight.LogAttack {
	return fight.LogAttack{
		ID:        a.PresetID,
		Label:     a.Label,
		Damage:    a.Damage,
		Category:  a.Category,
		Timestamp: ts,
		SoulCost:  a.SoulCost,
	}
}

// Engine evaluates preset formulas. Compiled formulas are cached by preset
// and source, so an edited formula is recompiled on its next use.
type Engine struct {
	timeout time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	compiled map[string]*tengo.Compiled
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds each formula run.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an engine with an empty compile cache.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
		compiled: make(map[string]*tengo.Compiled),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) compile(preset gamedata.AttackPreset) (*tengo.Compiled, error) {
	key := preset.ID + "\x00" + preset.Formula

	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.compiled[key]; ok {
		return c, nil
	}

	script := tengo.NewScript([]byte(preset.Formula))
	script.SetImports(stdlib.GetModuleMap("math"))
	for name, placeholder := range map[string]any{
		varNail:        0.0,
		varCharms:      map[string]any{},
		varSpellLevel:  "",
		varSpellDamage: 0.0,
	} {
		if err := script.Add(name, placeholder); err != nil {
			return nil, newError(ErrorTypeCompilation, preset.ID, "failed to declare "+name, err)
		}
	}
	c, err := script.Compile()
	if err != nil {
		return nil, newError(ErrorTypeCompilation, preset.ID, "failed to compile formula", err)
	}
	e.compiled[key] = c
	e.logger.Debug("formula compiled", "preset", preset.ID)
	return c, nil
}

// Evaluate computes the damage of preset under build. The result is
// rounded to a whole number and never negative.
func (e *Engine) Evaluate(ctx context.Context, preset gamedata.AttackPreset, build fight.Build, catalog Catalog) (Attack, error) {
	compiled, err := e.compile(preset)
	if err != nil {
		return Attack{}, err
	}

	run := compiled.Clone()
	for name, value := range inputs(preset, build, catalog) {
		if err := run.Set(name, value); err != nil {
			return Attack{}, newError(ErrorTypeExecution, preset.ID, "failed to set "+name, err)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := run.RunContext(runCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Attack{}, newError(ErrorTypeTimeout, preset.ID, "formula did not finish", err)
		}
		return Attack{}, newError(ErrorTypeExecution, preset.ID, "formula failed", err)
	}

	v := run.Get(varDamage)
	if v == nil || v.IsUndefined() {
		return Attack{}, newError(ErrorTypeResult, preset.ID, "formula did not assign damage", nil)
	}
	var damage float64
	switch x := v.Value().(type) {
	case int64:
		damage = float64(x)
	case float64:
		damage = x
	default:
		return Attack{}, newError(ErrorTypeResult, preset.ID, "damage is not a number", nil)
	}
	if math.IsNaN(damage) || math.IsInf(damage, 0) {
		return Attack{}, newError(ErrorTypeResult, preset.ID, "damage is not finite", nil)
	}

	return Attack{
		PresetID: preset.ID,
		Label:    preset.Label,
		Category: fight.Category(preset.Category),
		Damage:   max(0, math.Round(damage)),
		SoulCost: preset.SoulCost,
	}, nil
}

func inputs(preset gamedata.AttackPreset, build fight.Build, catalog Catalog) map[string]any {
	nail := 0.0
	if n, ok := catalog.NailUpgrade(build.NailUpgradeID); ok {
		nail = float64(n.Damage)
	}

	charms := make(map[string]any, len(build.ActiveCharmIDs))
	for _, id := range build.ActiveCharmIDs {
		charms[id] = true
	}

	level := fight.SpellBase
	if l, ok := build.SpellLevels[preset.Spell]; ok {
		level = l
	}
	spellDamage := 0.0
	if sp, ok := catalog.Spell(preset.Spell); ok {
		switch level {
		case fight.SpellBase:
			spellDamage = float64(sp.Base)
		case fight.SpellUpgrade:
			spellDamage = float64(sp.Upgrade)
		}
	}

	return map[string]any{
		varNail:        nail,
		varCharms:      charms,
		varSpellLevel:  string(level),
		varSpellDamage: spellDamage,
	}
}
