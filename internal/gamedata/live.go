package gamedata

import "sync/atomic"

// Live holds the current catalog and lets a watcher swap it without callers
// noticing. It satisfies the same lookup methods as *Catalog.
type Live struct {
	current atomic.Pointer[Catalog]
}

// NewLive wraps an initial catalog.
func NewLive(c *Catalog) *Live {
	l := &Live{}
	l.current.Store(c)
	return l
}

// Current returns the catalog in effect right now.
func (l *Live) Current() *Catalog { return l.current.Load() }

// Swap replaces the catalog and returns the one it replaced.
func (l *Live) Swap(c *Catalog) *Catalog { return l.current.Swap(c) }

func (l *Live) Boss(id string) (Boss, bool)               { return l.Current().Boss(id) }
func (l *Live) CharmCost(id string) (int, bool)           { return l.Current().CharmCost(id) }
func (l *Live) Sequence(id string) (Sequence, bool)       { return l.Current().Sequence(id) }
func (l *Live) Preset(id string) (AttackPreset, bool)     { return l.Current().Preset(id) }
func (l *Live) NailUpgrade(id string) (NailUpgrade, bool) { return l.Current().NailUpgrade(id) }
func (l *Live) Spell(id string) (Spell, bool)             { return l.Current().Spell(id) }
