package fight

import (
	"strconv"

	"github.com/nfrund/bosstracker/internal/gamedata"
)

// Category tags the kind of strike an attack event records.
type Category string

const (
	CategoryNail    Category = "nail"
	CategorySpell   Category = "spell"
	CategoryNailArt Category = "nail-art"
	CategoryCharm   Category = "charm"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryNail, CategorySpell, CategoryNailArt, CategoryCharm:
		return true
	}
	return false
}

// SpellLevel is how far a spell has been acquired.
type SpellLevel string

const (
	SpellNone    SpellLevel = "none"
	SpellBase    SpellLevel = "base"
	SpellUpgrade SpellLevel = "upgrade"
)

// Valid reports whether l is one of the known levels.
func (l SpellLevel) Valid() bool {
	switch l {
	case SpellNone, SpellBase, SpellUpgrade:
		return true
	}
	return false
}

// Build limits.
const (
	MinNotchLimit     = 3
	MaxNotchLimit     = 11
	DefaultNotchLimit = MaxNotchLimit

	// OvercharmAllowance is how far past the notch limit a single charm may
	// push the loadout.
	OvercharmAllowance = 4
)

// CustomTargetID selects the user-supplied HP instead of a catalog boss.
const (
	CustomTargetID        = "custom"
	DefaultCustomTargetHP = 1000.0
	MaxCustomTargetHP     = 1_000_000.0
)

// AttackEvent is one logged strike. Events are never mutated once logged.
type AttackEvent struct {
	ID        string
	Label     string
	Damage    float64
	Category  Category
	Timestamp float64
	SoulCost  *float64
}

// Aggregates summarises an attack log. The zero value is the canonical
// aggregate of an empty log.
type Aggregates struct {
	TotalDamage          float64
	AttacksLogged        int
	FirstAttackTimestamp *float64
	LastAttackTimestamp  *float64
}

// Build is the player's loadout.
type Build struct {
	NailUpgradeID  string
	ActiveCharmIDs []string
	SpellLevels    map[string]SpellLevel
	NotchLimit     int
}

// State is the root fight aggregate. A *State is treated as immutable: the
// reducer returns a new value for every change and the same pointer when
// nothing changed.
//
// When a sequence is active, DamageLog, DamageLogAggregates, RedoStack and
// the fight timestamps mirror the entries stored under the current stage key.
type State struct {
	SelectedBossID string
	CustomTargetHP float64
	Build          Build

	DamageLog           []AttackEvent
	DamageLogAggregates Aggregates
	DamageLogVersion    int
	RedoStack           []AttackEvent

	FightStartTimestamp  *float64
	FightManuallyStarted bool
	FightEndTimestamp    *float64
	FightManuallyEnded   bool

	ActiveSequenceID string
	SequenceIndex    int

	SequenceLogs                 map[string][]AttackEvent
	SequenceLogAggregates        map[string]Aggregates
	SequenceRedoStacks           map[string][]AttackEvent
	SequenceConditions           map[string]map[string]bool
	SequenceFightStartTimestamps map[string]float64
	SequenceManualStartFlags     map[string]bool
	SequenceFightEndTimestamps   map[string]float64
	SequenceManualEndFlags       map[string]bool
}

// Catalog is the read-only game data the core consults.
type Catalog interface {
	Boss(id string) (gamedata.Boss, bool)
	CharmCost(id string) (int, bool)
	NailUpgrade(id string) (gamedata.NailUpgrade, bool)
	Spell(id string) (gamedata.Spell, bool)
	Sequence(id string) (gamedata.Sequence, bool)
}

// NewState returns the default state targeting bossID with the given nail.
func NewState(bossID, nailUpgradeID string) *State {
	return &State{
		SelectedBossID: bossID,
		CustomTargetHP: DefaultCustomTargetHP,
		Build: Build{
			NailUpgradeID: nailUpgradeID,
			SpellLevels:   map[string]SpellLevel{},
			NotchLimit:    DefaultNotchLimit,
		},
		SequenceLogs:                 map[string][]AttackEvent{},
		SequenceLogAggregates:        map[string]Aggregates{},
		SequenceRedoStacks:           map[string][]AttackEvent{},
		SequenceConditions:           map[string]map[string]bool{},
		SequenceFightStartTimestamps: map[string]float64{},
		SequenceManualStartFlags:     map[string]bool{},
		SequenceFightEndTimestamps:   map[string]float64{},
		SequenceManualEndFlags:       map[string]bool{},
	}
}

// StageKey is the per-stage map key for index of sequence seqID.
func StageKey(seqID string, index int) string {
	return seqID + "#" + strconv.Itoa(index)
}

// InSequence reports whether a sequence is active.
func (s *State) InSequence() bool { return s.ActiveSequenceID != "" }

// clone returns a shallow copy. Callers must replace, not mutate, any slice
// or map they intend to change.
func (s *State) clone() *State {
	next := *s
	return &next
}

func ptr(v float64) *float64 { return &v }
