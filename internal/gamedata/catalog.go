package gamedata

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed data/default.yaml
var defaultData []byte

// validatorInstance caches struct information across loads.
var validatorInstance = validator.New()

// Catalog is an indexed, validated, read-only view of the game-data tables.
type Catalog struct {
	data      Data
	bosses    map[string]Boss
	charms    map[string]Charm
	nails     map[string]NailUpgrade
	spells    map[string]Spell
	presets   map[string]AttackPreset
	sequences map[string]Sequence
}

// Default returns the catalog built from the embedded tables.
func Default() *Catalog {
	c, err := Parse(defaultData)
	if err != nil {
		panic("embedded game data is invalid: " + err.Error())
	}
	return c
}

// Load reads and parses a game-data YAML file.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game data %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes, validates and indexes a game-data document.
func Parse(raw []byte) (*Catalog, error) {
	var data Data
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("decode game data: %w", err)
	}
	if err := validatorInstance.Struct(data); err != nil {
		return nil, fmt.Errorf("validate game data: %w", err)
	}

	c := &Catalog{
		data:      data,
		bosses:    make(map[string]Boss, len(data.Bosses)),
		charms:    make(map[string]Charm, len(data.Charms)),
		nails:     make(map[string]NailUpgrade, len(data.NailUpgrades)),
		spells:    make(map[string]Spell, len(data.Spells)),
		presets:   make(map[string]AttackPreset, len(data.Presets)),
		sequences: make(map[string]Sequence, len(data.Sequences)),
	}
	var errs []error
	for _, b := range data.Bosses {
		if _, dup := c.bosses[b.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate boss %q", b.ID))
		}
		c.bosses[b.ID] = b
	}
	for _, ch := range data.Charms {
		if _, dup := c.charms[ch.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate charm %q", ch.ID))
		}
		c.charms[ch.ID] = ch
	}
	for _, n := range data.NailUpgrades {
		c.nails[n.ID] = n
	}
	for _, s := range data.Spells {
		c.spells[s.ID] = s
	}
	for _, p := range data.Presets {
		if p.Spell != "" {
			if _, ok := c.spells[p.Spell]; !ok {
				errs = append(errs, fmt.Errorf("preset %q references unknown spell %q", p.ID, p.Spell))
			}
		}
		c.presets[p.ID] = p
	}
	for _, s := range data.Sequences {
		errs = append(errs, c.checkSequence(s)...)
		c.sequences[s.ID] = s
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("validate game data: %w", err)
	}
	return c, nil
}

func (c *Catalog) checkSequence(s Sequence) []error {
	var errs []error
	for i, st := range s.Stages {
		for _, target := range []string{st.Target, st.AltTarget} {
			if target == "" {
				continue
			}
			if _, ok := c.bosses[target]; !ok {
				errs = append(errs, fmt.Errorf("sequence %q stage %d references unknown boss %q", s.ID, i, target))
			}
		}
		for _, cond := range []string{st.IncludeWhen, st.ReplaceWhen} {
			if cond == "" {
				continue
			}
			if _, ok := s.ConditionDefault(cond); !ok {
				errs = append(errs, fmt.Errorf("sequence %q stage %d references undefined condition %q", s.ID, i, cond))
			}
		}
	}
	return errs
}

// Boss looks up a target by id.
func (c *Catalog) Boss(id string) (Boss, bool) {
	b, ok := c.bosses[id]
	return b, ok
}

// Charm looks up a charm by id.
func (c *Catalog) Charm(id string) (Charm, bool) {
	ch, ok := c.charms[id]
	return ch, ok
}

// CharmCost returns the notch cost of a charm.
func (c *Catalog) CharmCost(id string) (int, bool) {
	ch, ok := c.charms[id]
	return ch.Cost, ok
}

// NailUpgrade looks up a nail by id.
func (c *Catalog) NailUpgrade(id string) (NailUpgrade, bool) {
	n, ok := c.nails[id]
	return n, ok
}

// Spell looks up a spell by id.
func (c *Catalog) Spell(id string) (Spell, bool) {
	s, ok := c.spells[id]
	return s, ok
}

// Preset looks up an attack preset by id.
func (c *Catalog) Preset(id string) (AttackPreset, bool) {
	p, ok := c.presets[id]
	return p, ok
}

// Sequence looks up a sequence by id.
func (c *Catalog) Sequence(id string) (Sequence, bool) {
	s, ok := c.sequences[id]
	return s, ok
}

// Bosses returns all targets sorted by id.
func (c *Catalog) Bosses() []Boss {
	out := append([]Boss(nil), c.data.Bosses...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Charms returns all charms in document order.
func (c *Catalog) Charms() []Charm {
	return append([]Charm(nil), c.data.Charms...)
}

// Presets returns all attack presets in document order.
func (c *Catalog) Presets() []AttackPreset {
	return append([]AttackPreset(nil), c.data.Presets...)
}

// Sequences returns all sequences in document order.
func (c *Catalog) Sequences() []Sequence {
	return append([]Sequence(nil), c.data.Sequences...)
}

// DefaultNailUpgrade is the first nail in the tables.
func (c *Catalog) DefaultNailUpgrade() string {
	return c.data.NailUpgrades[0].ID
}
