package gamedata

// Phase is one HP pool of a multi-phase target.
type Phase struct {
	Label           string  `yaml:"label"`
	HP              float64 `yaml:"hp" validate:"gt=0"`
	DiscardOverkill bool    `yaml:"discard_overkill"`
}

// Boss is a fight target. When Phases is non-empty its effective HP is the
// sum of the phase pools and HP is ignored.
type Boss struct {
	ID     string  `yaml:"id" validate:"required"`
	Name   string  `yaml:"name" validate:"required"`
	HP     float64 `yaml:"hp" validate:"gte=0"`
	Phases []Phase `yaml:"phases" validate:"dive"`
}

// TotalHP returns the HP a fight against b has to deal.
func (b Boss) TotalHP() float64 {
	if len(b.Phases) == 0 {
		return b.HP
	}
	total := 0.0
	for _, p := range b.Phases {
		total += p.HP
	}
	return total
}

// Charm is a build modifier occupying notches.
type Charm struct {
	ID   string `yaml:"id" validate:"required"`
	Name string `yaml:"name" validate:"required"`
	Cost int    `yaml:"cost" validate:"gte=0,lte=6"`
}

// NailUpgrade sets the base damage of nail strikes.
type NailUpgrade struct {
	ID     string `yaml:"id" validate:"required"`
	Name   string `yaml:"name" validate:"required"`
	Damage int    `yaml:"damage" validate:"gt=0"`
}

// Spell holds damage for the base and upgraded versions of a spell.
type Spell struct {
	ID      string `yaml:"id" validate:"required"`
	Name    string `yaml:"name" validate:"required"`
	Base    int    `yaml:"base" validate:"gte=0"`
	Upgrade int    `yaml:"upgrade" validate:"gte=0"`
}

// AttackPreset describes a loggable attack whose damage is computed by a
// formula script from the current build.
type AttackPreset struct {
	ID       string   `yaml:"id" validate:"required"`
	Label    string   `yaml:"label" validate:"required"`
	Category string   `yaml:"category" validate:"oneof=nail spell nail-art charm"`
	Spell    string   `yaml:"spell"`
	SoulCost *float64 `yaml:"soul_cost" validate:"omitempty,gte=0"`
	Formula  string   `yaml:"formula" validate:"required"`
}

// ConditionDef is a named toggle that changes how a sequence resolves.
type ConditionDef struct {
	ID      string `yaml:"id" validate:"required"`
	Label   string `yaml:"label"`
	Default bool   `yaml:"default"`
}

// StageDef is one entry of a sequence before conditions are applied.
// IncludeWhen drops the stage unless the named condition is enabled;
// ReplaceWhen swaps Target for AltTarget while the condition is enabled.
type StageDef struct {
	Target      string `yaml:"target" validate:"required"`
	IncludeWhen string `yaml:"include_when"`
	ReplaceWhen string `yaml:"replace_when"`
	AltTarget   string `yaml:"alt_target" validate:"required_with=ReplaceWhen"`
}

// Sequence is an ordered gauntlet of targets.
type Sequence struct {
	ID         string         `yaml:"id" validate:"required"`
	Name       string         `yaml:"name" validate:"required"`
	Conditions []ConditionDef `yaml:"conditions" validate:"dive"`
	Stages     []StageDef     `yaml:"stages" validate:"min=1,dive"`
}

// Stage is a resolved sequence entry.
type Stage struct {
	Index    int
	TargetID string
}

// ConditionDefault reports the default value of a condition and whether the
// sequence defines it at all.
func (s Sequence) ConditionDefault(id string) (bool, bool) {
	for _, c := range s.Conditions {
		if c.ID == id {
			return c.Default, true
		}
	}
	return false, false
}

// Resolve applies condition values to the stage list. Conditions missing
// from values fall back to their defaults.
func (s Sequence) Resolve(values map[string]bool) []Stage {
	enabled := func(id string) bool {
		if v, ok := values[id]; ok {
			return v
		}
		def, _ := s.ConditionDefault(id)
		return def
	}

	stages := make([]Stage, 0, len(s.Stages))
	for _, def := range s.Stages {
		if def.IncludeWhen != "" && !enabled(def.IncludeWhen) {
			continue
		}
		target := def.Target
		if def.ReplaceWhen != "" && enabled(def.ReplaceWhen) {
			target = def.AltTarget
		}
		stages = append(stages, Stage{Index: len(stages), TargetID: target})
	}
	return stages
}

// Data is the document layout of a game-data YAML file.
type Data struct {
	Bosses       []Boss         `yaml:"bosses" validate:"min=1,dive"`
	Charms       []Charm        `yaml:"charms" validate:"dive"`
	NailUpgrades []NailUpgrade  `yaml:"nail_upgrades" validate:"min=1,dive"`
	Spells       []Spell        `yaml:"spells" validate:"dive"`
	Presets      []AttackPreset `yaml:"presets" validate:"dive"`
	Sequences    []Sequence     `yaml:"sequences" validate:"dive"`
}
