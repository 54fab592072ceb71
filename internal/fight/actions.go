package fight

// Action is an input to Reducer.Reduce.
type Action interface {
	action()
}

// SelectTarget switches to a catalog boss or CustomTargetID. Selecting a
// different target leaves any active sequence and starts a fresh fight.
type SelectTarget struct{ ID string }

// SetCustomTargetHP sets the HP used when CustomTargetID is selected.
type SetCustomTargetHP struct{ HP float64 }

// LogAttack records a strike. ID identifies the caller (button, preset) and
// is combined with Timestamp into the event id.
type LogAttack struct {
	ID        string
	Label     string
	Damage    float64
	Category  Category
	Timestamp float64
	SoulCost  *float64
}

type UndoLastAttack struct{}
type RedoLastAttack struct{}

// ResetLog clears the active log, redo stack and fight markers.
type ResetLog struct{}

type StartFight struct{ Timestamp float64 }
type EndFight struct{ Timestamp float64 }

type SetNailUpgrade struct{ ID string }
type SetActiveCharms struct{ IDs []string }
type ToggleCharm struct{ ID string }
type SetCharmNotchLimit struct{ Limit int }

type SetSpellLevel struct {
	SpellID string
	Level   SpellLevel
}

type StartSequence struct{ ID string }
type StopSequence struct{}
type SetSequenceStage struct{ Index int }
type AdvanceSequence struct{}
type RewindSequence struct{}

type SetSequenceCondition struct {
	SequenceID  string
	ConditionID string
	Enabled     bool
}

func (SelectTarget) action()         {}
func (SetCustomTargetHP) action()    {}
func (LogAttack) action()            {}
func (UndoLastAttack) action()       {}
func (RedoLastAttack) action()       {}
func (ResetLog) action()             {}
func (StartFight) action()           {}
func (EndFight) action()             {}
func (SetNailUpgrade) action()       {}
func (SetActiveCharms) action()      {}
func (ToggleCharm) action()          {}
func (SetCharmNotchLimit) action()   {}
func (SetSpellLevel) action()        {}
func (StartSequence) action()        {}
func (StopSequence) action()         {}
func (SetSequenceStage) action()     {}
func (AdvanceSequence) action()      {}
func (RewindSequence) action()       {}
func (SetSequenceCondition) action() {}
