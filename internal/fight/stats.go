package fight

// Stats are the time-dependent metrics derived from a state. Pointer fields
// are nil when the metric is not yet defined.
type Stats struct {
	TargetID        string
	TargetName      string
	TargetHP        float64
	TotalDamage     float64
	EffectiveDamage float64
	RemainingHP     float64
	AttacksLogged   int
	AverageDamage   *float64

	FightStartTimestamp *float64
	FightEndTimestamp   *float64
	ElapsedMs           *float64
	DPS                 *float64
	ActionsPerMinute    *float64
	// EstimatedSecondsRemaining is RemainingHP / DPS.
	EstimatedSecondsRemaining *float64

	IsFightInProgress bool
	IsFightComplete   bool

	Phase PhaseInfo
}

// ComputeStats derives metrics from s using agg as the aggregate of
// s.DamageLog. frameTimestamp stands in for the fight end while a fight is
// still running, so calling this every frame advances elapsed time and DPS.
func ComputeStats(s *State, catalog Catalog, frameTimestamp float64, agg Aggregates) Stats {
	target := ResolveTarget(s, catalog)
	effective := EffectiveDamage(s.DamageLog, agg.TotalDamage, target)

	st := Stats{
		TargetID:        target.ID,
		TargetName:      target.Name,
		TargetHP:        target.HP,
		TotalDamage:     agg.TotalDamage,
		EffectiveDamage: effective,
		RemainingHP:     max(0, target.HP-effective),
		AttacksLogged:   agg.AttacksLogged,
		Phase:           DescribePhase(target, effective),
	}
	if agg.AttacksLogged > 0 {
		st.AverageDamage = ptr(agg.TotalDamage / float64(agg.AttacksLogged))
	}

	start := s.FightStartTimestamp
	if start == nil {
		start = agg.FirstAttackTimestamp
	}
	st.FightStartTimestamp = start
	st.FightEndTimestamp = s.FightEndTimestamp

	if start != nil {
		end := frameTimestamp
		if s.FightEndTimestamp != nil {
			end = *s.FightEndTimestamp
		}
		elapsed := max(0, end-*start)
		st.ElapsedMs = ptr(elapsed)
		if elapsed > 0 {
			st.DPS = ptr(agg.TotalDamage / (elapsed / 1000))
			st.ActionsPerMinute = ptr(float64(agg.AttacksLogged) / (elapsed / 60000))
		}
	}

	switch {
	case target.HP > 0 && st.RemainingHP <= 0:
		st.EstimatedSecondsRemaining = ptr(0)
	case st.DPS != nil && *st.DPS > 0:
		st.EstimatedSecondsRemaining = ptr(st.RemainingHP / *st.DPS)
	}

	st.IsFightComplete = s.FightEndTimestamp != nil || (target.HP > 0 && st.RemainingHP <= 0)
	st.IsFightInProgress = start != nil && !st.IsFightComplete
	return st
}
