package fight

// DeriveFromLog folds log from empty.
func DeriveFromLog(log []AttackEvent) Aggregates {
	agg := Aggregates{}
	for _, ev := range log {
		agg = AppendEvent(agg, ev)
	}
	return agg
}

// AppendEvent extends agg by one event in O(1).
func AppendEvent(agg Aggregates, ev AttackEvent) Aggregates {
	next := Aggregates{
		TotalDamage:   agg.TotalDamage + ev.Damage,
		AttacksLogged: agg.AttacksLogged + 1,
	}
	if agg.AttacksLogged == 0 || agg.FirstAttackTimestamp == nil {
		next.FirstAttackTimestamp = ptr(ev.Timestamp)
		next.LastAttackTimestamp = ptr(ev.Timestamp)
		return next
	}
	next.FirstAttackTimestamp = ptr(min(*agg.FirstAttackTimestamp, ev.Timestamp))
	next.LastAttackTimestamp = ptr(max(*agg.LastAttackTimestamp, ev.Timestamp))
	return next
}

// RemoveLastEvent undoes AppendEvent for removed, the former tail of the log
// that is now nextLog. Damage is whole, so the running total stays exact.
// The timestamp bounds only need a rescan when removed sat on one of them.
func RemoveLastEvent(nextLog []AttackEvent, removed AttackEvent, agg Aggregates) Aggregates {
	if len(nextLog) == 0 {
		return Aggregates{}
	}
	next := Aggregates{
		TotalDamage:          agg.TotalDamage - removed.Damage,
		AttacksLogged:        len(nextLog),
		FirstAttackTimestamp: agg.FirstAttackTimestamp,
		LastAttackTimestamp:  agg.LastAttackTimestamp,
	}
	if next.FirstAttackTimestamp == nil || next.LastAttackTimestamp == nil ||
		removed.Timestamp <= *next.FirstAttackTimestamp || removed.Timestamp >= *next.LastAttackTimestamp {
		bounds := DeriveFromLog(nextLog)
		next.FirstAttackTimestamp = bounds.FirstAttackTimestamp
		next.LastAttackTimestamp = bounds.LastAttackTimestamp
	}
	return next
}
