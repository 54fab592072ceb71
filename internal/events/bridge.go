package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nfrund/bosstracker/internal/fight"
	"github.com/nfrund/bosstracker/internal/store"
)

// Bridge watches a store and publishes the transitions it sees.
type Bridge struct {
	bus    *Bus
	logger *slog.Logger

	mu          sync.Mutex
	prev        *fight.State
	unsubscribe func()
}

// Attach subscribes a bridge to st. Call Detach to stop it.
func Attach(st *store.Store, bus *Bus) *Bridge {
	b := &Bridge{
		bus:    bus,
		logger: bus.logger,
		prev:   st.State(),
	}
	b.unsubscribe = st.SubscribeState(b.onState)
	return b
}

// Detach stops publishing.
func (b *Bridge) Detach() {
	b.unsubscribe()
}

func (b *Bridge) onState(next *fight.State) {
	b.mu.Lock()
	prev := b.prev
	b.prev = next
	b.mu.Unlock()

	ctx := context.Background()
	for _, ev := range Diff(prev, next) {
		data, err := json.Marshal(ev.Payload)
		if err == nil {
			err = b.bus.Publish(ctx, ev.Topic, data)
		}
		if err != nil {
			b.logger.Warn("failed to publish fight event", "topic", ev.Topic, "error", err)
		}
	}
}

// Event is one payload due on a topic.
type Event struct {
	Topic   string
	Payload any
}

func event[T any](topic Topic[T], payload T) Event {
	return Event{Topic: topic.name, Payload: payload}
}

func stageKey(s *fight.State) string {
	if !s.InSequence() {
		return ""
	}
	return fight.StageKey(s.ActiveSequenceID, s.SequenceIndex)
}

// Diff lists the events implied by moving from prev to next, in the order
// they should be published.
func Diff(prev, next *fight.State) []Event {
	if prev == next {
		return nil
	}
	var out []Event

	sameFight := prev.ActiveSequenceID == next.ActiveSequenceID &&
		prev.SequenceIndex == next.SequenceIndex &&
		prev.SelectedBossID == next.SelectedBossID

	if !sameFight && next.InSequence() &&
		(prev.ActiveSequenceID != next.ActiveSequenceID || prev.SequenceIndex != next.SequenceIndex) {
		out = append(out, event(TopicStageEntered, StageEntered{
			SequenceID: next.ActiveSequenceID,
			Index:      next.SequenceIndex,
			TargetID:   next.SelectedBossID,
		}))
	}
	if !sameFight {
		return out
	}

	key := stageKey(next)
	switch len(next.DamageLog) - len(prev.DamageLog) {
	case 1:
		ev := next.DamageLog[len(next.DamageLog)-1]
		out = append(out, event(TopicAttackLogged, AttackLogged{
			EventID:     ev.ID,
			Label:       ev.Label,
			Damage:      ev.Damage,
			Category:    string(ev.Category),
			Timestamp:   ev.Timestamp,
			TargetID:    next.SelectedBossID,
			StageKey:    key,
			TotalDamage: next.DamageLogAggregates.TotalDamage,
		}))
	case -1:
		ev := prev.DamageLog[len(prev.DamageLog)-1]
		out = append(out, event(TopicAttackUndone, AttackUndone{
			EventID:     ev.ID,
			Damage:      ev.Damage,
			TargetID:    next.SelectedBossID,
			StageKey:    key,
			TotalDamage: next.DamageLogAggregates.TotalDamage,
		}))
	}

	if prev.FightEndTimestamp == nil && next.FightEndTimestamp != nil {
		start := next.FightStartTimestamp
		if start == nil {
			start = next.DamageLogAggregates.FirstAttackTimestamp
		}
		out = append(out, event(TopicFightComplete, FightCompleted{
			TargetID:    next.SelectedBossID,
			StageKey:    key,
			Start:       start,
			End:         *next.FightEndTimestamp,
			TotalDamage: next.DamageLogAggregates.TotalDamage,
			Attacks:     next.DamageLogAggregates.AttacksLogged,
			Manual:      next.FightManuallyEnded,
		}))
	}
	return out
}
