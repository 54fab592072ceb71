package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// Topic binds a topic name to its payload type.
type Topic[T any] struct {
	name string
}

// Name returns the topic name.
func (t Topic[T]) Name() string { return t.name }

var (
	TopicAttackLogged  = Topic[AttackLogged]{name: "fight.attack.logged"}
	TopicAttackUndone  = Topic[AttackUndone]{name: "fight.attack.undone"}
	TopicFightComplete = Topic[FightCompleted]{name: "fight.completed"}
	TopicStageEntered  = Topic[StageEntered]{name: "fight.stage.entered"}
)

// AttackLogged is published when an attack lands in the active log,
// including one restored by redo.
type AttackLogged struct {
	EventID     string  `json:"eventId"`
	Label       string  `json:"label"`
	Damage      float64 `json:"damage"`
	Category    string  `json:"category"`
	Timestamp   float64 `json:"timestamp"`
	TargetID    string  `json:"targetId"`
	StageKey    string  `json:"stageKey,omitempty"`
	TotalDamage float64 `json:"totalDamage"`
}

// AttackUndone is published when the last attack leaves the active log.
type AttackUndone struct {
	EventID     string  `json:"eventId"`
	Damage      float64 `json:"damage"`
	TargetID    string  `json:"targetId"`
	StageKey    string  `json:"stageKey,omitempty"`
	TotalDamage float64 `json:"totalDamage"`
}

// FightCompleted is published when the active fight gains an end time.
type FightCompleted struct {
	TargetID    string   `json:"targetId"`
	StageKey    string   `json:"stageKey,omitempty"`
	Start       *float64 `json:"start"`
	End         float64  `json:"end"`
	TotalDamage float64  `json:"totalDamage"`
	Attacks     int      `json:"attacks"`
	Manual      bool     `json:"manual"`
}

// StageEntered is published when a sequence stage becomes active.
type StageEntered struct {
	SequenceID string `json:"sequenceId"`
	Index      int    `json:"index"`
	TargetID   string `json:"targetId"`
}

// Publish encodes payload and sends it on topic.
func Publish[T any](ctx context.Context, bus *Bus, topic Topic[T], payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", topic.name, err)
	}
	return bus.Publish(ctx, topic.name, data)
}

// Listen decodes every message on topic and passes it to fn.
func Listen[T any](ctx context.Context, bus *Bus, topic Topic[T], fn func(context.Context, T) error) error {
	return bus.Subscribe(ctx, topic.name, func(ctx context.Context, msg Message) error {
		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", topic.name, err)
		}
		return fn(ctx, payload)
	})
}
