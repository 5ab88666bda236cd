// Package tracker provides the in-memory conversation tracker plans decide on.
package tracker

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/plan"
)

var _ plan.Session = (*Conversation)(nil)

// Conversation holds the state of one session: slots, the latest intent and
// action, the applied event log and the active plan.
// It is not safe for concurrent use; hosts serialize access per session.
type Conversation struct {
	sessionID string
	slots     map[string]any
	intent    string
	latest    string
	events    []string
	active    plan.Plan
	updatedAt time.Time
}

// New creates an empty conversation whose latest action is action_listen.
func New(sessionID string) *Conversation {
	return &Conversation{
		sessionID: sessionID,
		slots:     make(map[string]any),
		latest:    domain.ActionListen,
		updatedAt: time.Now(),
	}
}

func (c *Conversation) SessionID() string { return c.sessionID }

func (c *Conversation) SlotValue(name string) (any, bool) {
	v, ok := c.slots[name]
	return v, ok
}

func (c *Conversation) SlotValues() map[string]any { return c.slots }

func (c *Conversation) LatestIntent() string { return c.intent }

func (c *Conversation) LatestActionName() string { return c.latest }

// SetSlot writes a slot. A nil value unsets it.
func (c *Conversation) SetSlot(name string, value any) {
	if value == nil {
		delete(c.slots, name)
	} else {
		c.slots[name] = value
	}
	c.touch()
}

// SetIntent records the intent of the latest user message.
func (c *Conversation) SetIntent(intent string) {
	c.intent = intent
	c.latest = domain.ActionListen
	c.touch()
}

// RecordAction marks name as the most recently executed action.
func (c *Conversation) RecordAction(name string) {
	c.latest = name
	c.events = append(c.events, name)
	c.touch()
}

// Apply applies lifecycle events in order and logs their names.
func (c *Conversation) Apply(events ...plan.Event) {
	for _, ev := range events {
		ev.ApplyTo(c)
		c.events = append(c.events, ev.Name())
	}
	c.touch()
}

func (c *Conversation) ActivatePlan(p plan.Plan) { c.active = p }

func (c *Conversation) DeactivatePlan() { c.active = nil }

func (c *Conversation) ActivePlan() plan.Plan { return c.active }

// Events returns the names of executed actions and applied events, in order.
func (c *Conversation) Events() []string { return slices.Clone(c.events) }

func (c *Conversation) touch() { c.updatedAt = time.Now() }

// Snapshot returns the persistable form of the conversation.
func (c *Conversation) Snapshot() *domain.ConversationSnapshot {
	snap := &domain.ConversationSnapshot{
		SessionID:    c.sessionID,
		Slots:        maps.Clone(c.slots),
		LatestIntent: c.intent,
		LatestAction: c.latest,
		Events:       slices.Clone(c.events),
		UpdatedAt:    c.updatedAt,
	}
	if c.active != nil {
		ps := c.active.Snapshot()
		snap.ActivePlan = &ps
	}
	return snap
}

// Restore rebuilds a conversation from snap, re-instantiating its active plan
// from catalog.
func Restore(snap *domain.ConversationSnapshot, catalog *plan.Catalog) (*Conversation, error) {
	c := New(snap.SessionID)
	if snap.Slots != nil {
		c.slots = maps.Clone(snap.Slots)
	}
	c.intent = snap.LatestIntent
	if snap.LatestAction != "" {
		c.latest = snap.LatestAction
	}
	c.events = slices.Clone(snap.Events)
	c.updatedAt = snap.UpdatedAt

	if snap.ActivePlan != nil {
		p, err := catalog.Resume(*snap.ActivePlan)
		if err != nil {
			return nil, fmt.Errorf("failed to resume plan for session %s: %w", snap.SessionID, err)
		}
		c.active = p
	}
	return c, nil
}
