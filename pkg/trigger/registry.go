// Package trigger is a small rule scheduler: each rule pairs a predicate
// with an effect and is gated by an optional cooldown and once-only flag.
// It knows nothing about what the rules do.
package trigger

import "time"

// Context is handed to Fire. GetState returns the live state, which may
// differ from the snapshot When saw if earlier triggers dispatched actions.
type Context[S, A any] struct {
	Dispatch func(A)
	GetState func() S
	Now      time.Time
}

// Trigger is a condition/effect rule.
type Trigger[S, A any] struct {
	ID          string
	Description string
	Once        bool
	Cooldown    time.Duration
	When        func(S) bool
	Fire        func(Context[S, A])
}

type entry[S, A any] struct {
	trigger   Trigger[S, A]
	fired     bool
	lastFired time.Time
}

// Registry holds triggers in registration order. It is not safe for
// concurrent use and Tick must not be called from inside a Fire callback.
type Registry[S, A any] struct {
	entries []*entry[S, A]
	index   map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry[S, A any]() *Registry[S, A] {
	return &Registry[S, A]{index: make(map[string]int)}
}

// Register adds t, or replaces the trigger with the same id in place and
// resets its bookkeeping.
func (r *Registry[S, A]) Register(t Trigger[S, A]) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[t.ID]; ok {
		r.entries[i] = &entry[S, A]{trigger: t}
		return
	}
	r.index[t.ID] = len(r.entries)
	r.entries = append(r.entries, &entry[S, A]{trigger: t})
}

// RegisterMany registers each trigger in order.
func (r *Registry[S, A]) RegisterMany(ts []Trigger[S, A]) {
	for _, t := range ts {
		r.Register(t)
	}
}

// Clear drops every trigger.
func (r *Registry[S, A]) Clear() {
	r.entries = nil
	r.index = make(map[string]int)
}

// Len returns the number of registered triggers.
func (r *Registry[S, A]) Len() int {
	return len(r.entries)
}

// IDs returns trigger ids in registration order.
func (r *Registry[S, A]) IDs() []string {
	ids := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		ids = append(ids, e.trigger.ID)
	}
	return ids
}

// Has reports whether id is registered.
func (r *Registry[S, A]) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// LastFired returns when id last fired. ok is false if it never has.
func (r *Registry[S, A]) LastFired(id string) (time.Time, bool) {
	i, ok := r.index[id]
	if !ok || !r.entries[i].fired {
		return time.Time{}, false
	}
	return r.entries[i].lastFired, true
}

// Tick evaluates every trigger once against a single snapshot taken from
// getState and fires the eligible ones. It returns the ids that fired.
func (r *Registry[S, A]) Tick(dispatch func(A), getState func() S, now time.Time) []string {
	if len(r.entries) == 0 {
		return nil
	}

	snapshot := getState()
	ctx := Context[S, A]{Dispatch: dispatch, GetState: getState, Now: now}

	var fired []string
	for _, e := range r.entries {
		if e.trigger.Once && e.fired {
			continue
		}
		if e.inCooldown(now) {
			continue
		}
		if e.trigger.When == nil || !e.trigger.When(snapshot) {
			continue
		}

		if e.trigger.Fire != nil {
			e.trigger.Fire(ctx)
		}
		e.lastFired = now
		e.fired = true
		fired = append(fired, e.trigger.ID)
	}
	return fired
}

// inCooldown also holds when now does not advance past the last fire.
func (e *entry[S, A]) inCooldown(now time.Time) bool {
	if !e.fired || e.trigger.Cooldown <= 0 {
		return false
	}
	return now.Sub(e.lastFired) < e.trigger.Cooldown
}
