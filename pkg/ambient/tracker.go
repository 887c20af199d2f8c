package ambient

import (
	"slices"
	"strings"
	"time"

	"github.com/jwebster45206/world-reactor/pkg/content"
	"github.com/jwebster45206/world-reactor/pkg/environment"
)

// Category groups ambient events for throttling.
type Category string

const (
	CategoryRumor        Category = "rumor"
	CategorySignage      Category = "signage"
	CategoryWeather      Category = "weather"
	CategoryZoneDanger   Category = "zoneDanger"
	CategoryHazardChange Category = "hazardChange"
	CategoryZoneBrief    Category = "zoneBrief"
)

// Categories lists every category in emission order.
var Categories = []Category{
	CategoryRumor,
	CategorySignage,
	CategoryWeather,
	CategoryZoneDanger,
	CategoryHazardChange,
	CategoryZoneBrief,
}

// DefaultCooldowns are the minimum gaps between two events of a category.
var DefaultCooldowns = map[Category]time.Duration{
	CategoryRumor:        30 * time.Second,
	CategorySignage:      45 * time.Second,
	CategoryWeather:      20 * time.Second,
	CategoryZoneDanger:   12 * time.Second,
	CategoryHazardChange: 15 * time.Second,
	CategoryZoneBrief:    60 * time.Second,
}

// FlagChange is one world flag that moved between snapshots.
type FlagChange struct {
	Flag     content.FlagKey   `json:"flag"`
	Previous content.FlagValue `json:"previous"`
	Current  content.FlagValue `json:"current"`
}

// Event is one ambient change. Only the fields of its category are set.
type Event struct {
	Category  Category  `json:"category"`
	Timestamp time.Time `json:"timestamp"`

	GroupID       string                    `json:"group_id,omitempty"`
	Lines         []string                  `json:"lines,omitempty"`
	SignID        string                    `json:"sign_id,omitempty"`
	Text          string                    `json:"text,omitempty"`
	StoryFunction environment.StoryFunction `json:"story_function,omitempty"`

	Weather *WeatherSnapshot `json:"weather,omitempty"`

	ZoneID         string       `json:"zone_id,omitempty"`
	ZoneName       string       `json:"zone_name,omitempty"`
	DangerRating   string       `json:"danger_rating,omitempty"`
	PreviousDanger string       `json:"previous_danger,omitempty"`
	FlagChanges    []FlagChange `json:"flag_changes,omitempty"`
	Added          []string     `json:"added,omitempty"`
	Removed        []string     `json:"removed,omitempty"`
	Hazards        []string     `json:"hazards,omitempty"`
	Summary        string       `json:"summary,omitempty"`
	Directives     []string     `json:"directives,omitempty"`
}

// Options configures a Tracker. Cooldowns override DefaultCooldowns per
// category; a zero override disables throttling for that category.
type Options struct {
	Cooldowns map[Category]time.Duration
}

// Tracker diffs successive snapshots. It is not safe for concurrent use.
type Tracker struct {
	cooldowns   map[Category]time.Duration
	previous    *Snapshot
	lastEmitted map[Category]time.Time
}

// New returns an unprimed tracker.
func New(opts Options) *Tracker {
	cooldowns := make(map[Category]time.Duration, len(DefaultCooldowns))
	for c, d := range DefaultCooldowns {
		cooldowns[c] = d
	}
	for c, d := range opts.Cooldowns {
		cooldowns[c] = d
	}
	return &Tracker{
		cooldowns:   cooldowns,
		lastEmitted: make(map[Category]time.Time),
	}
}

// Prime stores a copy of s as the baseline without emitting anything.
func (t *Tracker) Prime(s Snapshot) {
	c := s.Clone()
	t.previous = &c
}

// Primed reports whether the tracker has a baseline.
func (t *Tracker) Primed() bool {
	return t.previous != nil
}

// Reset drops the baseline and the emission history.
func (t *Tracker) Reset() {
	t.previous = nil
	t.lastEmitted = make(map[Category]time.Time)
}

// Collect diffs s against the baseline and returns the events whose
// category is out of cooldown. s always becomes the new baseline, so a
// change dropped by its cooldown is not reported later. Without a baseline
// Collect primes and returns nil.
func (t *Tracker) Collect(s Snapshot, now time.Time) []Event {
	if t.previous == nil {
		t.Prime(s)
		return nil
	}
	prev := *t.previous
	t.Prime(s)

	var out []Event
	for _, ev := range diff(prev, s, now) {
		if !t.allow(ev.Category, now) {
			continue
		}
		t.lastEmitted[ev.Category] = now
		out = append(out, ev)
	}
	return out
}

func (t *Tracker) allow(c Category, now time.Time) bool {
	last, ok := t.lastEmitted[c]
	if !ok {
		return true
	}
	return now.Sub(last) >= t.cooldowns[c]
}

// Brief returns a zoneBrief event describing s without diffing, for the
// first feed entry after priming.
func Brief(s Snapshot, now time.Time) Event {
	return Event{
		Category:     CategoryZoneBrief,
		Timestamp:    now,
		ZoneID:       s.Zone.ID,
		ZoneName:     s.Zone.Name,
		DangerRating: s.Zone.DangerRating,
		Hazards:      slices.Clone(s.Zone.Hazards),
		Summary:      s.Zone.Summary,
		Directives:   slices.Clone(s.Zone.Directives),
	}
}

func diff(prev, cur Snapshot, now time.Time) []Event {
	var out []Event

	if r := cur.Rumor; r != nil && len(r.Lines) > 0 {
		if p := prev.Rumor; p == nil || !p.UpdatedAt.Equal(r.UpdatedAt) || p.GroupID != r.GroupID || !slices.Equal(p.Lines, r.Lines) {
			out = append(out, Event{
				Category:      CategoryRumor,
				Timestamp:     now,
				GroupID:       r.GroupID,
				Lines:         slices.Clone(r.Lines),
				StoryFunction: r.StoryFunction,
			})
		}
	}

	if sg := cur.Signage; sg != nil && sg.Text != "" {
		if p := prev.Signage; p == nil || !p.UpdatedAt.Equal(sg.UpdatedAt) || p.SignID != sg.SignID || p.Text != sg.Text {
			out = append(out, Event{
				Category:      CategorySignage,
				Timestamp:     now,
				SignID:        sg.SignID,
				Text:          sg.Text,
				StoryFunction: sg.StoryFunction,
			})
		}
	}

	if weatherChanged(prev.Weather, cur.Weather) {
		w := cur.Weather
		out = append(out, Event{
			Category:      CategoryWeather,
			Timestamp:     now,
			StoryFunction: w.StoryFunction,
			Weather:       &w,
		})
	}

	changes := flagChanges(prev.Flags, cur.Flags)
	if prev.Zone.DangerRating != cur.Zone.DangerRating || len(changes) > 0 {
		out = append(out, Event{
			Category:       CategoryZoneDanger,
			Timestamp:      now,
			ZoneID:         cur.Zone.ID,
			ZoneName:       cur.Zone.Name,
			DangerRating:   cur.Zone.DangerRating,
			PreviousDanger: prev.Zone.DangerRating,
			FlagChanges:    changes,
		})
	}

	if added, removed := hazardDelta(prev.Zone.Hazards, cur.Zone.Hazards); len(added) > 0 || len(removed) > 0 {
		out = append(out, Event{
			Category:  CategoryHazardChange,
			Timestamp: now,
			ZoneID:    cur.Zone.ID,
			ZoneName:  cur.Zone.Name,
			Added:     added,
			Removed:   removed,
			Hazards:   slices.Clone(cur.Zone.Hazards),
		})
	}

	if prev.Zone.ID != cur.Zone.ID ||
		prev.Zone.Name != cur.Zone.Name ||
		prev.Zone.Summary != cur.Zone.Summary ||
		!slices.Equal(prev.Zone.Directives, cur.Zone.Directives) {
		out = append(out, Brief(cur, now))
	}
	return out
}

// weatherChanged also compares time of day, so nightfall under an
// unchanged preset still counts.
func weatherChanged(a, b WeatherSnapshot) bool {
	return a.PresetID != b.PresetID ||
		!a.UpdatedAt.Equal(b.UpdatedAt) ||
		a.RainIntensity != b.RainIntensity ||
		a.Thunder != b.Thunder ||
		a.TimeOfDay != b.TimeOfDay
}

var flagKeys = []content.FlagKey{
	content.FlagGangHeat,
	content.FlagCurfewLevel,
	content.FlagSupplyScarcity,
	content.FlagBlackoutTier,
}

func flagChanges(prev, cur environment.Flags) []FlagChange {
	var out []FlagChange
	for _, k := range flagKeys {
		p, c := content.CurrentValue(prev, k), content.CurrentValue(cur, k)
		if p != c {
			out = append(out, FlagChange{Flag: k, Previous: p, Current: c})
		}
	}
	return out
}

// hazardDelta compares hazard sets ignoring case and order. Both results
// are non-nil and keep the original spelling and order.
func hazardDelta(prev, cur []string) (added, removed []string) {
	key := func(h string) string { return strings.ToLower(strings.TrimSpace(h)) }
	had := make(map[string]bool, len(prev))
	for _, h := range prev {
		had[key(h)] = true
	}
	has := make(map[string]bool, len(cur))
	for _, h := range cur {
		has[key(h)] = true
	}

	added, removed = []string{}, []string{}
	for _, h := range cur {
		if k := key(h); !had[k] {
			had[k] = true
			added = append(added, h)
		}
	}
	for _, h := range prev {
		if k := key(h); !has[k] {
			has[k] = true
			removed = append(removed, h)
		}
	}
	return added, removed
}
