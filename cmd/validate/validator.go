package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jwebster45206/world-reactor/pkg/content"
	"github.com/jwebster45206/world-reactor/pkg/environment"
	"github.com/jwebster45206/world-reactor/pkg/storylet"
)

// CatalogValidator collects problems across a whole catalog instead of
// stopping at the first one.
type CatalogValidator struct {
	errors   []string
	warnings []string
}

func (v *CatalogValidator) errorf(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *CatalogValidator) warnf(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

// Err joins every collected error, or returns nil.
func (v *CatalogValidator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}
	return errors.New("validation errors:\n" + strings.Join(v.errors, "\n"))
}

// Validate checks c and records what it finds.
func (v *CatalogValidator) Validate(c *content.Catalog) {
	v.validateEnvironment(c)
	v.validateSystemStrings(c)

	lib, err := storylet.FromCatalog(c)
	if err != nil {
		v.errorf("storylets: %v", err)
		return
	}
	for _, p := range lib.Plays() {
		v.validatePlay(c, p)
	}
}

func (v *CatalogValidator) validateEnvironment(c *content.Catalog) {
	ids := make(map[string]string)
	unique := func(kind, id string) {
		if id == "" {
			v.errorf("%s with empty id", kind)
			return
		}
		if prev, dup := ids[id]; dup {
			v.errorf("duplicate id %q (%s and %s)", id, prev, kind)
			return
		}
		ids[id] = kind
	}

	groups := make([]string, 0, len(c.NPCGroups))
	for g := range c.NPCGroups {
		groups = append(groups, g)
	}

	for _, r := range c.Rumors {
		unique("rumor", r.ID)
		v.validateFlagMatch("rumor "+r.ID, r.FlagMatch)
		if r.Flag != content.FlagGangHeat {
			v.errorf("rumor %s: keyed on %s, rumors rotate on %s", r.ID, r.Flag, content.FlagGangHeat)
		}
		if _, ok := c.Group(r.GroupID); !ok {
			v.errorf("rumor %s: %v", r.ID, content.UnknownID("npc group", r.GroupID, groups))
		}
		if len(r.Lines) == 0 {
			v.errorf("rumor %s: no lines", r.ID)
		}
	}

	for _, w := range c.Weather {
		unique("weather preset", w.ID)
		v.validateFlagMatch("weather "+w.ID, w.FlagMatch)
		if w.RainIntensity < 0 {
			v.errorf("weather %s: negative rain intensity", w.ID)
		}
	}
	for level := 0; level <= environment.MaxCurfewLevel; level++ {
		if _, ok := c.WeatherFor(content.FlagCurfewLevel, content.CurfewValue(level)); !ok {
			v.warnf("no weather preset for curfew level %d", level)
		}
	}

	for _, s := range c.Signage {
		unique("signage variant", s.ID)
		v.validateFlagMatch("signage "+s.ID, s.FlagMatch)
		if s.SignID == "" {
			v.errorf("signage %s: no sign id", s.ID)
		}
		if s.Text == "" {
			v.errorf("signage %s: no text", s.ID)
		}
	}

	for _, n := range c.Notes {
		unique("note", n.ID)
		v.validateFlagMatch("note "+n.ID, n.FlagMatch)
		if len(n.Lines) == 0 {
			v.errorf("note %s: no lines", n.ID)
		}
		if n.Position == nil {
			v.warnf("note %s: no position, it will drop beside the player", n.ID)
		}
	}
}

func (v *CatalogValidator) validateFlagMatch(where string, m content.FlagMatch) {
	var allowed []content.FlagValue
	switch m.Flag {
	case content.FlagGangHeat:
		for _, l := range environment.AllGangHeatLevels {
			allowed = append(allowed, content.FlagValue(l))
		}
	case content.FlagCurfewLevel:
		for l := 0; l <= environment.MaxCurfewLevel; l++ {
			allowed = append(allowed, content.CurfewValue(l))
		}
	case content.FlagSupplyScarcity:
		for _, l := range environment.AllSupplyLevels {
			allowed = append(allowed, content.FlagValue(l))
		}
	case content.FlagBlackoutTier:
		for _, l := range environment.AllBlackoutTiers {
			allowed = append(allowed, content.FlagValue(l))
		}
	default:
		v.errorf("%s: unknown flag %q", where, m.Flag)
		return
	}
	if !slices.Contains(allowed, m.Value) {
		v.errorf("%s: %q is not a valid %s value", where, m.Value, m.Flag)
	}
}

func (v *CatalogValidator) validateSystemStrings(c *content.Catalog) {
	for _, locale := range c.Locales() {
		sys := c.Strings(locale).System
		templates := map[string]string{
			"rumor_swap":    sys.RumorSwap,
			"weather_shift": sys.WeatherShift,
			"signage_swap":  sys.SignageSwap,
			"note_spawned":  sys.NoteSpawned,
		}
		for key, tmpl := range templates {
			if strings.Count(tmpl, "%s") != 1 {
				v.errorf("locale %s: system.%s must contain exactly one %%s", locale, key)
			}
		}
		if sys.NoteFallback == "" || sys.FoundNoteName == "" {
			v.warnf("locale %s: note fallback text is empty", locale)
		}
	}
}

func (v *CatalogValidator) validatePlay(c *content.Catalog, p storylet.Play) {
	where := "storylet " + p.ID

	roles := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		if slices.Contains(roles, r.ID) {
			v.errorf("%s: duplicate role %q", where, r.ID)
		}
		roles = append(roles, r.ID)
	}
	if len(p.Triggers) == 0 {
		v.warnf("%s: no triggers, it can never fire", where)
	}

	branches := make(map[string]bool, len(p.Branches))
	for _, b := range p.Branches {
		bw := where + " branch " + b.ID
		if branches[b.ID] {
			v.errorf("%s: duplicate branch id", bw)
		}
		branches[b.ID] = true
		if b.EffectiveWeight() <= 0 {
			v.warnf("%s: weight %.2f, it can never be chosen", bw, b.EffectiveWeight())
		}

		for _, cond := range b.Conditions {
			if role, ok := storylet.RoleRef(cond); ok && !slices.Contains(roles, role) {
				v.errorf("%s: condition %v", bw, content.UnknownID("role", role, roles))
			}
		}

		for _, e := range b.Outcome.Effects {
			switch e := e.(type) {
			case storylet.TraitEffect:
				if !e.Target.IsPlayer() && !slices.Contains(roles, e.Target.RoleID) {
					v.errorf("%s: trait effect %v", bw, content.UnknownID("role", e.Target.RoleID, roles))
				}
			case storylet.LogEffect:
				v.validateLogKey(c, bw, e.LogKey)
			}
		}
	}

	for _, locale := range c.Locales() {
		strs := c.Strings(locale)
		ps, ok := strs.Play(p.ID)
		if !ok {
			v.errorf("%s: no %s text", where, locale)
			continue
		}
		if ps.Title == "" {
			v.warnf("%s: no %s title", where, locale)
		}
		for _, b := range p.Branches {
			out, ok := ps.Outcomes[b.ID]
			if !ok {
				v.errorf("%s branch %s: no %s outcome text", where, b.ID, locale)
				continue
			}
			if out.Base.Narrative == "" {
				v.errorf("%s branch %s: empty %s narrative", where, b.ID, locale)
			}
			if key := b.Outcome.VariantKey; key != "" {
				if _, ok := out.Variants[key]; !ok {
					v.warnf("%s branch %s: no %s variant %q, base text is used", where, b.ID, locale, key)
				}
			}
		}
		for id := range ps.Outcomes {
			if !branches[id] {
				branchIDs := make([]string, 0, len(branches))
				for b := range branches {
					branchIDs = append(branchIDs, b)
				}
				v.errorf("%s: %s text %v", where, locale, content.UnknownID("branch", id, branchIDs))
			}
		}
	}
}

func (v *CatalogValidator) validateLogKey(c *content.Catalog, where, key string) {
	for _, locale := range c.Locales() {
		strs := c.Strings(locale)
		if _, ok := strs.Log(key); ok {
			continue
		}
		keys := make([]string, 0, len(strs.Logs))
		for k := range strs.Logs {
			keys = append(keys, k)
		}
		v.errorf("%s: %s log %v", where, locale, content.UnknownID("log key", key, keys))
	}
}
