// Package worldtriggers builds the default world triggers from the content
// catalog: rumor rotations, weather presets, signage variants and
// environmental notes, each keyed on a world flag.
package worldtriggers

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/world-reactor/pkg/actor"
	"github.com/jwebster45206/world-reactor/pkg/content"
	"github.com/jwebster45206/world-reactor/pkg/environment"
	"github.com/jwebster45206/world-reactor/pkg/state"
	"github.com/jwebster45206/world-reactor/pkg/trigger"
)

type (
	Trigger  = trigger.Trigger[*state.GameState, state.Action]
	Registry = trigger.Registry[*state.GameState, state.Action]
	Context  = trigger.Context[*state.GameState, state.Action]
)

// NewRegistry returns an empty registry over game state.
func NewRegistry() *Registry {
	return trigger.NewRegistry[*state.GameState, state.Action]()
}

const (
	rumorCooldown   = time.Second
	weatherCooldown = 2 * time.Second
	signageCooldown = 4 * time.Second
	noteCooldown    = 5 * time.Second
)

// Trigger id prefixes.
const (
	RumorPrefix           = "environment.rumor."
	CurfewWeatherPrefix   = "environment.weather.curfew."
	GangHeatWeatherPrefix = "environment.weather.gangHeat."
	SignagePrefix         = "environment.signage."
	NotePrefix            = "environment.notes."
)

// Build returns the default triggers in registration order: rumors,
// weather, signage, notes.
func Build(c *content.Catalog) []Trigger {
	var out []Trigger
	out = append(out, rumorTriggers(c)...)
	out = append(out, weatherTriggers(c)...)
	out = append(out, signageTriggers(c)...)
	out = append(out, noteTriggers(c)...)
	return out
}

// Register adds the default triggers to reg.
func Register(reg *Registry, c *content.Catalog) {
	reg.RegisterMany(Build(c))
}

// RegisterDefaults registers the default triggers unless reg already holds
// all of them, so repeated setup does not reset their cooldowns. It
// reports whether anything was registered.
func RegisterDefaults(reg *Registry, c *content.Catalog) bool {
	triggers := Build(c)
	missing := false
	for _, t := range triggers {
		if !reg.Has(t.ID) {
			missing = true
			break
		}
	}
	if !missing {
		return false
	}
	for _, t := range triggers {
		if !reg.Has(t.ID) {
			reg.Register(t)
		}
	}
	return true
}

func systemStrings(c *content.Catalog, gs *state.GameState) content.SystemStrings {
	return c.Strings(gs.Locale).System
}

func rumorTriggers(c *content.Catalog) []Trigger {
	var out []Trigger
	for _, level := range environment.AllGangHeatLevels {
		for _, rotation := range c.RumorsFor(level) {
			out = append(out, Trigger{
				ID:          RumorPrefix + rotation.ID,
				Description: rotation.Description,
				Cooldown:    rumorCooldown,
				When: func(gs *state.GameState) bool {
					if gs.Flags.GangHeat != level {
						return false
					}
					if _, ok := c.Group(rotation.GroupID); !ok {
						return false
					}
					current, ok := gs.RumorSets[rotation.GroupID]
					return !ok || current.SourceID != rotation.ID
				},
				Fire: func(ctx Context) {
					gs := ctx.GetState()
					ctx.Dispatch(state.ApplyRumorSet{
						GroupID: rotation.GroupID,
						Set: state.RumorSet{
							Lines:         clone(rotation.Lines),
							StoryFunction: rotation.StoryFunction,
							SourceID:      rotation.ID,
							UpdatedAt:     ctx.Now,
						},
					})

					members, _ := c.Group(rotation.GroupID)
					for _, dialogueID := range members {
						ctx.Dispatch(state.SetNPCAmbientProfile{
							DialogueID: dialogueID,
							Profile: actor.AmbientProfile{
								Lines:         clone(rotation.Lines),
								StoryFunction: rotation.StoryFunction,
								SourceID:      rotation.ID,
								UpdatedAt:     ctx.Now,
							},
						})
					}
					ctx.Dispatch(state.AddLogMessage{Message: systemStrings(c, gs).RumorSwapLine(rotation.Description)})
				},
			})
		}
	}
	return out
}

func weatherState(p content.WeatherPreset, now time.Time) state.WeatherState {
	return state.WeatherState{
		PresetID:      p.ID,
		Description:   p.Description,
		RainIntensity: p.RainIntensity,
		Thunder:       p.Thunder,
		SirenLoop:     p.SirenLoop,
		StoryFunction: p.StoryFunction,
		UpdatedAt:     now,
	}
}

// gangHeatOverride returns the gang heat weather preset that replaces the
// curfew preset for flags. Curfew lockdown always keeps its own weather.
func gangHeatOverride(c *content.Catalog, flags environment.Flags) (content.WeatherPreset, bool) {
	if flags.CurfewLevel >= environment.MaxCurfewLevel {
		return content.WeatherPreset{}, false
	}
	if flags.GangHeat != environment.GangHeatMed && flags.GangHeat != environment.GangHeatHigh {
		return content.WeatherPreset{}, false
	}
	return c.WeatherFor(content.FlagGangHeat, content.FlagValue(flags.GangHeat))
}

// desiredWeather is the preset flags call for.
func desiredWeather(c *content.Catalog, flags environment.Flags) (content.WeatherPreset, bool) {
	if p, ok := gangHeatOverride(c, flags); ok {
		return p, true
	}
	return c.WeatherFor(content.FlagCurfewLevel, content.CurfewValue(flags.CurfewLevel))
}

// fireWeather applies whatever the live flags call for. Earlier triggers in
// the same tick may have moved them since When ran.
func fireWeather(c *content.Catalog) func(Context) {
	return func(ctx Context) {
		gs := ctx.GetState()
		preset, ok := desiredWeather(c, gs.Flags)
		if !ok || gs.Weather.PresetID == preset.ID {
			return
		}
		ctx.Dispatch(state.ApplyWeather{Weather: weatherState(preset, ctx.Now)})
		ctx.Dispatch(state.AddLogMessage{Message: systemStrings(c, gs).WeatherShiftLine(preset.Description)})
	}
}

func weatherTriggers(c *content.Catalog) []Trigger {
	var out []Trigger
	for level := 0; level <= environment.MaxCurfewLevel; level++ {
		preset, ok := c.WeatherFor(content.FlagCurfewLevel, content.CurfewValue(level))
		if !ok {
			continue
		}
		out = append(out, Trigger{
			ID:          CurfewWeatherPrefix + preset.ID,
			Description: preset.Description,
			Cooldown:    weatherCooldown,
			When: func(gs *state.GameState) bool {
				if gs.Flags.CurfewLevel != level || gs.Weather.PresetID == preset.ID {
					return false
				}
				_, overridden := gangHeatOverride(c, gs.Flags)
				return !overridden
			},
			Fire: fireWeather(c),
		})
	}

	for _, heat := range []environment.GangHeatLevel{environment.GangHeatMed, environment.GangHeatHigh} {
		preset, ok := c.WeatherFor(content.FlagGangHeat, content.FlagValue(heat))
		if !ok {
			continue
		}
		out = append(out, Trigger{
			ID:          GangHeatWeatherPrefix + preset.ID,
			Description: preset.Description,
			Cooldown:    weatherCooldown,
			When: func(gs *state.GameState) bool {
				if gs.Flags.GangHeat != heat || gs.Flags.CurfewLevel >= environment.MaxCurfewLevel {
					return false
				}
				return gs.Weather.PresetID != preset.ID
			},
			Fire: fireWeather(c),
		})
	}
	return out
}

func signageTriggers(c *content.Catalog) []Trigger {
	var values []content.FlagMatch
	for _, tier := range environment.AllBlackoutTiers {
		values = append(values, content.FlagMatch{Flag: content.FlagBlackoutTier, Value: content.FlagValue(tier)})
	}
	for _, supply := range environment.AllSupplyLevels {
		values = append(values, content.FlagMatch{Flag: content.FlagSupplyScarcity, Value: content.FlagValue(supply)})
	}

	var out []Trigger
	for _, match := range values {
		for _, variant := range c.SignageFor(match.Flag, match.Value) {
			out = append(out, Trigger{
				ID:          SignagePrefix + variant.ID,
				Description: variant.Description,
				Cooldown:    signageCooldown,
				When: func(gs *state.GameState) bool {
					if !match.Matches(gs.Flags) {
						return false
					}
					current, ok := gs.Signage[variant.SignID]
					return !ok || current.VariantID != variant.ID
				},
				Fire: func(ctx Context) {
					gs := ctx.GetState()
					ctx.Dispatch(state.ApplySignage{
						SignID: variant.SignID,
						Signage: state.SignageState{
							VariantID:     variant.ID,
							Text:          variant.Text,
							StoryFunction: variant.StoryFunction,
							UpdatedAt:     ctx.Now,
						},
					})
					ctx.Dispatch(state.AddLogMessage{Message: systemStrings(c, gs).SignageSwapLine(variant.Text)})
				},
			})
		}
	}
	return out
}

func noteTriggers(c *content.Catalog) []Trigger {
	var values []content.FlagMatch
	for _, supply := range environment.AllSupplyLevels {
		values = append(values, content.FlagMatch{Flag: content.FlagSupplyScarcity, Value: content.FlagValue(supply)})
	}
	for level := 0; level <= environment.MaxCurfewLevel; level++ {
		values = append(values, content.FlagMatch{Flag: content.FlagCurfewLevel, Value: content.CurfewValue(level)})
	}
	for _, heat := range environment.AllGangHeatLevels {
		values = append(values, content.FlagMatch{Flag: content.FlagGangHeat, Value: content.FlagValue(heat)})
	}

	var out []Trigger
	for _, match := range values {
		for _, def := range c.NotesFor(match.Flag, match.Value) {
			out = append(out, Trigger{
				ID:          NotePrefix + def.ID,
				Description: def.Description,
				Cooldown:    noteCooldown,
				When: func(gs *state.GameState) bool {
					return match.Matches(gs.Flags) && !gs.HasNoteDefinition(def.ID)
				},
				Fire: func(ctx Context) {
					gs := ctx.GetState()
					strs := systemStrings(c, gs)

					ctx.Dispatch(state.RegisterNote{Note: state.NoteInstance{
						InstanceID:    NoteInstanceID(def.ID),
						DefinitionID:  def.ID,
						AreaID:        gs.Zone.ID,
						Lines:         clone(def.Lines),
						StoryFunction: def.StoryFunction,
						SpawnedAt:     ctx.Now,
					}})

					name := strs.FoundNoteName
					if name == "" {
						name = "Found Note"
					}
					ctx.Dispatch(state.AddMapItem{Item: state.MapItem{
						ID:          fmt.Sprintf("env-note-item::%s::%s", def.ID, uuid.NewString()),
						Name:        name,
						Description: strings.Join(def.Lines, " / "),
						Position:    notePosition(def, gs.PlayerPosition()),
					}})
					ctx.Dispatch(state.AddLogMessage{Message: strs.NoteSpawnedLine(def.Description)})
				},
			})
		}
	}
	return out
}

// NoteInstanceID is the instance id of the note spawned from definition id.
func NoteInstanceID(definitionID string) string {
	return "env-note::" + definitionID
}

// notePosition is the definition's fixed position, else the tile just
// north of the player.
func notePosition(def content.NoteDefinition, player actor.Position) actor.Position {
	if def.Position != nil {
		return actor.Position{X: def.Position.X, Y: def.Position.Y}
	}
	return actor.Position{X: max(0, player.X), Y: max(0, player.Y-1)}
}

func clone(lines []string) []string {
	return append([]string(nil), lines...)
}
