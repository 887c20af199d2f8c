package state

import (
	"fmt"

	"github.com/jwebster45206/world-reactor/pkg/actor"
	"github.com/jwebster45206/world-reactor/pkg/environment"
)

// Action is a requested world change. Triggers never mutate state
// directly; they dispatch actions which Apply folds into the state.
type Action interface {
	isAction()
}

// ApplyRumorSet replaces the chatter of an NPC group.
type ApplyRumorSet struct {
	GroupID string
	Set     RumorSet
}

// SetNPCAmbientProfile sets the ambient lines of every placed NPC with a
// matching dialogue id.
type SetNPCAmbientProfile struct {
	DialogueID string
	Profile    actor.AmbientProfile
}

// ApplyWeather applies a weather preset. An empty TimeOfDay keeps the
// current one.
type ApplyWeather struct {
	Weather WeatherState
}

// SetTimeOfDay advances the day cycle.
type SetTimeOfDay struct {
	TimeOfDay TimeOfDay
}

// ApplySignage changes the variant shown on a sign.
type ApplySignage struct {
	SignID  string
	Signage SignageState
}

// RegisterNote records a spawned note, replacing one with the same
// instance id.
type RegisterNote struct {
	Note NoteInstance
}

// AddMapItem drops an item on the current map.
type AddMapItem struct {
	Item MapItem
}

// AddLogMessage appends a line to the player log.
type AddLogMessage struct {
	Message string
}

// SetFlags replaces the world flags.
type SetFlags struct {
	Flags environment.Flags
}

// SetZone moves the player to a new zone.
type SetZone struct {
	Zone ZoneInfo
}

func (ApplyRumorSet) isAction()        {}
func (SetNPCAmbientProfile) isAction() {}
func (ApplyWeather) isAction()         {}
func (SetTimeOfDay) isAction()         {}
func (ApplySignage) isAction()         {}
func (RegisterNote) isAction()         {}
func (AddMapItem) isAction()           {}
func (AddLogMessage) isAction()        {}
func (SetFlags) isAction()             {}
func (SetZone) isAction()              {}

// Apply folds an action into the state.
func (gs *GameState) Apply(a Action) {
	switch a := a.(type) {
	case ApplyRumorSet:
		if gs.RumorSets == nil {
			gs.RumorSets = make(map[string]RumorSet)
		}
		gs.RumorSets[a.GroupID] = a.Set

	case SetNPCAmbientProfile:
		for i := range gs.NPCs {
			if gs.NPCs[i].ActorID() == a.DialogueID {
				gs.NPCs[i].AmbientProfile = a.Profile.Clone()
			}
		}

	case ApplyWeather:
		w := a.Weather
		if w.TimeOfDay == "" {
			w.TimeOfDay = gs.Weather.TimeOfDay
		}
		gs.Weather = w

	case SetTimeOfDay:
		gs.Weather.TimeOfDay = a.TimeOfDay

	case ApplySignage:
		if gs.Signage == nil {
			gs.Signage = make(map[string]SignageState)
		}
		gs.Signage[a.SignID] = a.Signage

	case RegisterNote:
		for i, n := range gs.Notes {
			if n.InstanceID == a.Note.InstanceID {
				gs.Notes[i] = a.Note
				return
			}
		}
		gs.Notes = append(gs.Notes, a.Note)

	case AddMapItem:
		gs.MapItems = append(gs.MapItems, a.Item)

	case AddLogMessage:
		gs.AddLog(a.Message)

	case SetFlags:
		gs.Flags = a.Flags

	case SetZone:
		gs.Zone = a.Zone

	default:
		panic(fmt.Sprintf("state: unhandled action %T", a))
	}
}
