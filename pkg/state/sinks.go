package state

import "fmt"

// AddLog appends a line to the player log, dropping the oldest lines past
// MaxLogEntries.
func (gs *GameState) AddLog(msg string) {
	if msg == "" {
		return
	}
	gs.Log = append(gs.Log, msg)
	if over := len(gs.Log) - MaxLogEntries; over > 0 {
		gs.Log = append(gs.Log[:0], gs.Log[over:]...)
	}
}

// AdjustFactionReputation shifts standing with a faction and returns the new
// value.
func (gs *GameState) AdjustFactionReputation(factionID string, delta int) int {
	if gs.FactionReputation == nil {
		gs.FactionReputation = make(map[string]int)
	}
	gs.FactionReputation[factionID] += delta
	return gs.FactionReputation[factionID]
}

// UpdateHealth applies a health delta to the player and returns the new HP.
func (gs *GameState) UpdateHealth(delta int, allowKO bool) (int, error) {
	if gs.Player == nil || gs.Player.Spec == nil {
		return 0, fmt.Errorf("no player in game state")
	}
	return gs.Player.ApplyHealthDelta(delta, allowKO)
}

// AdjustPersonalityTrait shifts a player trait and returns the new score.
func (gs *GameState) AdjustPersonalityTrait(trait string, delta int) (int, error) {
	if gs.Player == nil || gs.Player.Spec == nil {
		return 0, fmt.Errorf("no player in game state")
	}
	return gs.Player.AdjustTrait(trait, delta), nil
}
