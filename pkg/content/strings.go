package content

import (
	"fmt"
	"regexp"
)

// OutcomeText is the display text for one storylet outcome.
type OutcomeText struct {
	Narrative string `json:"narrative"`
	Epilogue  string `json:"epilogue,omitempty"`
	LogLine   string `json:"log_line,omitempty"`
}

// OutcomeStrings holds the base text and keyed variants of an outcome.
type OutcomeStrings struct {
	Base     OutcomeText            `json:"base"`
	Variants map[string]OutcomeText `json:"variants,omitempty"`
}

// Resolve returns the variant text when present, else the base text.
func (o OutcomeStrings) Resolve(variantKey string) OutcomeText {
	if variantKey == "" {
		return o.Base
	}
	if v, ok := o.Variants[variantKey]; ok {
		return v
	}
	return o.Base
}

// PlayStrings is the localized text for one storylet play.
type PlayStrings struct {
	Title    string                    `json:"title"`
	Synopsis string                    `json:"synopsis"`
	Roles    map[string]string         `json:"roles"`
	Outcomes map[string]OutcomeStrings `json:"outcomes"`
}

// SystemStrings are printf templates for world log lines.
type SystemStrings struct {
	RumorSwap     string `json:"rumor_swap"`
	WeatherShift  string `json:"weather_shift"`
	SignageSwap   string `json:"signage_swap"`
	NoteSpawned   string `json:"note_spawned"`
	NoteFallback  string `json:"note_fallback"`
	FoundNoteName string `json:"found_note_name"`
}

func (s SystemStrings) RumorSwapLine(description string) string {
	return fmt.Sprintf(s.RumorSwap, description)
}

func (s SystemStrings) WeatherShiftLine(description string) string {
	return fmt.Sprintf(s.WeatherShift, description)
}

func (s SystemStrings) SignageSwapLine(text string) string {
	return fmt.Sprintf(s.SignageSwap, text)
}

func (s SystemStrings) NoteSpawnedLine(description string) string {
	if description == "" {
		description = s.NoteFallback
	}
	return fmt.Sprintf(s.NoteSpawned, description)
}

// Strings is one locale's text table.
type Strings struct {
	Locale string                 `json:"locale"`
	Roles  map[string]string      `json:"roles"`
	Plays  map[string]PlayStrings `json:"plays"`
	Logs   map[string]string      `json:"logs"`
	System SystemStrings          `json:"system"`
}

// Play returns the text for a play id.
func (s *Strings) Play(id string) (PlayStrings, bool) {
	p, ok := s.Plays[id]
	return p, ok
}

// RoleName returns the play-specific role name, the generic role name, or
// the role id.
func (s *Strings) RoleName(playID, roleID string) string {
	if p, ok := s.Plays[playID]; ok {
		if name, ok := p.Roles[roleID]; ok {
			return name
		}
	}
	if name, ok := s.Roles[roleID]; ok {
		return name
	}
	return roleID
}

// Log returns the log text for key.
func (s *Strings) Log(key string) (string, bool) {
	l, ok := s.Logs[key]
	return l, ok
}

var templateToken = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// ApplyTemplate replaces {key} tokens from subs. Unknown tokens are kept.
func ApplyTemplate(template string, subs map[string]string) string {
	return templateToken.ReplaceAllStringFunc(template, func(tok string) string {
		key := tok[1 : len(tok)-1]
		if v, ok := subs[key]; ok {
			return v
		}
		return tok
	})
}
