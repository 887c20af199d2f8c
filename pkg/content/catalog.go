// Package content loads the ambient world content and locale text the
// engine draws from. The default catalog is embedded; a directory with the
// same layout can replace it.
package content

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/world-reactor/pkg/environment"
)

//go:embed data
var embedded embed.FS

// DefaultLocale is used when nothing better matches.
const DefaultLocale = "en"

const (
	rumorsFile    = "rumors.json"
	weatherFile   = "weather.json"
	signageFile   = "signage.json"
	notesFile     = "notes.json"
	groupsFile    = "npc_groups.json"
	storyletsFile = "storylets.json"
	localesDir    = "locales"
)

// Catalog is the full content set. Treat it as read-only once loaded.
type Catalog struct {
	Rumors  []RumorRotation
	Weather []WeatherPreset
	Signage []SignageVariant
	Notes   []NoteDefinition
	// NPCGroups maps a rumor group to the dialogue ids that echo it.
	NPCGroups map[string][]string
	// Storylets is the raw play library, decoded by the storylet package.
	Storylets json.RawMessage

	locales map[string]*Strings
	tags    []language.Tag
	matcher language.Matcher
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return LoadFS(embeddedFS())
})

func embeddedFS() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

// Default returns the embedded catalog. It panics if the embedded data is
// malformed, which can only happen through a bad build.
func Default() *Catalog {
	c, err := defaultCatalog()
	if err != nil {
		panic(fmt.Sprintf("embedded content catalog: %v", err))
	}
	return c
}

// Load reads a catalog from dir, or returns the embedded one when dir is "".
func Load(dir string) (*Catalog, error) {
	if dir == "" {
		return defaultCatalog()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open content dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content path is not a directory: %s", dir)
	}
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads a catalog from fsys.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{}

	if err := readJSON(fsys, rumorsFile, &c.Rumors); err != nil {
		return nil, err
	}
	if err := readJSON(fsys, weatherFile, &c.Weather); err != nil {
		return nil, err
	}
	if err := readJSON(fsys, signageFile, &c.Signage); err != nil {
		return nil, err
	}
	if err := readJSON(fsys, notesFile, &c.Notes); err != nil {
		return nil, err
	}
	if err := readJSON(fsys, groupsFile, &c.NPCGroups); err != nil {
		return nil, err
	}

	raw, err := fs.ReadFile(fsys, storyletsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", storyletsFile, err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%s contains invalid JSON", storyletsFile)
	}
	c.Storylets = raw

	if err := c.loadLocales(fsys); err != nil {
		return nil, err
	}
	return c, nil
}

func readJSON(fsys fs.FS, name string, v any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}
	return nil
}

func (c *Catalog) loadLocales(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, localesDir)
	if err != nil {
		return fmt.Errorf("failed to list locales: %w", err)
	}

	c.locales = make(map[string]*Strings)
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		var s Strings
		if err := readJSON(fsys, path.Join(localesDir, e.Name()), &s); err != nil {
			return err
		}
		if s.Locale == "" {
			s.Locale = strings.TrimSuffix(e.Name(), ".json")
		}
		c.locales[s.Locale] = &s
	}
	if _, ok := c.locales[DefaultLocale]; !ok {
		return fmt.Errorf("locale %q is required", DefaultLocale)
	}

	// The matcher falls back to its first tag, so the default goes first.
	names := c.Locales()
	c.tags = make([]language.Tag, 0, len(names))
	c.tags = append(c.tags, language.Make(DefaultLocale))
	for _, name := range names {
		if name != DefaultLocale {
			c.tags = append(c.tags, language.Make(name))
		}
	}
	c.matcher = language.NewMatcher(c.tags)
	return nil
}

// Locales lists the loaded locale codes, sorted.
func (c *Catalog) Locales() []string {
	names := make([]string, 0, len(c.locales))
	for name := range c.locales {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MatchLocale picks the closest loaded locale for a requested one, such as
// "en-GB" for "en".
func (c *Catalog) MatchLocale(requested string) string {
	if _, ok := c.locales[requested]; ok {
		return requested
	}
	tag, err := language.Parse(requested)
	if err != nil {
		return DefaultLocale
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No {
		return DefaultLocale
	}
	base, _ := c.tags[idx].Base()
	if _, ok := c.locales[base.String()]; ok {
		return base.String()
	}
	return DefaultLocale
}

// Strings returns the text table for the closest matching locale.
func (c *Catalog) Strings(locale string) *Strings {
	return c.locales[c.MatchLocale(locale)]
}

// RumorsFor returns the rotations for a gang heat level in catalog order.
func (c *Catalog) RumorsFor(level environment.GangHeatLevel) []RumorRotation {
	var out []RumorRotation
	for _, r := range c.Rumors {
		if r.Flag == FlagGangHeat && r.Value == FlagValue(level) {
			out = append(out, r)
		}
	}
	return out
}

// WeatherFor returns the first preset keyed on flag=value.
func (c *Catalog) WeatherFor(flag FlagKey, value FlagValue) (WeatherPreset, bool) {
	for _, w := range c.Weather {
		if w.Flag == flag && w.Value == value {
			return w, true
		}
	}
	return WeatherPreset{}, false
}

// SignageFor returns the variants keyed on flag=value.
func (c *Catalog) SignageFor(flag FlagKey, value FlagValue) []SignageVariant {
	var out []SignageVariant
	for _, s := range c.Signage {
		if s.Flag == flag && s.Value == value {
			out = append(out, s)
		}
	}
	return out
}

// NotesFor returns the note definitions keyed on flag=value.
func (c *Catalog) NotesFor(flag FlagKey, value FlagValue) []NoteDefinition {
	var out []NoteDefinition
	for _, n := range c.Notes {
		if n.Flag == flag && n.Value == value {
			out = append(out, n)
		}
	}
	return out
}

// Group returns the dialogue ids for a rumor group.
func (c *Catalog) Group(id string) ([]string, bool) {
	g, ok := c.NPCGroups[id]
	return g, ok
}

// FallbackTitle turns an id like "firelight_ambush" into "Firelight Ambush".
func FallbackTitle(id string) string {
	return cases.Title(language.English).String(strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(id))
}
