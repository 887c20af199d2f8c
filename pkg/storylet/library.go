package storylet

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jwebster45206/world-reactor/pkg/content"
)

// Library is the set of plays available to the engine, in content order.
type Library struct {
	plays []Play
	index map[string]int
}

// NewLibrary decodes and validates a JSON array of plays.
func NewLibrary(raw []byte) (*Library, error) {
	var plays []Play
	if err := json.Unmarshal(raw, &plays); err != nil {
		return nil, fmt.Errorf("failed to unmarshal storylets: %w", err)
	}

	lib := &Library{plays: plays, index: make(map[string]int, len(plays))}
	for i, p := range plays {
		if p.ID == "" {
			return nil, fmt.Errorf("storylet %d has no id", i)
		}
		if _, dup := lib.index[p.ID]; dup {
			return nil, fmt.Errorf("duplicate storylet id %q", p.ID)
		}
		if len(p.Branches) == 0 {
			return nil, fmt.Errorf("storylet %q has no branches", p.ID)
		}
		lib.index[p.ID] = i
	}
	return lib, nil
}

// FromCatalog builds the library from a content catalog.
func FromCatalog(c *content.Catalog) (*Library, error) {
	return NewLibrary(c.Storylets)
}

var defaultLibrary = sync.OnceValues(func() (*Library, error) {
	return FromCatalog(content.Default())
})

// Default returns the library from the embedded catalog.
func Default() *Library {
	lib, err := defaultLibrary()
	if err != nil {
		panic(fmt.Sprintf("embedded storylet library: %v", err))
	}
	return lib
}

// Plays returns the plays in content order. The slice is shared; do not
// modify it.
func (l *Library) Plays() []Play {
	return l.plays
}

// IDs returns the play ids in content order.
func (l *Library) IDs() []string {
	ids := make([]string, len(l.plays))
	for i, p := range l.plays {
		ids[i] = p.ID
	}
	return ids
}

// Play looks up a play by id.
func (l *Library) Play(id string) (Play, bool) {
	i, ok := l.index[id]
	if !ok {
		return Play{}, false
	}
	return l.plays[i], true
}

// Lookup is Play with an error that suggests the closest id.
func (l *Library) Lookup(id string) (Play, error) {
	if p, ok := l.Play(id); ok {
		return p, nil
	}
	return Play{}, content.UnknownID("storylet", id, l.IDs())
}

// MustPlay panics when id is unknown.
func (l *Library) MustPlay(id string) Play {
	p, err := l.Lookup(id)
	if err != nil {
		panic(err)
	}
	return p
}

// Branch looks up a branch within a play.
func (l *Library) Branch(playID, branchID string) (Branch, error) {
	p, err := l.Lookup(playID)
	if err != nil {
		return Branch{}, err
	}
	ids := make([]string, 0, len(p.Branches))
	for _, b := range p.Branches {
		if b.ID == branchID {
			return b, nil
		}
		ids = append(ids, b.ID)
	}
	return Branch{}, content.UnknownID("branch of "+playID, branchID, ids)
}
