package content

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ErrUnknownID is returned when content is requested by an id the catalog
// does not define.
var ErrUnknownID = errors.New("unknown content id")

// maxSuggestDistance caps how far a typo may be from a real id.
const maxSuggestDistance = 4

// Suggest returns the candidate closest to id by edit distance, or "" if
// nothing is close enough.
func Suggest(id string, candidates []string) string {
	best := ""
	bestDist := maxSuggestDistance + 1
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	for _, c := range sorted {
		d := levenshtein.ComputeDistance(strings.ToLower(id), strings.ToLower(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// UnknownID builds an ErrUnknownID error for kind/id with a suggestion.
func UnknownID(kind, id string, candidates []string) error {
	if s := Suggest(id, candidates); s != "" {
		return fmt.Errorf("%w: %s %q (did you mean %q?)", ErrUnknownID, kind, id, s)
	}
	return fmt.Errorf("%w: %s %q", ErrUnknownID, kind, id)
}
