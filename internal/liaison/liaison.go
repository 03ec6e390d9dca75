package liaison

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Separators of the directed and undirected key forms.
const (
	DirectedSep   = " → "
	UndirectedSep = " ↔ "
)

// Directed returns the directed key "dep → arr".
func Directed(dep, arr string) string {
	return dep + DirectedSep + arr
}

// Normalize orders the pair lexicographically and returns the undirected key
// together with the canonical left and right stations.
func Normalize(dep, arr string) (key, left, right string) {
	left, right = dep, arr
	if right < left {
		left, right = right, left
	}
	return left + UndirectedSep + right, left, right
}

// Key returns the grouping key for a station pair under the given mode. Every
// view that groups by liaison goes through here.
func Key(dep, arr string, bidirectional bool) string {
	if bidirectional {
		k, _, _ := Normalize(dep, arr)
		return k
	}
	return Directed(dep, arr)
}

// Endpoints splits a directed or undirected key back into its stations.
func Endpoints(key string) (left, right string, ok bool) {
	for _, sep := range []string{DirectedSep, UndirectedSep} {
		if l, r, found := strings.Cut(key, sep); found {
			return l, r, true
		}
	}
	return "", "", false
}

// Fold returns the lookup form of a station name: accents stripped, hyphens as
// spaces, typographic apostrophes straightened, uppercased, whitespace
// collapsed. It is only used to join coordinates, never for display.
func Fold(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, name)
	if err != nil {
		s = name
	}
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "’", "'")
	s = strings.ToUpper(s)
	return strings.Join(strings.Fields(s), " ")
}
