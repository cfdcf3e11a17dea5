package identity

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// MinCollegeSimilarity is the Jaro-Winkler score below which a fuzzy college
// match is rejected.
const MinCollegeSimilarity = 0.92

type College struct {
	Name   string
	Clean  string
	NcaaID int
	Extra  map[string]string
}

// CollegeIndex resolves free-text college names from coach bios.
type CollegeIndex struct {
	byID   map[int]College
	byName map[string]College
	byKey  map[string]College
	keys   []string
}

func NewCollegeIndex(colleges []College) *CollegeIndex {
	idx := &CollegeIndex{
		byID:   make(map[int]College),
		byName: make(map[string]College),
		byKey:  make(map[string]College),
	}
	for _, c := range colleges {
		name := strings.TrimSpace(c.Name)
		if c.NcaaID != 0 {
			if _, ok := idx.byID[c.NcaaID]; !ok {
				idx.byID[c.NcaaID] = c
			}
		}
		if _, ok := idx.byName[name]; !ok {
			idx.byName[name] = c
		}
		key := NormalizeKey(name)
		if _, ok := idx.byKey[key]; !ok && key != "" {
			idx.byKey[key] = c
			idx.keys = append(idx.keys, key)
		}
	}
	return idx
}

func (idx *CollegeIndex) ByID(id int) (College, bool) {
	c, ok := idx.byID[id]
	return c, ok
}

// Has reports an exact (trimmed) name match.
func (idx *CollegeIndex) Has(name string) bool {
	_, ok := idx.byName[strings.TrimSpace(name)]
	return ok
}

// Match tries the exact name, then the normalized name, then the closest
// Jaro-Winkler candidate at or above MinCollegeSimilarity.
func (idx *CollegeIndex) Match(name string) (College, float64, bool) {
	name = strings.TrimSpace(name)
	if c, ok := idx.byName[name]; ok {
		return c, 1, true
	}
	key := NormalizeKey(name)
	if key == "" {
		return College{}, 0, false
	}
	if c, ok := idx.byKey[key]; ok {
		return c, 1, true
	}

	best, bestScore := "", 0.0
	for _, k := range idx.keys {
		score := matchr.JaroWinkler(key, k, false)
		if score > bestScore {
			best, bestScore = k, score
		}
	}
	if bestScore >= MinCollegeSimilarity {
		return idx.byKey[best], bestScore, true
	}
	return College{}, bestScore, false
}
