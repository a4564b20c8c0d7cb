// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package epg

import (
	"regexp"
	"sort"
	"strings"

	unorm "golang.org/x/text/unicode/norm"
)

// resolveMaxDistance is the edit distance tolerated by the fuzzy step of Resolve.
const resolveMaxDistance = 2

var (
	suffix = regexp.MustCompile(`\s+(hd|fhd|uhd|4k|sd|hevc|orig|\+\d)$`)
	space  = regexp.MustCompile(`\s+`)
)

func normalize(s string) string {
	s = unorm.NFC.String(s)
	s = strings.ToLower(strings.TrimSpace(s))
	// lowercasing may leave decomposed sequences
	s = unorm.NFC.String(s)
	s = strings.ReplaceAll(s, "ё", "е")

	// strip repeatedly: "Channel HD 4K"
	for {
		before := s
		s = suffix.ReplaceAllString(s, "")
		if s == before {
			break
		}
	}

	s = space.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NameKey generates a normalized key from a channel name for matching.
func NameKey(s string) string { return normalize(s) }

// Resolve finds the programme list key for a playlist channel. It tries, in
// order: tvgID, tvgName and title as literal keys; the display names indexed
// under tvgID; normalized names; and finally a bounded fuzzy match.
func (g *Guide) Resolve(tvgID, tvgName, title string) (string, bool) {
	if g == nil || len(g.Programmes) == 0 {
		return "", false
	}
	for _, k := range []string{tvgID, tvgName, title} {
		if k == "" {
			continue
		}
		if _, ok := g.Programmes[k]; ok {
			return k, true
		}
	}
	if tvgID != "" {
		for _, alias := range g.Names[tvgID] {
			if _, ok := g.Programmes[alias]; ok {
				return alias, true
			}
		}
	}

	index := g.nameIndex()
	for _, name := range []string{tvgName, title} {
		if name == "" {
			continue
		}
		if key, ok := index[NameKey(name)]; ok {
			return key, true
		}
	}
	for _, name := range []string{tvgName, title} {
		if len([]rune(NameKey(name))) <= resolveMaxDistance*2 {
			continue
		}
		if key, ok := FindBest(name, index, resolveMaxDistance); ok {
			return key, true
		}
	}
	return "", false
}

// nameIndex maps normalized programme keys to the keys themselves. When two
// keys normalize alike the lexically smaller wins.
func (g *Guide) nameIndex() map[string]string {
	keys := make([]string, 0, len(g.Programmes))
	for k := range g.Programmes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	index := make(map[string]string, len(keys))
	for _, k := range keys {
		nk := NameKey(k)
		if nk == "" {
			continue
		}
		if _, taken := index[nk]; !taken {
			index[nk] = k
		}
	}
	return index
}

// FindBest returns the value of the nameToID entry whose key is closest to
// the normalized name, within maxDist edits. Ties go to the lexically
// smallest key.
func FindBest(name string, nameToID map[string]string, maxDist int) (string, bool) {
	key := NameKey(name)
	if key == "" {
		return "", false
	}
	if id, ok := nameToID[key]; ok {
		return id, true
	}

	keys := make([]string, 0, len(nameToID))
	for k := range nameToID {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bestID := ""
	bestDist := maxDist + 1
	for _, k := range keys {
		if dist := levenshtein(key, k); dist < bestDist {
			bestDist = dist
			bestID = nameToID[k]
		}
	}

	if bestDist <= maxDist {
		return bestID, true
	}
	return "", false
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
