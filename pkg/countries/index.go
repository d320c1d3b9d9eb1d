// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package countries builds searchable name variants for ISO 3166-1 alpha-2
// codes, used by the offer location search. English and French display names
// come from the CLDR data embedded in x/text, plus a small manual alias table
// for abbreviations users actually type.
package countries

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var extraAliases = map[string][]string{
	"US": {"usa", "amérique"},
	"GB": {"uk", "angleterre"},
	"AE": {"dubai", "émirats"},
}

// Index maps an alpha-2 code to its lower-cased search strings. Immutable
// after construction.
type Index struct {
	names map[string][]string
	codes []string
}

var (
	buildOnce    sync.Once
	defaultIndex *Index
)

// Default returns the process-wide index, built once from static reference
// data. Rebuilt only on process restart.
func Default() *Index {
	buildOnce.Do(func() {
		defaultIndex = NewIndex()
	})
	return defaultIndex
}

func NewIndex() *Index {
	english := display.English.Regions()
	french := display.French.Regions()

	ix := &Index{names: make(map[string][]string)}

	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			code := string(a) + string(b)

			region, err := language.ParseRegion(code)
			if err != nil || !region.IsCountry() {
				continue
			}
			// Parsing canonicalizes aliases (UK -> GB, BU -> MM), skip
			// them so every entry is keyed by its canonical code.
			if region.String() != code {
				continue
			}

			names := []string{strings.ToLower(code)}
			if name := strings.ToLower(english.Name(region)); name != "" {
				names = append(names, name)
			}
			if name := strings.ToLower(french.Name(region)); name != "" && name != names[len(names)-1] {
				names = append(names, name)
			}
			names = append(names, extraAliases[code]...)

			ix.names[code] = names
			ix.codes = append(ix.codes, code)
		}
	}

	sort.Strings(ix.codes)
	return ix
}

// SearchNames returns the search strings for a code, nil when unknown.
func (ix *Index) SearchNames(code string) []string {
	names := ix.names[strings.ToUpper(code)]
	if names == nil {
		return nil
	}
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// AllCodes returns every known alpha-2 code in sorted order.
func (ix *Index) AllCodes() []string {
	out := make([]string, len(ix.codes))
	copy(out, ix.codes)
	return out
}

// Has reports whether code is a known country code.
func (ix *Index) Has(code string) bool {
	_, ok := ix.names[strings.ToUpper(code)]
	return ok
}

// Searchable concatenates a free-text location with the country's search
// names into one lower-cased haystack.
func (ix *Index) Searchable(code, location string) string {
	parts := make([]string, 0, 8)
	if location != "" {
		parts = append(parts, strings.ToLower(location))
	}
	parts = append(parts, ix.names[strings.ToUpper(code)]...)
	return strings.Join(parts, " ")
}

// Matches reports whether every whitespace-separated term of query is a
// substring of the haystack. Logical AND of terms, not OR.
func Matches(haystack, query string) bool {
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

// Lookup returns the codes whose search names match every term of query.
func (ix *Index) Lookup(query string) []string {
	var out []string
	for _, code := range ix.codes {
		if Matches(strings.Join(ix.names[code], " "), query) {
			out = append(out, code)
		}
	}
	return out
}
