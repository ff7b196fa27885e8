package model

import "sort"

// Glossary maps a lower-cased description to a lower-cased category.
// It caches prior classification decisions.
type Glossary map[string]string

// ClassifiedItems is the raw description -> category mapping returned by the
// classification service. Casing is whatever the service sent.
type ClassifiedItems map[string]string

// Clone returns an independent copy. A nil glossary clones to an empty one.
func (g Glossary) Clone() Glossary {
	out := make(Glossary, len(g))
	for k, v := range g {
		out[k] = v
	}
	return out
}

// Equal reports whether both glossaries hold exactly the same entries.
func (g Glossary) Equal(other Glossary) bool {
	if len(g) != len(other) {
		return false
	}
	for k, v := range g {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Keys returns the descriptions in ascending order.
func (g Glossary) Keys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
