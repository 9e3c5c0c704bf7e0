package concepts

import (
	"fmt"
	"slices"
	"sort"
)

// catalog holds the concept set with precomputed indices.
type catalog struct {
	concepts  []Concept
	byID      map[string]*Concept
	byStrand  map[Strand][]Concept
	topoOrder []Concept
}

// c is the package-level catalog, set by init() in seed.go.
var c *catalog

// buildCatalog indexes concepts and orders them so prerequisites come first.
func buildCatalog(concepts []Concept) *catalog {
	cat := &catalog{
		concepts: concepts,
		byID:     make(map[string]*Concept, len(concepts)),
		byStrand: make(map[Strand][]Concept),
	}
	for i := range cat.concepts {
		cat.byID[cat.concepts[i].ID] = &cat.concepts[i]
	}

	// Kahn's algorithm with a sorted frontier for deterministic order.
	inDegree := make(map[string]int, len(concepts))
	dependents := make(map[string][]string)
	for _, con := range concepts {
		inDegree[con.ID] = len(con.Prerequisites)
		for _, pre := range con.Prerequisites {
			dependents[pre] = append(dependents[pre], con.ID)
		}
	}
	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		cat.topoOrder = append(cat.topoOrder, *cat.byID[id])

		var next []string
		for _, dep := range dependents[id] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				next = append(next, dep)
			}
		}
		sort.Strings(next)
		queue = append(queue, next...)
	}

	for _, con := range cat.topoOrder {
		cat.byStrand[con.Strand] = append(cat.byStrand[con.Strand], con)
	}
	return cat
}

// Get returns a concept by canonical ID.
func Get(id string) (Concept, error) {
	con, ok := c.byID[id]
	if !ok {
		return Concept{}, fmt.Errorf("concept not found: %q", id)
	}
	return *con, nil
}

// Exists reports whether id names a known concept.
func Exists(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// All returns every concept in catalog order.
func All() []Concept {
	return slices.Clone(c.concepts)
}

// IDs returns every concept ID in catalog order.
func IDs() []string {
	ids := make([]string, len(c.concepts))
	for i, con := range c.concepts {
		ids[i] = con.ID
	}
	return ids
}

// ByStrand returns the concepts of one strand, prerequisites first.
func ByStrand(strand Strand) []Concept {
	return slices.Clone(c.byStrand[strand])
}

// Prerequisites returns the direct prerequisites of a concept.
func Prerequisites(id string) []Concept {
	con, ok := c.byID[id]
	if !ok {
		return nil
	}
	out := make([]Concept, 0, len(con.Prerequisites))
	for _, pre := range con.Prerequisites {
		if p, ok := c.byID[pre]; ok {
			out = append(out, *p)
		}
	}
	return out
}

// TopologicalOrder returns all concepts with prerequisites before dependents.
func TopologicalOrder() []Concept {
	return slices.Clone(c.topoOrder)
}

// Validate checks the seeded catalog for structural issues.
func Validate() error {
	return validateConcepts(c.concepts)
}
