package concepts

import (
	"fmt"
	"regexp"
	"strings"
)

var canonicalID = regexp.MustCompile(`^[a-z0-9_]+$`)

// validateConcepts performs all structural checks on the given concept set.
// Returns a combined error describing all problems found, or nil if valid.
func validateConcepts(concepts []Concept) error {
	var errs []string

	idSet := make(map[string]bool, len(concepts))
	strandSet := make(map[Strand]bool)
	for _, con := range concepts {
		if idSet[con.ID] {
			errs = append(errs, fmt.Sprintf("duplicate concept ID: %q", con.ID))
		}
		if !canonicalID.MatchString(con.ID) {
			errs = append(errs, fmt.Sprintf("concept ID %q is not canonical", con.ID))
		}
		idSet[con.ID] = true
		strandSet[con.Strand] = true
	}

	for _, con := range concepts {
		for _, pre := range con.Prerequisites {
			if !idSet[pre] {
				errs = append(errs, fmt.Sprintf("concept %q references nonexistent prerequisite %q", con.ID, pre))
			}
		}
	}

	// Cycle check
	inDegree := make(map[string]int, len(concepts))
	adj := make(map[string][]string)
	for _, con := range concepts {
		inDegree[con.ID] = len(con.Prerequisites)
		for _, pre := range con.Prerequisites {
			adj[pre] = append(adj[pre], con.ID)
		}
	}
	var queue []string
	for _, con := range concepts {
		if inDegree[con.ID] == 0 {
			queue = append(queue, con.ID)
		}
	}
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, dep := range adj[id] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	if visited < len(concepts) {
		var cycle []string
		for _, con := range concepts {
			if inDegree[con.ID] > 0 {
				cycle = append(cycle, con.ID)
			}
		}
		errs = append(errs, fmt.Sprintf("cycle detected involving concepts: %s", strings.Join(cycle, ", ")))
	}

	for _, strand := range AllStrands() {
		if !strandSet[strand] {
			errs = append(errs, fmt.Sprintf("strand %q has no concepts", strand))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("concept catalog validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
