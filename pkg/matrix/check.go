package matrix

import (
	"fmt"
	"sort"
)

// Severity of a structural diagnostic
type Severity string

// Diagnostic severities
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a structural problem found in a matrix
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Subject  string   `json:"subject"`
	Message  string   `json:"message"`
}

// Check reports structural problems the resolver relies on the loader to rule
// out: unknown categories and category parent cycles are errors; dangling
// relationship targets and stray aliases are warnings because partially
// assembled catalogs are expected.
func Check(m *Matrix) []Diagnostic {
	var diags []Diagnostic
	errorf := func(subject, format string, args ...interface{}) {
		diags = append(diags, Diagnostic{Severity: SeverityError, Subject: subject, Message: fmt.Sprintf(format, args...)})
	}
	warnf := func(subject, format string, args ...interface{}) {
		diags = append(diags, Diagnostic{Severity: SeverityWarning, Subject: subject, Message: fmt.Sprintf(format, args...)})
	}

	categoryIDs := make([]string, 0, len(m.Categories))
	for id := range m.Categories {
		categoryIDs = append(categoryIDs, id)
	}
	sort.Strings(categoryIDs)

	for _, id := range categoryIDs {
		c := m.Categories[id]
		if c.Parent == "" {
			continue
		}
		if _, ok := m.Categories[c.Parent]; !ok {
			errorf(id, "parent category %q does not exist", c.Parent)
			continue
		}
		if cycle := parentCycle(m, id); cycle != nil {
			errorf(id, "category parent cycle: %v", cycle)
		}
	}

	for _, id := range m.SkillIDs() {
		s := m.Skills[id]
		if s.Category == "" {
			errorf(id, "skill has no category")
		} else if _, ok := m.Categories[s.Category]; !ok {
			errorf(id, "category %q does not exist", s.Category)
		}

		refs := map[string][]string{}
		for _, r := range s.ConflictsWith {
			refs["conflicts_with"] = append(refs["conflicts_with"], r.SkillID)
		}
		for _, r := range s.Recommends {
			refs["recommends"] = append(refs["recommends"], r.SkillID)
		}
		for _, r := range s.Discourages {
			refs["discourages"] = append(refs["discourages"], r.SkillID)
		}
		for _, a := range s.Alternatives {
			refs["alternatives"] = append(refs["alternatives"], a.SkillID)
		}
		for _, req := range s.Requires {
			refs["requires"] = append(refs["requires"], req.SkillIDs...)
		}
		refs["requires_setup"] = append(refs["requires_setup"], s.RequiresSetup...)
		refs["provides_setup_for"] = append(refs["provides_setup_for"], s.ProvidesSetupFor...)

		kinds := make([]string, 0, len(refs))
		for kind := range refs {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			for _, ref := range refs[kind] {
				if _, ok := m.Skills[ref]; !ok {
					warnf(id, "%s references unknown skill %q", kind, ref)
				}
			}
		}
	}

	aliases := make([]string, 0, len(m.Aliases))
	for alias := range m.Aliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		if _, ok := m.Skills[m.Aliases[alias]]; !ok {
			warnf(alias, "alias points at unknown skill %q", m.Aliases[alias])
		}
	}

	for _, st := range m.SuggestedStacks {
		for _, ref := range st.Skills {
			id := ref
			if full, ok := m.Aliases[ref]; ok {
				id = full
			}
			if _, ok := m.Skills[id]; !ok {
				warnf(st.ID, "stack references unknown skill %q", ref)
			}
		}
	}

	return diags
}

// HasErrors reports whether any diagnostic is an error
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// parentCycle walks up from id and returns the path when it revisits id
func parentCycle(m *Matrix, id string) []string {
	path := []string{id}
	visited := map[string]bool{id: true}
	current := m.Categories[id]
	for current != nil && current.Parent != "" {
		if current.Parent == id {
			return append(path, id)
		}
		if visited[current.Parent] {
			// Cycle that does not include id; reported from its own members
			return nil
		}
		visited[current.Parent] = true
		path = append(path, current.Parent)
		current = m.Categories[current.Parent]
	}
	return nil
}
