// Package resolver answers skill compatibility questions against a loaded
// skill matrix: which skills are disabled, discouraged or recommended for a
// given selection, whether a whole selection is valid, and how the category
// tree rolls up for a picker.
//
// Every query is a pure function of the immutable matrix and the
// caller-supplied selection. Unknown skills, aliases and categories never
// produce errors; they simply contribute no constraints.
package resolver

import (
	"github.com/jingkaihe/skillstack/pkg/matrix"
)

// Options tunes evaluation
type Options struct {
	// ExpertMode suppresses disabling so power users can pick anything
	ExpertMode bool `json:"expertMode"`
}

// Resolver evaluates selections against one matrix. It holds no selection
// state and is safe for concurrent use.
type Resolver struct {
	matrix *matrix.Matrix
}

// New creates a resolver over m
func New(m *matrix.Matrix) *Resolver {
	if m == nil {
		m = matrix.New("")
	}
	return &Resolver{matrix: m}
}

// Matrix returns the matrix the resolver reads from
func (r *Resolver) Matrix() *matrix.Matrix {
	return r.matrix
}

// ResolveAlias maps a short alias onto its canonical skill ID. Anything that
// is not an alias is returned unchanged.
func (r *Resolver) ResolveAlias(aliasOrID string) string {
	if id, ok := r.matrix.Aliases[aliasOrID]; ok {
		return id
	}
	return aliasOrID
}

// ResolveAll resolves every entry of selections, preserving order and
// duplicates
func (r *Resolver) ResolveAll(selections []string) []string {
	resolved := make([]string, len(selections))
	for i, s := range selections {
		resolved[i] = r.ResolveAlias(s)
	}
	return resolved
}

// Canonical resolves aliases and drops repeated skills, keeping the first
// occurrence
func (r *Resolver) Canonical(selections []string) []string {
	return dedupe(r.ResolveAll(selections))
}

// ExpandStack returns the canonical skill IDs of a suggested stack
func (r *Resolver) ExpandStack(stackID string) ([]string, bool) {
	stack, ok := r.matrix.Stack(stackID)
	if !ok {
		return nil, false
	}
	return dedupe(r.ResolveAll(stack.Skills)), true
}

// lookup resolves an alias and returns the skill if it exists
func (r *Resolver) lookup(aliasOrID string) (*matrix.Skill, bool) {
	return r.matrix.Skill(r.ResolveAlias(aliasOrID))
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func findRelation(rels []matrix.Relation, skillID string) (matrix.Relation, bool) {
	for _, rel := range rels {
		if rel.SkillID == skillID {
			return rel, true
		}
	}
	return matrix.Relation{}, false
}
