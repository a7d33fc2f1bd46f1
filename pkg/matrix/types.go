// Package matrix holds the in-memory skill catalog: every known skill, the
// category tree the skills hang off, the alias table, and the suggested stacks.
// A Matrix is built once per invocation (see Loader) and treated as read-only
// afterwards, so it can be shared freely between goroutines.
package matrix

import (
	"sort"
	"time"
)

// RequirementKind discriminates how the skills of a Requirement are satisfied
type RequirementKind string

// Requirement kinds
const (
	// RequireAll means every listed skill must be selected
	RequireAll RequirementKind = "all"
	// RequireAny means at least one listed skill must be selected
	RequireAny RequirementKind = "any"
)

// Relation points at another skill with a human readable reason
type Relation struct {
	SkillID string `json:"skillId"`
	Reason  string `json:"reason,omitempty"`
}

// Alternative names a skill that can be used instead of the owning skill
type Alternative struct {
	SkillID string `json:"skillId"`
	Purpose string `json:"purpose,omitempty"`
}

// Requirement is a hard dependency on one or more skills
type Requirement struct {
	Kind     RequirementKind `json:"kind"`
	SkillIDs []string        `json:"skillIds"`
	Reason   string          `json:"reason,omitempty"`
}

// Skill describes one installable capability
type Skill struct {
	ID                string   `json:"id"`
	Alias             string   `json:"alias,omitempty"`
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	Category          string   `json:"category"`
	CategoryExclusive bool     `json:"categoryExclusive"`
	Tags              []string `json:"tags,omitempty"`
	Author            string   `json:"author,omitempty"`

	ConflictsWith    []Relation    `json:"conflictsWith,omitempty"`
	Recommends       []Relation    `json:"recommends,omitempty"`
	RecommendedBy    []Relation    `json:"recommendedBy,omitempty"`
	Requires         []Requirement `json:"requires,omitempty"`
	RequiredBy       []Relation    `json:"requiredBy,omitempty"`
	Alternatives     []Alternative `json:"alternatives,omitempty"`
	Discourages      []Relation    `json:"discourages,omitempty"`
	RequiresSetup    []string      `json:"requiresSetup,omitempty"`
	ProvidesSetupFor []string      `json:"providesSetupFor,omitempty"`

	// Local is set for skills sourced from the user's local skills directory
	Local bool   `json:"local"`
	Path  string `json:"path,omitempty"`
}

// DisplayName returns the skill name, falling back to its ID
func (s *Skill) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Category is a grouping and constraint unit for skills
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
	Exclusive   bool   `json:"exclusive"`
	Required    bool   `json:"required"`
	Parent      string `json:"parent,omitempty"`
}

// Stack is a named, pre-built bundle of skill references
type Stack struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Skills      []string `json:"skills"`
}

// Matrix is the merged catalog of categories, skills, aliases and stacks
type Matrix struct {
	Version         string               `json:"version"`
	Categories      map[string]*Category `json:"categories"`
	Skills          map[string]*Skill    `json:"skills"`
	Aliases         map[string]string    `json:"aliases"`
	AliasesReverse  map[string]string    `json:"aliasesReverse"`
	SuggestedStacks []*Stack             `json:"suggestedStacks"`
	GeneratedAt     time.Time            `json:"generatedAt"`

	skillOrder []string
}

// New creates an empty matrix
func New(version string) *Matrix {
	return &Matrix{
		Version:        version,
		Categories:     make(map[string]*Category),
		Skills:         make(map[string]*Skill),
		Aliases:        make(map[string]string),
		AliasesReverse: make(map[string]string),
	}
}

// AddCategory registers a category, replacing any previous one with the same ID
func (m *Matrix) AddCategory(c *Category) *Matrix {
	m.Categories[c.ID] = c
	return m
}

// AddSkill registers a skill. A skill replacing an existing ID keeps the
// original declaration position. A non-empty alias is added to the alias table.
func (m *Matrix) AddSkill(s *Skill) *Matrix {
	if _, exists := m.Skills[s.ID]; !exists {
		m.skillOrder = append(m.skillOrder, s.ID)
	}
	m.Skills[s.ID] = s
	if s.Alias != "" {
		m.Aliases[s.Alias] = s.ID
	}
	return m
}

// AddAlias maps a short name onto a canonical skill ID
func (m *Matrix) AddAlias(alias, skillID string) *Matrix {
	m.Aliases[alias] = skillID
	return m
}

// AddStack appends a suggested stack
func (m *Matrix) AddStack(s *Stack) *Matrix {
	m.SuggestedStacks = append(m.SuggestedStacks, s)
	return m
}

// Skill looks up a skill by canonical ID
func (m *Matrix) Skill(id string) (*Skill, bool) {
	s, ok := m.Skills[id]
	return s, ok
}

// Category looks up a category by ID
func (m *Matrix) Category(id string) (*Category, bool) {
	c, ok := m.Categories[id]
	return c, ok
}

// Stack looks up a suggested stack by ID
func (m *Matrix) Stack(id string) (*Stack, bool) {
	for _, s := range m.SuggestedStacks {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// SkillIDs returns every skill ID in declaration order. Skills placed directly
// into the Skills map are appended in sorted order.
func (m *Matrix) SkillIDs() []string {
	ids := make([]string, 0, len(m.Skills))
	seen := make(map[string]bool, len(m.Skills))
	for _, id := range m.skillOrder {
		if _, ok := m.Skills[id]; ok && !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}

	var rest []string
	for id := range m.Skills {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)

	return append(ids, rest...)
}

// SkillName returns the display name of a skill, or the ID itself when the
// skill is unknown
func (m *Matrix) SkillName(id string) string {
	if s, ok := m.Skills[id]; ok {
		return s.DisplayName()
	}
	return id
}

// Link derives the reverse alias table and the recommendedBy/requiredBy
// back-references. It is idempotent.
func (m *Matrix) Link() {
	m.AliasesReverse = make(map[string]string, len(m.Aliases))
	for alias, id := range m.Aliases {
		// Several aliases may point at one skill; the skill's own alias wins,
		// otherwise the lexically smallest for stable output.
		if s, ok := m.Skills[id]; ok && s.Alias != "" {
			m.AliasesReverse[id] = s.Alias
			continue
		}
		if cur, ok := m.AliasesReverse[id]; !ok || alias < cur {
			m.AliasesReverse[id] = alias
		}
	}

	for _, s := range m.Skills {
		s.RecommendedBy = nil
		s.RequiredBy = nil
	}

	for _, id := range m.SkillIDs() {
		s := m.Skills[id]
		for _, rec := range s.Recommends {
			if target, ok := m.Skills[rec.SkillID]; ok {
				target.RecommendedBy = append(target.RecommendedBy, Relation{SkillID: s.ID, Reason: rec.Reason})
			}
		}
		for _, req := range s.Requires {
			for _, reqID := range req.SkillIDs {
				if target, ok := m.Skills[reqID]; ok {
					target.RequiredBy = append(target.RequiredBy, Relation{SkillID: s.ID, Reason: req.Reason})
				}
			}
		}
	}
}
