package matrix

import (
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML representation of a skill matrix
type File struct {
	Version     string                   `yaml:"version" json:"version" jsonschema:"required"`
	GeneratedAt string                   `yaml:"generated_at,omitempty" json:"generated_at,omitempty"`
	Categories  map[string]CategoryEntry `yaml:"categories" json:"categories" jsonschema:"required"`
	Skills      SkillEntries             `yaml:"skills" json:"skills" jsonschema:"required"`
	Aliases     map[string]string        `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Stacks      []StackEntry             `yaml:"stacks,omitempty" json:"stacks,omitempty"`
}

// CategoryEntry is a category as declared in the matrix file
type CategoryEntry struct {
	Name        string `yaml:"name" json:"name" jsonschema:"required"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Order       int    `yaml:"order,omitempty" json:"order,omitempty"`
	Exclusive   bool   `yaml:"exclusive,omitempty" json:"exclusive,omitempty"`
	Required    bool   `yaml:"required,omitempty" json:"required,omitempty"`
	Parent      string `yaml:"parent,omitempty" json:"parent,omitempty"`
}

// RelationEntry is a relationship to another skill
type RelationEntry struct {
	Skill  string `yaml:"skill" json:"skill" mapstructure:"skill" jsonschema:"required"`
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty" mapstructure:"reason"`
}

// AlternativeEntry names an interchangeable skill
type AlternativeEntry struct {
	Skill   string `yaml:"skill" json:"skill" mapstructure:"skill" jsonschema:"required"`
	Purpose string `yaml:"purpose,omitempty" json:"purpose,omitempty" mapstructure:"purpose"`
}

// RequirementEntry is a dependency group. needs_any selects OR semantics.
type RequirementEntry struct {
	Skills   []string `yaml:"skills" json:"skills" mapstructure:"skills" jsonschema:"required,minItems=1"`
	NeedsAny bool     `yaml:"needs_any,omitempty" json:"needs_any,omitempty" mapstructure:"needs_any"`
	Reason   string   `yaml:"reason,omitempty" json:"reason,omitempty" mapstructure:"reason"`
}

// SkillEntry is a skill as declared in the matrix file or in SKILL.md frontmatter
type SkillEntry struct {
	ID                string             `yaml:"id,omitempty" json:"id,omitempty" mapstructure:"id"`
	Alias             string             `yaml:"alias,omitempty" json:"alias,omitempty" mapstructure:"alias"`
	Name              string             `yaml:"name" json:"name" mapstructure:"name" jsonschema:"required"`
	Description       string             `yaml:"description,omitempty" json:"description,omitempty" mapstructure:"description"`
	Category          string             `yaml:"category" json:"category" mapstructure:"category" jsonschema:"required"`
	CategoryExclusive bool               `yaml:"category_exclusive,omitempty" json:"category_exclusive,omitempty" mapstructure:"category_exclusive"`
	Tags              []string           `yaml:"tags,omitempty" json:"tags,omitempty" mapstructure:"tags"`
	Author            string             `yaml:"author,omitempty" json:"author,omitempty" mapstructure:"author"`
	ConflictsWith     []RelationEntry    `yaml:"conflicts_with,omitempty" json:"conflicts_with,omitempty" mapstructure:"conflicts_with"`
	Recommends        []RelationEntry    `yaml:"recommends,omitempty" json:"recommends,omitempty" mapstructure:"recommends"`
	Requires          []RequirementEntry `yaml:"requires,omitempty" json:"requires,omitempty" mapstructure:"requires"`
	Alternatives      []AlternativeEntry `yaml:"alternatives,omitempty" json:"alternatives,omitempty" mapstructure:"alternatives"`
	Discourages       []RelationEntry    `yaml:"discourages,omitempty" json:"discourages,omitempty" mapstructure:"discourages"`
	RequiresSetup     []string           `yaml:"requires_setup,omitempty" json:"requires_setup,omitempty" mapstructure:"requires_setup"`
	ProvidesSetupFor  []string           `yaml:"provides_setup_for,omitempty" json:"provides_setup_for,omitempty" mapstructure:"provides_setup_for"`
}

// StackEntry is a suggested stack as declared in the matrix file
type StackEntry struct {
	ID          string   `yaml:"id" json:"id" jsonschema:"required"`
	Name        string   `yaml:"name" json:"name" jsonschema:"required"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Skills      []string `yaml:"skills" json:"skills" jsonschema:"required"`
}

// NamedSkill pairs a skill entry with the key it was declared under
type NamedSkill struct {
	Key   string
	Entry SkillEntry
}

// SkillEntries is the skills mapping with its declaration order preserved
type SkillEntries []NamedSkill

// UnmarshalYAML decodes a YAML mapping while keeping key order
func (s *SkillEntries) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: skills must be a mapping", node.Line)
	}
	entries := make(SkillEntries, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var entry SkillEntry
		if err := node.Content[i+1].Decode(&entry); err != nil {
			return errors.Wrapf(err, "failed to decode skill %q", key)
		}
		entries = append(entries, NamedSkill{Key: key, Entry: entry})
	}
	*s = entries
	return nil
}

// ToSkill converts the entry into a Skill. The entry's id takes precedence
// over the key it was declared under.
func (e SkillEntry) ToSkill(key string) *Skill {
	id := e.ID
	if id == "" {
		id = key
	}

	s := &Skill{
		ID:                id,
		Alias:             e.Alias,
		Name:              e.Name,
		Description:       e.Description,
		Category:          e.Category,
		CategoryExclusive: e.CategoryExclusive,
		Tags:              e.Tags,
		Author:            e.Author,
		RequiresSetup:     e.RequiresSetup,
		ProvidesSetupFor:  e.ProvidesSetupFor,
	}

	s.ConflictsWith = toRelations(e.ConflictsWith)
	s.Recommends = toRelations(e.Recommends)
	s.Discourages = toRelations(e.Discourages)

	for _, a := range e.Alternatives {
		s.Alternatives = append(s.Alternatives, Alternative{SkillID: a.Skill, Purpose: a.Purpose})
	}

	for _, r := range e.Requires {
		kind := RequireAll
		if r.NeedsAny {
			kind = RequireAny
		}
		s.Requires = append(s.Requires, Requirement{
			Kind:     kind,
			SkillIDs: append([]string(nil), r.Skills...),
			Reason:   r.Reason,
		})
	}

	return s
}

func toRelations(entries []RelationEntry) []Relation {
	if len(entries) == 0 {
		return nil
	}
	out := make([]Relation, 0, len(entries))
	for _, e := range entries {
		out = append(out, Relation{SkillID: e.Skill, Reason: e.Reason})
	}
	return out
}

// Build converts a parsed file into a linked Matrix. Relationship targets
// written as aliases are rewritten to canonical IDs.
func (f *File) Build() *Matrix {
	m := New(f.Version)
	m.GeneratedAt = parseTimestamp(f.GeneratedAt)

	for id, c := range f.Categories {
		m.AddCategory(&Category{
			ID:          id,
			Name:        c.Name,
			Description: c.Description,
			Order:       c.Order,
			Exclusive:   c.Exclusive,
			Required:    c.Required,
			Parent:      c.Parent,
		})
	}

	for _, named := range f.Skills {
		m.AddSkill(named.Entry.ToSkill(named.Key))
	}

	for alias, id := range f.Aliases {
		m.AddAlias(alias, id)
	}

	for _, st := range f.Stacks {
		m.AddStack(&Stack{
			ID:          st.ID,
			Name:        st.Name,
			Description: st.Description,
			Skills:      append([]string(nil), st.Skills...),
		})
	}

	m.normalizeReferences()
	m.Link()
	return m
}

// normalizeReferences rewrites alias references in relationship lists to
// canonical IDs
func (m *Matrix) normalizeReferences() {
	canonical := func(id string) string {
		if full, ok := m.Aliases[id]; ok {
			return full
		}
		return id
	}
	rewrite := func(rels []Relation) {
		for i := range rels {
			rels[i].SkillID = canonical(rels[i].SkillID)
		}
	}
	rewriteIDs := func(ids []string) {
		for i := range ids {
			ids[i] = canonical(ids[i])
		}
	}

	for _, s := range m.Skills {
		rewrite(s.ConflictsWith)
		rewrite(s.Recommends)
		rewrite(s.Discourages)
		for i := range s.Alternatives {
			s.Alternatives[i].SkillID = canonical(s.Alternatives[i].SkillID)
		}
		for i := range s.Requires {
			rewriteIDs(s.Requires[i].SkillIDs)
		}
		rewriteIDs(s.RequiresSetup)
		rewriteIDs(s.ProvidesSetupFor)
	}
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
