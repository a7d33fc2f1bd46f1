package resolver

import (
	"sort"

	"github.com/jingkaihe/skillstack/pkg/matrix"
)

// SkillOption is the render model of one skill inside a category picker
type SkillOption struct {
	ID                string               `json:"id"`
	Alias             string               `json:"alias,omitempty"`
	Name              string               `json:"name"`
	Description       string               `json:"description,omitempty"`
	Local             bool                 `json:"local"`
	Selected          bool                 `json:"selected"`
	Disabled          bool                 `json:"disabled"`
	DisabledReason    string               `json:"disabledReason,omitempty"`
	Discouraged       bool                 `json:"discouraged"`
	DiscouragedReason string               `json:"discouragedReason,omitempty"`
	Recommended       bool                 `json:"recommended"`
	RecommendedReason string               `json:"recommendedReason,omitempty"`
	Alternatives      []matrix.Alternative `json:"alternatives,omitempty"`
}

// SkillsByCategory returns the skills whose category is exactly categoryID,
// in declaration order. Subcategories are not included.
func (r *Resolver) SkillsByCategory(categoryID string) []*matrix.Skill {
	var skills []*matrix.Skill
	for _, id := range r.matrix.SkillIDs() {
		if s := r.matrix.Skills[id]; s.Category == categoryID {
			skills = append(skills, s)
		}
	}
	return skills
}

// TopLevelCategories returns the categories without a parent, by order
func (r *Resolver) TopLevelCategories() []*matrix.Category {
	return r.categoriesWhere(func(c *matrix.Category) bool { return c.Parent == "" })
}

// Subcategories returns the direct children of parentID, by order
func (r *Resolver) Subcategories(parentID string) []*matrix.Category {
	return r.categoriesWhere(func(c *matrix.Category) bool { return c.Parent == parentID })
}

func (r *Resolver) categoriesWhere(keep func(*matrix.Category) bool) []*matrix.Category {
	var out []*matrix.Category
	for _, c := range r.matrix.Categories {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// IsCategoryAllDisabled reports whether every skill of a category is
// disabled, along with a short reason taken from the first disabled skill.
// Empty categories and expert mode are never all-disabled.
func (r *Resolver) IsCategoryAllDisabled(categoryID string, selections []string, opts Options) (bool, string) {
	if opts.ExpertMode {
		return false, ""
	}

	skills := r.SkillsByCategory(categoryID)
	if len(skills) == 0 {
		return false, ""
	}

	var first string
	for _, s := range skills {
		reason, disabled := r.disableReason(s.ID, selections)
		if !disabled {
			return false, ""
		}
		if first == "" {
			first = reason
		}
	}
	return true, shortReason(first)
}

// AvailableSkills builds the picker options of a category for the current
// selection
func (r *Resolver) AvailableSkills(categoryID string, selections []string, opts Options) []SkillOption {
	selected := toSet(r.ResolveAll(selections))

	skills := r.SkillsByCategory(categoryID)
	options := make([]SkillOption, 0, len(skills))
	for _, s := range skills {
		option := SkillOption{
			ID:           s.ID,
			Alias:        s.Alias,
			Name:         s.DisplayName(),
			Description:  s.Description,
			Local:        s.Local,
			Selected:     selected[s.ID],
			Alternatives: s.Alternatives,
		}

		if r.IsDisabled(s.ID, selections, opts) {
			option.Disabled = true
			option.DisabledReason = r.DisableReason(s.ID, selections)
		}
		if reason, ok := r.discourageReason(s.ID, selections); ok {
			option.Discouraged = true
			option.DiscouragedReason = reason
		}
		if reason, ok := r.recommendReason(s.ID, selections); ok {
			option.Recommended = true
			option.RecommendedReason = reason
		}

		options = append(options, option)
	}
	return options
}
