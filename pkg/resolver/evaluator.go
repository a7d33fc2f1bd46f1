package resolver

import (
	"fmt"
	"strings"

	"github.com/jingkaihe/skillstack/pkg/matrix"
)

// IsDisabled reports whether skillID cannot be selected alongside selections:
// a selected skill conflicts with it (declared on either side), or one of its
// requirements is unmet. Expert mode never disables; unknown skills are never
// disabled.
func (r *Resolver) IsDisabled(skillID string, selections []string, opts Options) bool {
	if opts.ExpertMode {
		return false
	}
	_, disabled := r.disableReason(skillID, selections)
	return disabled
}

// DisableReason explains why skillID is disabled, or returns "" when it is
// not. Conflicts take priority over requirements.
func (r *Resolver) DisableReason(skillID string, selections []string) string {
	reason, _ := r.disableReason(skillID, selections)
	return reason
}

func (r *Resolver) disableReason(skillID string, selections []string) (string, bool) {
	skill, ok := r.lookup(skillID)
	if !ok {
		return "", false
	}

	resolved := r.ResolveAll(selections)

	if reason, ok := r.conflictReason(skill, resolved); ok {
		return reason, true
	}

	selected := toSet(resolved)
	for _, req := range skill.Requires {
		if reason, unmet := r.unmetRequirement(req, selected); unmet {
			return reason, true
		}
	}

	return "", false
}

// conflictReason walks selections in order and reports the first one that
// conflicts with skill in either direction
func (r *Resolver) conflictReason(skill *matrix.Skill, resolved []string) (string, bool) {
	for _, selectedID := range resolved {
		if selectedID == skill.ID {
			continue
		}
		selected, ok := r.matrix.Skill(selectedID)
		if !ok {
			continue
		}
		if rel, ok := findRelation(skill.ConflictsWith, selectedID); ok {
			return withDetail(rel.Reason, "conflicts with "+selected.DisplayName()), true
		}
		if rel, ok := findRelation(selected.ConflictsWith, skill.ID); ok {
			return withDetail(rel.Reason, "conflicts with "+selected.DisplayName()), true
		}
	}
	return "", false
}

// unmetRequirement reports whether req is unsatisfied by selected, with the
// reason naming what is needed
func (r *Resolver) unmetRequirement(req matrix.Requirement, selected map[string]bool) (string, bool) {
	switch req.Kind {
	case matrix.RequireAny:
		for _, id := range req.SkillIDs {
			if selected[id] {
				return "", false
			}
		}
		if len(req.SkillIDs) == 0 {
			return "", false
		}
		return withDetail(req.Reason, "requires "+strings.Join(r.names(req.SkillIDs), " or ")), true
	default:
		missing := missingIDs(req.SkillIDs, selected)
		if len(missing) == 0 {
			return "", false
		}
		return withDetail(req.Reason, "requires "+strings.Join(r.names(missing), ", ")), true
	}
}

// IsDiscouraged reports whether skillID is discouraged by, or discourages, a
// selected skill. Discouraged skills stay selectable.
func (r *Resolver) IsDiscouraged(skillID string, selections []string) bool {
	_, ok := r.discourageReason(skillID, selections)
	return ok
}

// DiscourageReason explains why skillID is discouraged, or returns ""
func (r *Resolver) DiscourageReason(skillID string, selections []string) string {
	reason, _ := r.discourageReason(skillID, selections)
	return reason
}

func (r *Resolver) discourageReason(skillID string, selections []string) (string, bool) {
	skill, ok := r.lookup(skillID)
	if !ok {
		return "", false
	}

	for _, selectedID := range r.ResolveAll(selections) {
		if selectedID == skill.ID {
			continue
		}
		selected, ok := r.matrix.Skill(selectedID)
		if !ok {
			continue
		}
		if rel, ok := findRelation(skill.Discourages, selectedID); ok {
			return withDetail(rel.Reason, "discouraged with "+selected.DisplayName()), true
		}
		if rel, ok := findRelation(selected.Discourages, skill.ID); ok {
			return withDetail(rel.Reason, "discouraged with "+selected.DisplayName()), true
		}
	}
	return "", false
}

// IsRecommended reports whether a selected skill recommends skillID. The
// relationship is directional: skillID's own recommendations do not count.
func (r *Resolver) IsRecommended(skillID string, selections []string) bool {
	_, ok := r.recommendReason(skillID, selections)
	return ok
}

// RecommendReason explains why skillID is recommended, or returns ""
func (r *Resolver) RecommendReason(skillID string, selections []string) string {
	reason, _ := r.recommendReason(skillID, selections)
	return reason
}

func (r *Resolver) recommendReason(skillID string, selections []string) (string, bool) {
	skill, ok := r.lookup(skillID)
	if !ok {
		return "", false
	}

	for _, selectedID := range r.ResolveAll(selections) {
		if selectedID == skill.ID {
			continue
		}
		selected, ok := r.matrix.Skill(selectedID)
		if !ok {
			continue
		}
		if rel, ok := findRelation(selected.Recommends, skill.ID); ok {
			return withDetail(rel.Reason, "recommended by "+selected.DisplayName()), true
		}
	}
	return "", false
}

func (r *Resolver) names(ids []string) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = r.matrix.SkillName(id)
	}
	return names
}

func missingIDs(ids []string, selected map[string]bool) []string {
	var missing []string
	for _, id := range ids {
		if !selected[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

// withDetail appends a parenthetical detail to a declared reason
func withDetail(reason, detail string) string {
	if reason == "" {
		return fmt.Sprintf("(%s)", detail)
	}
	return fmt.Sprintf("%s (%s)", reason, detail)
}

// shortReason trims the explanatory parenthetical from a reason
func shortReason(reason string) string {
	if idx := strings.Index(reason, " ("); idx >= 0 {
		return reason[:idx]
	}
	return reason
}
