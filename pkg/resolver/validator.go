package resolver

import (
	"fmt"
	"strings"

	"github.com/jingkaihe/skillstack/pkg/matrix"
)

// IssueType classifies a validation finding
type IssueType string

// Blocking issue types
const (
	IssueConflict           IssueType = "conflict"
	IssueMissingRequirement IssueType = "missing_requirement"
	IssueCategoryExclusive  IssueType = "category_exclusive"
)

// Advisory issue types
const (
	IssueMissingRecommendation IssueType = "missing_recommendation"
	IssueUnusedSetup           IssueType = "unused_setup"
	IssueMissingSetup          IssueType = "missing_setup"
)

// Issue is one validation finding
type Issue struct {
	Type    IssueType `json:"type"`
	Message string    `json:"message"`
	Skills  []string  `json:"skills"`
}

// ValidationResult is the full report for a selection. Errors block the
// selection, warnings are advisory.
type ValidationResult struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Validate checks a whole selection. Every check runs and contributes to the
// report; nothing short-circuits. Selections are alias-resolved and
// de-duplicated, and unknown skills are ignored.
func (r *Resolver) Validate(selections []string) *ValidationResult {
	resolved := dedupe(r.ResolveAll(selections))

	var skills []*matrix.Skill
	for _, id := range resolved {
		if s, ok := r.matrix.Skill(id); ok {
			skills = append(skills, s)
		}
	}
	selected := toSet(resolved)

	result := &ValidationResult{
		Errors:   []Issue{},
		Warnings: []Issue{},
	}

	result.Errors = append(result.Errors, r.checkConflicts(skills)...)
	result.Errors = append(result.Errors, r.checkRequirements(skills, selected)...)
	result.Errors = append(result.Errors, r.checkExclusivity(skills)...)
	result.Warnings = append(result.Warnings, r.checkRecommendations(skills, selected, resolved)...)
	result.Warnings = append(result.Warnings, r.checkSetup(skills, selected)...)

	result.Valid = len(result.Errors) == 0
	return result
}

// checkConflicts visits every unordered pair once and reports at most one
// conflict per pair. The earlier skill's declaration is preferred; the later
// skill's is consulted when the earlier one is silent, since each pair is
// only visited in one order.
func (r *Resolver) checkConflicts(skills []*matrix.Skill) []Issue {
	var issues []Issue
	for i := 0; i < len(skills); i++ {
		for j := i + 1; j < len(skills); j++ {
			a, b := skills[i], skills[j]
			rel, ok := findRelation(a.ConflictsWith, b.ID)
			if !ok {
				rel, ok = findRelation(b.ConflictsWith, a.ID)
			}
			if !ok {
				continue
			}
			msg := fmt.Sprintf("%s conflicts with %s", a.DisplayName(), b.DisplayName())
			if rel.Reason != "" {
				msg += ": " + rel.Reason
			}
			issues = append(issues, Issue{
				Type:    IssueConflict,
				Message: msg,
				Skills:  []string{a.ID, b.ID},
			})
		}
	}
	return issues
}

func (r *Resolver) checkRequirements(skills []*matrix.Skill, selected map[string]bool) []Issue {
	var issues []Issue
	for _, s := range skills {
		for _, req := range s.Requires {
			switch req.Kind {
			case matrix.RequireAny:
				if len(req.SkillIDs) == 0 || anySelected(req.SkillIDs, selected) {
					continue
				}
				issues = append(issues, Issue{
					Type:    IssueMissingRequirement,
					Message: requirementMessage(s.DisplayName(), "requires one of", r.names(req.SkillIDs), req.Reason),
					Skills:  append([]string{s.ID}, req.SkillIDs...),
				})
			default:
				missing := missingIDs(req.SkillIDs, selected)
				if len(missing) == 0 {
					continue
				}
				issues = append(issues, Issue{
					Type:    IssueMissingRequirement,
					Message: requirementMessage(s.DisplayName(), "requires", r.names(missing), req.Reason),
					Skills:  append([]string{s.ID}, missing...),
				})
			}
		}
	}
	return issues
}

// checkExclusivity groups selections by category in first-seen order. A
// category is exclusive when it says so, and a skill flagged
// categoryExclusive counts towards its category's limit either way.
func (r *Resolver) checkExclusivity(skills []*matrix.Skill) []Issue {
	var order []string
	members := map[string][]*matrix.Skill{}
	for _, s := range skills {
		category, known := r.matrix.Category(s.Category)
		if !s.CategoryExclusive && (!known || !category.Exclusive) {
			continue
		}
		if _, seen := members[s.Category]; !seen {
			order = append(order, s.Category)
		}
		members[s.Category] = append(members[s.Category], s)
	}

	var issues []Issue
	for _, categoryID := range order {
		group := members[categoryID]
		if len(group) < 2 {
			continue
		}
		categoryName := categoryID
		if c, ok := r.matrix.Category(categoryID); ok && c.Name != "" {
			categoryName = c.Name
		}
		ids := make([]string, len(group))
		names := make([]string, len(group))
		for i, s := range group {
			ids[i] = s.ID
			names[i] = s.DisplayName()
		}
		issues = append(issues, Issue{
			Type:    IssueCategoryExclusive,
			Message: fmt.Sprintf("Category %q only allows one selection, but %s are selected", categoryName, strings.Join(names, ", ")),
			Skills:  ids,
		})
	}
	return issues
}

// checkRecommendations warns about recommended skills that are not selected,
// unless the recommended skill conflicts with the current selection
func (r *Resolver) checkRecommendations(skills []*matrix.Skill, selected map[string]bool, resolved []string) []Issue {
	var issues []Issue
	for _, s := range skills {
		for _, rec := range s.Recommends {
			if selected[rec.SkillID] {
				continue
			}
			target, ok := r.matrix.Skill(rec.SkillID)
			if !ok {
				continue
			}
			if _, conflicts := r.conflictReason(target, resolved); conflicts {
				continue
			}
			msg := fmt.Sprintf("%s recommends %s", s.DisplayName(), target.DisplayName())
			if rec.Reason != "" {
				msg += ": " + rec.Reason
			}
			issues = append(issues, Issue{
				Type:    IssueMissingRecommendation,
				Message: msg,
				Skills:  []string{s.ID, target.ID},
			})
		}
	}
	return issues
}

// checkSetup flags setup skills with no selected usage skill, and usage
// skills with none of their setup skills selected
func (r *Resolver) checkSetup(skills []*matrix.Skill, selected map[string]bool) []Issue {
	var issues []Issue
	for _, s := range skills {
		if len(s.ProvidesSetupFor) > 0 && !anySelected(s.ProvidesSetupFor, selected) {
			issues = append(issues, Issue{
				Type: IssueUnusedSetup,
				Message: fmt.Sprintf("%s provides setup for %s, but none of them are selected",
					s.DisplayName(), strings.Join(r.names(s.ProvidesSetupFor), ", ")),
				Skills: append([]string{s.ID}, s.ProvidesSetupFor...),
			})
		}
	}
	for _, s := range skills {
		if len(s.RequiresSetup) > 0 && !anySelected(s.RequiresSetup, selected) {
			issues = append(issues, Issue{
				Type: IssueMissingSetup,
				Message: fmt.Sprintf("%s needs setup from %s, but none of them are selected",
					s.DisplayName(), strings.Join(r.names(s.RequiresSetup), " or ")),
				Skills: append([]string{s.ID}, s.RequiresSetup...),
			})
		}
	}
	return issues
}

func anySelected(ids []string, selected map[string]bool) bool {
	for _, id := range ids {
		if selected[id] {
			return true
		}
	}
	return false
}

func requirementMessage(name, verb string, required []string, reason string) string {
	msg := fmt.Sprintf("%s %s: %s", name, verb, strings.Join(required, ", "))
	if reason != "" {
		msg += " (" + reason + ")"
	}
	return msg
}
