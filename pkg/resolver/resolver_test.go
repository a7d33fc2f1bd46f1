package resolver

import (
	"testing"

	"github.com/jingkaihe/skillstack/pkg/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestMatrix builds a small web catalog:
//
//	web (top level)
//	├── framework (exclusive): react, vue
//	└── state: zustand (requires react), pinia (requires vue)
//	testing: vitest, jest
//	backend: hono, drizzle (requires one of hono/express), drizzle-setup
func newTestMatrix() *matrix.Matrix {
	m := matrix.New("1.0.0")
	m.AddCategory(&matrix.Category{ID: "web", Name: "Web", Order: 1})
	m.AddCategory(&matrix.Category{ID: "framework", Name: "Framework", Order: 2, Exclusive: true, Required: true, Parent: "web"})
	m.AddCategory(&matrix.Category{ID: "state", Name: "State", Order: 1, Parent: "web"})
	m.AddCategory(&matrix.Category{ID: "testing", Name: "Testing", Order: 3})
	m.AddCategory(&matrix.Category{ID: "backend", Name: "Backend", Order: 2})
	m.AddCategory(&matrix.Category{ID: "empty", Name: "Empty", Order: 9})

	m.AddSkill(&matrix.Skill{
		ID: "web-framework-react", Alias: "react", Name: "React", Category: "framework", CategoryExclusive: true,
		ConflictsWith: []matrix.Relation{{SkillID: "web-framework-vue", Reason: "Pick one UI framework"}},
		Recommends:    []matrix.Relation{{SkillID: "web-state-zustand", Reason: "Lightweight state"}},
		Alternatives:  []matrix.Alternative{{SkillID: "web-framework-vue", Purpose: "UI framework"}},
	})
	m.AddSkill(&matrix.Skill{
		ID: "web-framework-vue", Alias: "vue", Name: "Vue", Category: "framework", CategoryExclusive: true,
		Recommends: []matrix.Relation{{SkillID: "web-state-pinia", Reason: "Official store"}},
	})
	m.AddSkill(&matrix.Skill{
		ID: "web-state-zustand", Alias: "zustand", Name: "Zustand", Category: "state",
		Requires: []matrix.Requirement{{Kind: matrix.RequireAll, SkillIDs: []string{"web-framework-react"}, Reason: "React bindings only"}},
	})
	m.AddSkill(&matrix.Skill{
		ID: "web-state-pinia", Alias: "pinia", Name: "Pinia", Category: "state",
		Requires: []matrix.Requirement{{Kind: matrix.RequireAll, SkillIDs: []string{"web-framework-vue"}, Reason: "Vue only"}},
	})
	m.AddSkill(&matrix.Skill{
		ID: "testing-vitest", Alias: "vitest", Name: "Vitest", Category: "testing",
		Discourages: []matrix.Relation{{SkillID: "testing-jest", Reason: "Two test runners"}},
	})
	m.AddSkill(&matrix.Skill{ID: "testing-jest", Alias: "jest", Name: "Jest", Category: "testing"})
	m.AddSkill(&matrix.Skill{ID: "api-hono", Alias: "hono", Name: "Hono", Category: "backend",
		RequiresSetup: []string{"api-drizzle-setup"}})
	m.AddSkill(&matrix.Skill{
		ID: "api-drizzle", Alias: "drizzle", Name: "Drizzle", Category: "backend",
		Requires: []matrix.Requirement{{Kind: matrix.RequireAny, SkillIDs: []string{"api-hono", "api-express"}, Reason: "Needs a server"}},
	})
	m.AddSkill(&matrix.Skill{ID: "api-drizzle-setup", Name: "Drizzle Setup", Category: "backend",
		ProvidesSetupFor: []string{"api-drizzle"}})

	m.AddStack(&matrix.Stack{ID: "react-spa", Name: "React SPA", Skills: []string{"react", "zustand", "react", "vitest"}})
	m.Link()
	return m
}

func TestResolveAlias(t *testing.T) {
	r := New(newTestMatrix())

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"alias", "react", "web-framework-react"},
		{"canonical id", "web-framework-react", "web-framework-react"},
		{"unknown", "svelte", "svelte"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ResolveAlias(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, r.ResolveAlias(got), "resolving must be idempotent")
		})
	}
}

func TestNewWithNilMatrix(t *testing.T) {
	r := New(nil)
	assert.False(t, r.IsDisabled("anything", []string{"else"}, Options{}))
	assert.True(t, r.Validate([]string{"anything"}).Valid)
	assert.Empty(t, r.TopLevelCategories())
}

func TestExpandStack(t *testing.T) {
	r := New(newTestMatrix())

	skills, ok := r.ExpandStack("react-spa")
	require.True(t, ok)
	assert.Equal(t, []string{"web-framework-react", "web-state-zustand", "testing-vitest"}, skills)

	_, ok = r.ExpandStack("missing")
	assert.False(t, ok)
}

func TestSkillsByCategory(t *testing.T) {
	r := New(newTestMatrix())

	skills := r.SkillsByCategory("framework")
	require.Len(t, skills, 2)
	assert.Equal(t, "web-framework-react", skills[0].ID)
	assert.Equal(t, "web-framework-vue", skills[1].ID)

	assert.Empty(t, r.SkillsByCategory("web"), "parent categories do not include subcategory skills")
	assert.Empty(t, r.SkillsByCategory("nope"))
}

func TestCategoryTree(t *testing.T) {
	r := New(newTestMatrix())

	var top []string
	for _, c := range r.TopLevelCategories() {
		top = append(top, c.ID)
	}
	assert.Equal(t, []string{"web", "backend", "testing", "empty"}, top)

	var sub []string
	for _, c := range r.Subcategories("web") {
		sub = append(sub, c.ID)
	}
	assert.Equal(t, []string{"state", "framework"}, sub)

	assert.Empty(t, r.Subcategories("testing"))
}

func TestCanonical(t *testing.T) {
	r := New(newTestMatrix())
	assert.Equal(t,
		[]string{"web-framework-react", "testing-vitest", "unknown"},
		r.Canonical([]string{"react", "testing-vitest", "web-framework-react", "unknown"}),
	)
	assert.Empty(t, r.Canonical(nil))
}
