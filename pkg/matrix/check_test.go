package matrix

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCleanMatrix(t *testing.T) {
	m, err := LoadFile(context.Background(), filepath.Join("testdata", "matrix.yaml"), false)
	require.NoError(t, err)

	diags := Check(m)
	assert.False(t, HasErrors(diags))
	assert.Empty(t, diags)
}

func TestCheck(t *testing.T) {
	m := New("1")
	m.AddCategory(&Category{ID: "a", Parent: "b"})
	m.AddCategory(&Category{ID: "b", Parent: "a"})
	m.AddCategory(&Category{ID: "orphan", Parent: "ghost"})
	m.AddCategory(&Category{ID: "ok"})
	m.AddSkill(&Skill{ID: "s1", Category: "ok", ConflictsWith: []Relation{{SkillID: "missing"}}})
	m.AddSkill(&Skill{ID: "s2", Category: "nowhere"})
	m.AddSkill(&Skill{ID: "s3"})
	m.AddAlias("stray", "gone")
	m.AddStack(&Stack{ID: "stack", Skills: []string{"s1", "nope"}})
	m.Link()

	diags := Check(m)
	require.True(t, HasErrors(diags))

	var errs, warns []Diagnostic
	for _, d := range diags {
		if d.Severity == SeverityError {
			errs = append(errs, d)
		} else {
			warns = append(warns, d)
		}
	}

	assert.Equal(t, []Diagnostic{
		{Severity: SeverityError, Subject: "a", Message: "category parent cycle: [a b a]"},
		{Severity: SeverityError, Subject: "b", Message: "category parent cycle: [b a b]"},
		{Severity: SeverityError, Subject: "orphan", Message: `parent category "ghost" does not exist`},
		{Severity: SeverityError, Subject: "s2", Message: `category "nowhere" does not exist`},
		{Severity: SeverityError, Subject: "s3", Message: "skill has no category"},
	}, errs)

	assert.Equal(t, []Diagnostic{
		{Severity: SeverityWarning, Subject: "s1", Message: `conflicts_with references unknown skill "missing"`},
		{Severity: SeverityWarning, Subject: "stray", Message: `alias points at unknown skill "gone"`},
		{Severity: SeverityWarning, Subject: "stack", Message: `stack references unknown skill "nope"`},
	}, warns)
}
