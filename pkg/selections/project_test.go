package selections

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectReadWrite(t *testing.T) {
	dir := t.TempDir()

	p, err := ReadProject(dir)
	require.NoError(t, err)
	assert.Empty(t, p.Skills)

	require.NoError(t, WriteProject(dir, &Project{Source: "stack:react-spa", Skills: []string{"react", "vitest"}}))

	p, err = ReadProject(dir)
	require.NoError(t, err)
	assert.Equal(t, "stack:react-spa", p.Source)
	assert.Equal(t, []string{"react", "vitest"}, p.Skills)

	require.NoError(t, UpdateProject(dir, func(p *Project) error {
		p.Skills = append(p.Skills, "zustand")
		p.ExpertMode = true
		return nil
	}))

	p, err = ReadProject(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"react", "vitest", "zustand"}, p.Skills)
	assert.True(t, p.ExpertMode)
}

func TestReadProjectInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(dir+"/.skillstack", 0o755))
	require.NoError(t, os.WriteFile(ProjectPath(dir), []byte("skills: {nope"), 0o644))

	_, err := ReadProject(dir)
	require.Error(t, err)
}
