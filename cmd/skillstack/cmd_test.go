package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillstack/pkg/config"
	"github.com/jingkaihe/skillstack/pkg/matrix"
	"github.com/jingkaihe/skillstack/pkg/resolver"
	"github.com/jingkaihe/skillstack/pkg/selections"
	"github.com/jingkaihe/skillstack/pkg/server"
)

func newTestEnv(t *testing.T) *appEnv {
	t.Helper()
	m, err := matrix.LoadFile(context.Background(), filepath.Join("..", "..", "pkg", "matrix", "testdata", "matrix.yaml"), false)
	require.NoError(t, err)
	return &appEnv{cfg: &config.Config{DBPath: filepath.Join(t.TempDir(), "storage.db")}, resolver: resolver.New(m)}
}

func TestSplitSkills(t *testing.T) {
	assert.Equal(t, []string{"react", "zustand", "vitest"}, splitSkills([]string{"react, zustand", "", "vitest,"}))
	assert.Nil(t, splitSkills(nil))
}

func TestFilterSkills(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		config   *ListConfig
		expected []string
	}{
		{"all", &ListConfig{}, []string{"web-framework-react", "web-framework-vue", "web-state-zustand", "web-state-query", "testing-vitest", "testing-jest", "testing-setup"}},
		{"category", &ListConfig{Category: "framework"}, []string{"web-framework-react", "web-framework-vue"}},
		{"glob on id", &ListConfig{Filter: "testing-*"}, []string{"testing-vitest", "testing-jest", "testing-setup"}},
		{"glob on alias", &ListConfig{Filter: "{vue,jest}"}, []string{"web-framework-vue", "testing-jest"}},
		{"case insensitive", &ListConfig{Filter: "*REACT*"}, []string{"web-framework-react"}},
		{"local only", &ListConfig{Local: true}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skills, err := filterSkills(env.matrix(), tt.config)
			require.NoError(t, err)
			var ids []string
			for _, s := range skills {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}

	_, err := filterSkills(env.matrix(), &ListConfig{Filter: "[unclosed"})
	assert.Error(t, err)
}

func TestCheckSkill(t *testing.T) {
	env := newTestEnv(t)

	result := checkSkill(env.resolver, "zustand", []string{"vue"}, resolver.Options{})
	assert.Equal(t, "web-state-zustand", result.Skill)
	assert.True(t, result.Disabled)
	assert.NotEmpty(t, result.DisabledReason)

	result = checkSkill(env.resolver, "zustand", []string{"vue"}, resolver.Options{ExpertMode: true})
	assert.False(t, result.Disabled)
	assert.NotEmpty(t, result.DisabledReason, "expert mode keeps the explanation")

	result = checkSkill(env.resolver, "zustand", []string{"react"}, resolver.Options{})
	assert.False(t, result.Disabled)
	assert.True(t, result.Recommended)
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, NewValidateConfig().Validate())
	assert.Error(t, (&ValidateConfig{Stack: "a", Saved: "b"}).Validate())
	assert.Error(t, (&ValidateConfig{DebounceTime: -1}).Validate())
}

func TestCollectSelection(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	t.Run("stack then arguments", func(t *testing.T) {
		sel, err := collectSelection(ctx, env, []string{"jest"}, &ValidateConfig{Stack: "react-spa"})
		require.NoError(t, err)
		assert.Equal(t, []string{"web-framework-react", "web-state-zustand", "testing-vitest", "jest"}, sel)
	})

	t.Run("unknown stack", func(t *testing.T) {
		_, err := collectSelection(ctx, env, nil, &ValidateConfig{Stack: "nope"})
		assert.Error(t, err)
	})

	t.Run("project file when nothing else is given", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, selections.WriteProject(dir, &selections.Project{Skills: []string{"vue"}}))

		sel, err := collectSelection(ctx, env, nil, &ValidateConfig{ProjectDir: dir})
		require.NoError(t, err)
		assert.Equal(t, []string{"vue"}, sel)

		sel, err = collectSelection(ctx, env, []string{"react"}, &ValidateConfig{ProjectDir: dir})
		require.NoError(t, err)
		assert.Equal(t, []string{"react"}, sel, "arguments replace the project file")
	})

	t.Run("saved selection", func(t *testing.T) {
		store, err := openStore(ctx, env.cfg)
		require.NoError(t, err)
		_, err = store.Save(ctx, selections.Selection{Name: "front", Skills: []string{"web-framework-vue"}})
		require.NoError(t, err)
		require.NoError(t, store.Close())

		sel, err := collectSelection(ctx, env, []string{"query"}, &ValidateConfig{Saved: "front"})
		require.NoError(t, err)
		assert.Equal(t, []string{"web-framework-vue", "query"}, sel)

		_, err = collectSelection(ctx, env, nil, &ValidateConfig{Saved: "missing"})
		assert.Error(t, err)
	})
}

func TestBuildReport(t *testing.T) {
	env := newTestEnv(t)

	report := buildReport(env, []string{"react", "vue", "react", "ghost"}, nil)
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"web-framework-react", "web-framework-vue", "ghost"}, report.Skills)
	assert.Equal(t, []string{"ghost"}, report.Unknown)
	assert.Nil(t, report.Agents)
}

func TestWatchTargets(t *testing.T) {
	local := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(local, "team", "skill"), 0o755))

	matrixFile := filepath.Join(t.TempDir(), "matrix.yaml")
	project := t.TempDir()

	dirs, files := watchTargets(&config.Config{MatrixFile: matrixFile, LocalSkillsDir: local}, &ValidateConfig{ProjectDir: project})
	assert.True(t, files[matrixFile])
	assert.True(t, files[selections.ProjectPath(project)])
	assert.Contains(t, dirs, filepath.Dir(matrixFile))
	assert.Contains(t, dirs, filepath.Join(local, "team", "skill"))

	assert.True(t, relevant(fsnotify.Event{Name: matrixFile, Op: fsnotify.Write}, files))
	assert.True(t, relevant(fsnotify.Event{Name: filepath.Join(local, "team", "skill", "SKILL.md"), Op: fsnotify.Create}, files))
	assert.False(t, relevant(fsnotify.Event{Name: matrixFile, Op: fsnotify.Chmod}, files))
	assert.False(t, relevant(fsnotify.Event{Name: filepath.Join(local, "README.md"), Op: fsnotify.Write}, files))
}

func TestFormatOption(t *testing.T) {
	assert.Equal(t, "[*] React (react)", formatOption(resolver.SkillOption{Name: "React", Alias: "react", Selected: true}))
	assert.Equal(t, "[x] Vue  disabled: Pick one (conflicts with React)",
		formatOption(resolver.SkillOption{Name: "Vue", Disabled: true, DisabledReason: "Pick one (conflicts with React)"}))
	assert.Equal(t, "[+] Zustand  recommended: Lightweight state (recommended by React)",
		formatOption(resolver.SkillOption{Name: "Zustand", Recommended: true, RecommendedReason: "Lightweight state (recommended by React)"}))
}

func TestValidateServeConfig(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, validateServeConfig(ctx, &server.Config{Host: "localhost", Port: 8080}))
	assert.NoError(t, validateServeConfig(ctx, &server.Config{Host: "127.0.0.1", Port: 80}))
	assert.Error(t, validateServeConfig(ctx, &server.Config{Host: "bad host", Port: 8080}))
	assert.Error(t, validateServeConfig(ctx, &server.Config{Host: "localhost", Port: 0}))
}
