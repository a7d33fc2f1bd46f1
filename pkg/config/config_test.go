package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Serve.Host)
	assert.Equal(t, 8080, cfg.Serve.Port)
	assert.False(t, cfg.ExpertMode)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "ratio", cfg.Tracing.SamplerType)
	assert.Equal(t, 1.0, cfg.Tracing.SamplerRatio)
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
matrix_file: ~/skills/matrix.yaml
local_skills_dir: /srv/skills
expert_mode: true
serve:
  port: 9090
tracing:
  enabled: true
  sampler: always
`), 0o644))

	t.Setenv("SKILLSTACK_STRICT_SCHEMA", "true")
	t.Setenv("SKILLSTACK_SERVE_HOST", "0.0.0.0")

	v := viper.New()
	v.SetEnvPrefix("SKILLSTACK")
	v.AutomaticEnv()
	SetDefaults(v)
	v.SetEnvKeyReplacer(envReplacer)
	v.SetConfigFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, "skills", "matrix.yaml"), cfg.MatrixFile)
	assert.Equal(t, "/srv/skills", cfg.LocalSkillsDir)
	assert.True(t, cfg.ExpertMode)
	assert.True(t, cfg.StrictSchema)
	assert.Equal(t, "0.0.0.0", cfg.Serve.Host)
	assert.Equal(t, 9090, cfg.Serve.Port)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "always", cfg.Tracing.SamplerType)
}

func TestInitWithoutConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	v := viper.New()
	require.NoError(t, Init(v))
	assert.Equal(t, 8080, v.GetInt("serve.port"))
}

func TestBaseDir(t *testing.T) {
	t.Setenv("SKILLSTACK_BASE_PATH", "/custom/base")
	dir, err := BaseDir()
	require.NoError(t, err)
	assert.Equal(t, "/custom/base", dir)

	t.Setenv("SKILLSTACK_BASE_PATH", "")
	dir, err = BaseDir()
	require.NoError(t, err)
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".skillstack"), dir)
}

func TestExpandHome(t *testing.T) {
	home, _ := os.UserHomeDir()
	assert.Equal(t, home, expandHome("~"))
	assert.Equal(t, filepath.Join(home, "a"), expandHome("~/a"))
	assert.Equal(t, "~other/a", expandHome("~other/a"))
	assert.Equal(t, "", expandHome(""))
}
