// Package config holds the skillstack settings resolved by viper from flags,
// SKILLSTACK_* environment variables and config.yaml.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillstack/pkg/telemetry"
)

// ServeConfig holds the API server listen address
type ServeConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Config is the resolved runtime configuration
type Config struct {
	MatrixFile     string           `mapstructure:"matrix_file"`
	LocalSkillsDir string           `mapstructure:"local_skills_dir"`
	AgentMappings  string           `mapstructure:"agent_mappings"`
	ExpertMode     bool             `mapstructure:"expert_mode"`
	StrictSchema   bool             `mapstructure:"strict_schema"`
	DBPath         string           `mapstructure:"db_path"`
	Serve          ServeConfig      `mapstructure:"serve"`
	Tracing        telemetry.Config `mapstructure:"tracing"`
}

var envReplacer = strings.NewReplacer(".", "_")

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("matrix_file", "")
	v.SetDefault("local_skills_dir", "")
	v.SetDefault("agent_mappings", "")
	v.SetDefault("expert_mode", false)
	v.SetDefault("strict_schema", false)
	v.SetDefault("db_path", "")
	v.SetDefault("serve.host", "localhost")
	v.SetDefault("serve.port", 8080)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "skillstack")
	v.SetDefault("tracing.sampler", "ratio")
	v.SetDefault("tracing.sampler_ratio", 1.0)
}

// Init prepares v for skillstack: env prefix, defaults and config search
// paths. A missing config file is not an error.
func Init(v *viper.Viper) error {
	v.SetEnvPrefix("SKILLSTACK")
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()
	SetDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.skillstack")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "failed to read config file")
	}
	return nil
}

// Load decodes the settings held by v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}
	cfg.MatrixFile = expandHome(cfg.MatrixFile)
	cfg.LocalSkillsDir = expandHome(cfg.LocalSkillsDir)
	cfg.AgentMappings = expandHome(cfg.AgentMappings)
	cfg.DBPath = expandHome(cfg.DBPath)
	return &cfg, nil
}

// BaseDir returns the skillstack home directory. SKILLSTACK_BASE_PATH
// overrides ~/.skillstack.
func BaseDir() (string, error) {
	if base := os.Getenv("SKILLSTACK_BASE_PATH"); base != "" {
		return base, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, ".skillstack"), nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
