package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillstack/pkg/config"
	"github.com/jingkaihe/skillstack/pkg/db"
	"github.com/jingkaihe/skillstack/pkg/defaults"
	"github.com/jingkaihe/skillstack/pkg/logger"
	"github.com/jingkaihe/skillstack/pkg/matrix"
	"github.com/jingkaihe/skillstack/pkg/presenter"
	"github.com/jingkaihe/skillstack/pkg/resolver"
	"github.com/jingkaihe/skillstack/pkg/selections"
)

// appEnv is everything a catalog command needs: the resolved configuration
// and a resolver over the loaded matrix
type appEnv struct {
	cfg      *config.Config
	resolver *resolver.Resolver
}

func (e *appEnv) matrix() *matrix.Matrix {
	return e.resolver.Matrix()
}

func (e *appEnv) options() resolver.Options {
	return resolver.Options{ExpertMode: e.cfg.ExpertMode}
}

// loadEnv reads configuration and loads the matrix. Local skills that fail
// to load are reported as warnings and skipped.
func loadEnv(ctx context.Context) (*appEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	m, err := loadMatrix(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &appEnv{cfg: cfg, resolver: resolver.New(m)}, nil
}

func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

func loadMatrix(ctx context.Context, cfg *config.Config) (*matrix.Matrix, error) {
	var opts []matrix.LoaderOption
	if cfg.MatrixFile != "" {
		opts = append(opts, matrix.WithMatrixFile(cfg.MatrixFile))
	}
	if cfg.LocalSkillsDir != "" {
		opts = append(opts, matrix.WithLocalSkillsDir(cfg.LocalSkillsDir))
	}
	opts = append(opts, matrix.WithStrictSchema(cfg.StrictSchema))

	loader, err := matrix.NewLoader(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "no skills source configured, set --matrix or --local-skills")
	}

	m, warnings, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if merr, ok := warnings.(*multierror.Error); ok {
		for _, w := range merr.Errors {
			presenter.Warning(w.Error())
		}
	}

	logger.G(ctx).WithField("skills", len(m.Skills)).WithField("version", m.Version).Debug("loaded matrix")
	return m, nil
}

func loadMappings(cfg *config.Config) (*defaults.Mappings, error) {
	return defaults.NewLoader(cfg.AgentMappings).Load()
}

func openStore(ctx context.Context, cfg *config.Config) (*selections.Store, error) {
	path := cfg.DBPath
	if path == "" {
		var err error
		if path, err = db.DefaultDBPath(); err != nil {
			return nil, err
		}
	}
	return selections.NewStore(ctx, path)
}

// splitSkills flattens comma separated arguments into skill references
func splitSkills(args []string) []string {
	var out []string
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// unknownSkills returns the references that resolve to no skill
func unknownSkills(r *resolver.Resolver, refs []string) []string {
	var unknown []string
	for _, ref := range refs {
		if _, ok := r.Matrix().Skill(r.ResolveAlias(ref)); !ok {
			unknown = append(unknown, ref)
		}
	}
	return unknown
}

func skillLabel(s *matrix.Skill) string {
	if s.Alias != "" {
		return fmt.Sprintf("%s (%s)", s.DisplayName(), s.Alias)
	}
	return s.DisplayName()
}
