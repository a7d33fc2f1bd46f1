package matrix

import (
	"context"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/jingkaihe/skillstack/pkg/logger"
	"github.com/jingkaihe/skillstack/pkg/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

// Loader assembles a Matrix from the shared matrix file and the user's local
// skills directory
type Loader struct {
	matrixFile     string
	localSkillsDir string
	strictSchema   bool
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader) error

// WithMatrixFile sets the shared matrix YAML file
func WithMatrixFile(path string) LoaderOption {
	return func(l *Loader) error {
		if path == "" {
			return errors.New("matrix file path cannot be empty")
		}
		l.matrixFile = path
		return nil
	}
}

// WithLocalSkillsDir sets the directory holding local SKILL.md overrides.
// An empty path disables local skills.
func WithLocalSkillsDir(dir string) LoaderOption {
	return func(l *Loader) error {
		l.localSkillsDir = dir
		return nil
	}
}

// WithStrictSchema validates the matrix file against the JSON schema before
// building the matrix
func WithStrictSchema(strict bool) LoaderOption {
	return func(l *Loader) error {
		l.strictSchema = strict
		return nil
	}
}

// NewLoader creates a matrix loader
func NewLoader(opts ...LoaderOption) (*Loader, error) {
	l := &Loader{}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, errors.Wrap(err, "failed to apply loader option")
		}
	}
	if l.matrixFile == "" && l.localSkillsDir == "" {
		return nil, errors.New("either a matrix file or a local skills directory must be configured")
	}
	return l, nil
}

// Load reads every configured source and returns the merged matrix. Broken
// local skills are skipped and reported through the returned warnings error
// (a *multierror.Error), while a broken matrix file fails the load.
func (l *Loader) Load(ctx context.Context) (m *Matrix, warnings error, err error) {
	err = telemetry.WithSpan(ctx, "matrix.load", func(ctx context.Context) error {
		m = New("")
		if l.matrixFile != "" {
			shared, loadErr := LoadFile(ctx, l.matrixFile, l.strictSchema)
			if loadErr != nil {
				return loadErr
			}
			m = shared
		}

		if l.localSkillsDir != "" {
			local, scanErr := ScanLocalSkills(ctx, l.localSkillsDir)
			if scanErr != nil {
				warnings = scanErr
			}
			m.MergeLocal(local)
		}

		telemetry.SetAttributes(ctx,
			attribute.Int("matrix.skills", len(m.Skills)),
			attribute.Int("matrix.categories", len(m.Categories)),
		)
		return nil
	}, attribute.String("matrix.file", l.matrixFile))

	if err != nil {
		return nil, nil, err
	}
	return m, warnings, nil
}

// LoadFile parses a matrix YAML file
func LoadFile(ctx context.Context, path string, strict bool) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read matrix file %s", path)
	}

	if strict {
		violations, err := ValidateDocument(data)
		if err != nil {
			return nil, err
		}
		if len(violations) > 0 {
			var result *multierror.Error
			for _, v := range violations {
				result = multierror.Append(result, v)
			}
			return nil, errors.Wrapf(result, "matrix file %s does not match the schema", path)
		}
	}

	m, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse matrix file %s", path)
	}

	logger.G(ctx).
		WithField("path", path).
		WithField("skills", len(m.Skills)).
		WithField("categories", len(m.Categories)).
		Debug("loaded matrix file")

	return m, nil
}

// Parse builds a matrix from YAML bytes
func Parse(data []byte) (*Matrix, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal matrix")
	}
	if strings.TrimSpace(f.Version) == "" {
		return nil, errors.New("matrix version is required")
	}
	return f.Build(), nil
}

// MergeLocal overlays local skills onto the matrix. A local skill replaces a
// shared skill with the same ID.
func (m *Matrix) MergeLocal(local []*Skill) {
	if len(local) == 0 {
		return
	}
	for _, s := range local {
		s.Local = true
		m.AddSkill(s)
	}
	m.normalizeReferences()
	m.Link()
}
