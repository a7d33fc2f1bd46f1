package matrix

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/jingkaihe/skillstack/pkg/logger"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

const skillFileName = "SKILL.md"

// ScanLocalSkills discovers every SKILL.md below dir and converts its
// frontmatter into a skill. A missing directory yields no skills. Skills that
// fail to load are skipped and returned as a *multierror.Error alongside the
// ones that loaded.
func ScanLocalSkills(ctx context.Context, dir string) ([]*Skill, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), "**/"+skillFileName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan local skills in %s", dir)
	}
	sort.Strings(matches)

	var (
		skills []*Skill
		result *multierror.Error
	)
	for _, match := range matches {
		skillPath := filepath.Join(dir, filepath.FromSlash(match))
		skill, err := loadLocalSkill(skillPath, path.Base(path.Dir(match)))
		if err != nil {
			logger.G(ctx).WithError(err).WithField("path", skillPath).Warn("skipping local skill")
			result = multierror.Append(result, errors.Wrapf(err, "%s", skillPath))
			continue
		}
		skills = append(skills, skill)
	}

	return skills, result.ErrorOrNil()
}

// loadLocalSkill reads one SKILL.md. dirName is used as the ID when the
// frontmatter does not set one.
func loadLocalSkill(skillPath, dirName string) (*Skill, error) {
	content, err := os.ReadFile(skillPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	metaData, err := meta.TryGet(pctx)
	if err != nil {
		return nil, errors.Wrap(err, "invalid frontmatter")
	}
	if metaData == nil {
		return nil, errors.New("missing frontmatter")
	}

	var entry SkillEntry
	if err := mapstructure.Decode(metaData, &entry); err != nil {
		return nil, errors.Wrap(err, "failed to decode frontmatter")
	}

	if entry.Name == "" {
		return nil, errors.New("skill name is required in frontmatter")
	}
	if entry.Category == "" {
		return nil, errors.New("skill category is required in frontmatter")
	}

	key := dirName
	if key == "." || key == "" {
		key = entry.Name
	}

	skill := entry.ToSkill(key)
	skill.Path = filepath.Dir(skillPath)
	return skill, nil
}
