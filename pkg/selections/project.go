package selections

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
	"gopkg.in/yaml.v3"
)

// ProjectFile is the selection file kept inside a project
const ProjectFile = ".skillstack/selection.yaml"

// Project is the active selection of a working directory
type Project struct {
	// Source names the saved selection or stack the project was set from
	Source     string   `yaml:"source,omitempty"`
	Skills     []string `yaml:"skills"`
	ExpertMode bool     `yaml:"expert_mode,omitempty"`
}

// ProjectPath returns the selection file path for a project directory
func ProjectPath(dir string) string {
	return filepath.Join(dir, ProjectFile)
}

// ReadProject reads the selection file in dir. A missing file yields an
// empty project.
func ReadProject(dir string) (*Project, error) {
	path := ProjectPath(dir)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Project{Skills: []string{}}, nil
	}

	data, err := lockedfile.Read(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	return &p, nil
}

// WriteProject replaces the selection file in dir
func WriteProject(dir string, p *Project) error {
	path := ProjectPath(dir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create project directory")
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "failed to marshal project selection")
	}
	if err := lockedfile.Write(path, bytes.NewReader(data), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// UpdateProject applies fn to the project selection under the file lock
func UpdateProject(dir string, fn func(*Project) error) error {
	path := ProjectPath(dir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create project directory")
	}

	return lockedfile.Transform(path, func(data []byte) ([]byte, error) {
		p := &Project{}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, p); err != nil {
				return nil, errors.Wrapf(err, "failed to parse %s", path)
			}
		}
		if err := fn(p); err != nil {
			return nil, err
		}
		return yaml.Marshal(p)
	})
}
