// Package defaults maps skills onto the agents that receive them. Mappings
// come from an agent-mappings.yaml file when one exists and fall back to a
// built-in table otherwise.
package defaults

import (
	"os"
	"sort"
	"sync"

	"github.com/gobwas/glob"
	"github.com/jingkaihe/skillstack/pkg/matrix"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AgentRule assigns skills to an agent by category and tag patterns
type AgentRule struct {
	Agent       string   `yaml:"agent"`
	Description string   `yaml:"description,omitempty"`
	Categories  []string `yaml:"categories,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`

	categoryGlobs []glob.Glob
	tagGlobs      []glob.Glob
}

// Mappings is a compiled set of agent rules
type Mappings struct {
	Version string      `yaml:"version"`
	Rules   []AgentRule `yaml:"agents"`
	// Fallback receives skills no rule matches. Empty drops them.
	Fallback string `yaml:"fallback,omitempty"`
	// Source records where the mappings came from
	Source string `yaml:"-"`
}

// Builtin returns the mappings used when no mappings file is configured
func Builtin() *Mappings {
	m := &Mappings{
		Version: "1",
		Rules: []AgentRule{
			{Agent: "frontend-developer", Description: "UI, styling and client state", Categories: []string{"web", "web/*", "framework", "styling", "state", "client-*"}},
			{Agent: "backend-developer", Description: "APIs, databases and auth", Categories: []string{"api", "api/*", "backend", "database", "auth", "server-*"}},
			{Agent: "tester", Description: "Test runners and strategies", Categories: []string{"testing", "testing/*"}, Tags: []string{"testing", "e2e"}},
			{Agent: "reviewer", Description: "Code review conventions", Tags: []string{"review", "lint*"}},
		},
		Fallback: "generalist",
		Source:   "builtin",
	}
	// The builtin patterns are static and known to compile
	_ = m.compile()
	return m
}

// Parse decodes and compiles mappings from YAML
func Parse(data []byte) (*Mappings, error) {
	var m Mappings
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal agent mappings")
	}
	if len(m.Rules) == 0 {
		return nil, errors.New("agent mappings must define at least one agent")
	}
	if err := m.compile(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Mappings) compile() error {
	for i := range m.Rules {
		rule := &m.Rules[i]
		if rule.Agent == "" {
			return errors.Errorf("agent rule %d has no agent name", i)
		}
		rule.categoryGlobs = rule.categoryGlobs[:0]
		rule.tagGlobs = rule.tagGlobs[:0]
		for _, pattern := range rule.Categories {
			g, err := glob.Compile(pattern, '/')
			if err != nil {
				return errors.Wrapf(err, "invalid category pattern %q for agent %s", pattern, rule.Agent)
			}
			rule.categoryGlobs = append(rule.categoryGlobs, g)
		}
		for _, pattern := range rule.Tags {
			g, err := glob.Compile(pattern)
			if err != nil {
				return errors.Wrapf(err, "invalid tag pattern %q for agent %s", pattern, rule.Agent)
			}
			rule.tagGlobs = append(rule.tagGlobs, g)
		}
	}
	return nil
}

// matches reports whether the rule applies to a skill. categoryPath is the
// skill's category with its ancestors, e.g. "web/framework".
func (r *AgentRule) matches(s *matrix.Skill, categoryPath string) bool {
	for _, g := range r.categoryGlobs {
		if g.Match(s.Category) || g.Match(categoryPath) {
			return true
		}
	}
	for _, g := range r.tagGlobs {
		for _, tag := range s.Tags {
			if g.Match(tag) {
				return true
			}
		}
	}
	return false
}

// AgentsForSkill returns every agent receiving the skill, in rule order.
// Unmatched skills go to the fallback agent, if any.
func (m *Mappings) AgentsForSkill(mx *matrix.Matrix, s *matrix.Skill) []string {
	path := CategoryPath(mx, s.Category)

	var agents []string
	for i := range m.Rules {
		if m.Rules[i].matches(s, path) {
			agents = append(agents, m.Rules[i].Agent)
		}
	}
	if len(agents) == 0 && m.Fallback != "" {
		agents = append(agents, m.Fallback)
	}
	return agents
}

// Partition groups skill IDs by receiving agent. Unknown skills are skipped.
func (m *Mappings) Partition(mx *matrix.Matrix, skillIDs []string) map[string][]string {
	out := make(map[string][]string)
	for _, id := range skillIDs {
		s, ok := mx.Skill(id)
		if !ok {
			continue
		}
		for _, agent := range m.AgentsForSkill(mx, s) {
			out[agent] = append(out[agent], s.ID)
		}
	}
	return out
}

// Agents returns the agent names in a partition, sorted
func Agents(partition map[string][]string) []string {
	names := make([]string, 0, len(partition))
	for name := range partition {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CategoryPath joins a category with its ancestors, root first. Walking stops
// at unknown parents and at revisited categories.
func CategoryPath(mx *matrix.Matrix, categoryID string) string {
	path := categoryID
	seen := map[string]bool{categoryID: true}
	current, ok := mx.Category(categoryID)
	for ok && current.Parent != "" && !seen[current.Parent] {
		seen[current.Parent] = true
		path = current.Parent + "/" + path
		current, ok = mx.Category(current.Parent)
	}
	return path
}

// Loader reads mappings from a file and caches the result until Invalidate
// is called. A Loader with no path always serves the builtin mappings.
type Loader struct {
	path string

	mu     sync.Mutex
	cached *Mappings
}

// NewLoader creates a mappings loader for path
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load returns the cached mappings, reading them on first use. A configured
// but missing file falls back to the builtin mappings.
func (l *Loader) Load() (*Mappings, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil {
		return l.cached, nil
	}

	if l.path == "" {
		l.cached = Builtin()
		return l.cached, nil
	}

	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		l.cached = Builtin()
		return l.cached, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read agent mappings %s", l.path)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid agent mappings %s", l.path)
	}
	m.Source = l.path
	l.cached = m
	return m, nil
}

// Invalidate drops the cached mappings so the next Load re-reads the file
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
}
