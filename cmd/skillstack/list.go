package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillstack/pkg/matrix"
	"github.com/jingkaihe/skillstack/pkg/presenter"
)

// ListConfig holds configuration for the list command
type ListConfig struct {
	Category string
	Filter   string
	Local    bool
}

// NewListConfig creates a ListConfig with default values
func NewListConfig() *ListConfig {
	return &ListConfig{}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the skills in the matrix",
	Long: `List every skill of the loaded matrix with its alias and category.

--filter takes a glob matched against the skill ID, alias and name, e.g.
  skillstack list --filter 'web-*'
  skillstack list --filter '*{react,vue}*'`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getListConfigFromFlags(cmd)

		env, err := loadEnv(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load matrix")
			os.Exit(1)
		}

		skills, err := filterSkills(env.matrix(), config)
		if err != nil {
			presenter.Error(err, "Invalid filter")
			os.Exit(1)
		}
		if len(skills) == 0 {
			presenter.Info("No skills found")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tALIAS\tNAME\tCATEGORY\tSOURCE")
		for _, s := range skills {
			source := "matrix"
			if s.Local {
				source = "local"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.ID, dash(s.Alias), s.DisplayName(), s.Category, source)
		}
		w.Flush()
	},
}

func init() {
	defaults := NewListConfig()
	listCmd.Flags().StringP("category", "c", defaults.Category, "Only list skills of this category")
	listCmd.Flags().StringP("filter", "f", defaults.Filter, "Glob matched against skill ID, alias and name")
	listCmd.Flags().Bool("local", defaults.Local, "Only list local skills")
}

func getListConfigFromFlags(cmd *cobra.Command) *ListConfig {
	config := NewListConfig()
	if category, err := cmd.Flags().GetString("category"); err == nil {
		config.Category = category
	}
	if filter, err := cmd.Flags().GetString("filter"); err == nil {
		config.Filter = filter
	}
	if local, err := cmd.Flags().GetBool("local"); err == nil {
		config.Local = local
	}
	return config
}

// filterSkills returns the matching skills in declaration order
func filterSkills(m *matrix.Matrix, config *ListConfig) ([]*matrix.Skill, error) {
	var pattern glob.Glob
	if config.Filter != "" {
		g, err := glob.Compile(strings.ToLower(config.Filter))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid filter %q", config.Filter)
		}
		pattern = g
	}

	var out []*matrix.Skill
	for _, id := range m.SkillIDs() {
		s, _ := m.Skill(id)
		if config.Category != "" && s.Category != config.Category {
			continue
		}
		if config.Local && !s.Local {
			continue
		}
		if pattern != nil && !matchesAny(pattern, s.ID, s.Alias, s.Name) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func matchesAny(g glob.Glob, values ...string) bool {
	for _, v := range values {
		if v != "" && g.Match(strings.ToLower(v)) {
			return true
		}
	}
	return false
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
