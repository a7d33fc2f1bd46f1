package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillstack/pkg/matrix"
	"github.com/jingkaihe/skillstack/pkg/presenter"
)

var infoCmd = &cobra.Command{
	Use:   "info <skill>",
	Short: "Show a skill and its relationships",
	Long:  `Show the details of a skill, referenced by ID or alias, including every relationship it declares or receives.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		asJSON, _ := cmd.Flags().GetBool("json")

		env, err := loadEnv(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load matrix")
			os.Exit(1)
		}

		m := env.matrix()
		skill, ok := m.Skill(env.resolver.ResolveAlias(args[0]))
		if !ok {
			presenter.Error(errors.Errorf("unknown skill %q", args[0]), "")
			os.Exit(1)
		}

		if asJSON {
			data, err := json.MarshalIndent(skill, "", "  ")
			if err != nil {
				presenter.Error(err, "Failed to encode skill")
				os.Exit(1)
			}
			fmt.Println(string(data))
			return
		}

		printSkill(m, skill)

		if mappings, err := loadMappings(env.cfg); err == nil {
			if agents := mappings.AgentsForSkill(m, skill); len(agents) > 0 {
				fmt.Printf("\nAgents: %s\n", strings.Join(agents, ", "))
			}
		}
	},
}

func init() {
	infoCmd.Flags().Bool("json", false, "Print the skill as JSON")
}

func printSkill(m *matrix.Matrix, s *matrix.Skill) {
	presenter.Section(s.DisplayName())
	fmt.Printf("ID:        %s\n", s.ID)
	if s.Alias != "" {
		fmt.Printf("Alias:     %s\n", s.Alias)
	}
	category := s.Category
	if c, ok := m.Category(s.Category); ok && c.Name != "" {
		category = fmt.Sprintf("%s (%s)", c.Name, c.ID)
	}
	fmt.Printf("Category:  %s\n", category)
	if s.Author != "" {
		fmt.Printf("Author:    %s\n", s.Author)
	}
	if len(s.Tags) > 0 {
		fmt.Printf("Tags:      %s\n", strings.Join(s.Tags, ", "))
	}
	if s.Local {
		fmt.Printf("Source:    local (%s)\n", s.Path)
	}
	if s.Description != "" {
		fmt.Printf("\n%s\n", s.Description)
	}

	printRelations(m, "Conflicts with", s.ConflictsWith)
	for _, req := range s.Requires {
		names := make([]string, 0, len(req.SkillIDs))
		for _, id := range req.SkillIDs {
			names = append(names, m.SkillName(id))
		}
		joiner := ", "
		label := "Requires"
		if req.Kind == matrix.RequireAny {
			joiner = " or "
			label = "Requires one of"
		}
		fmt.Printf("\n%s: %s", label, strings.Join(names, joiner))
		if req.Reason != "" {
			fmt.Printf(" (%s)", req.Reason)
		}
		fmt.Println()
	}
	printRelations(m, "Required by", s.RequiredBy)
	printRelations(m, "Recommends", s.Recommends)
	printRelations(m, "Recommended by", s.RecommendedBy)
	printRelations(m, "Discourages", s.Discourages)

	if len(s.Alternatives) > 0 {
		fmt.Println("\nAlternatives:")
		for _, alt := range s.Alternatives {
			fmt.Printf("  - %s", m.SkillName(alt.SkillID))
			if alt.Purpose != "" {
				fmt.Printf(" (%s)", alt.Purpose)
			}
			fmt.Println()
		}
	}
	if len(s.RequiresSetup) > 0 {
		fmt.Printf("\nSetup from: %s\n", joinNames(m, s.RequiresSetup))
	}
	if len(s.ProvidesSetupFor) > 0 {
		fmt.Printf("\nProvides setup for: %s\n", joinNames(m, s.ProvidesSetupFor))
	}
}

func printRelations(m *matrix.Matrix, label string, rels []matrix.Relation) {
	if len(rels) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", label)
	for _, rel := range rels {
		fmt.Printf("  - %s", m.SkillName(rel.SkillID))
		if rel.Reason != "" {
			fmt.Printf(": %s", rel.Reason)
		}
		fmt.Println()
	}
}

func joinNames(m *matrix.Matrix, ids []string) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, m.SkillName(id))
	}
	return strings.Join(names, ", ")
}
