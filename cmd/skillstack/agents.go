package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillstack/pkg/presenter"
)

var agentsCmd = &cobra.Command{
	Use:   "agents [skills...]",
	Short: "Show which agents receive which skills",
	Long: `Without arguments, print the agent mapping rules in effect. With skills, split
them between the agents that receive them.

Rules come from --agent-mappings (agent-mappings.yaml) or the built-in table.`,
	Run: func(cmd *cobra.Command, args []string) {
		env, err := loadEnv(cmd.Context())
		if err != nil {
			presenter.Error(err, "Failed to load matrix")
			os.Exit(1)
		}
		mappings, err := loadMappings(env.cfg)
		if err != nil {
			presenter.Error(err, "Failed to load agent mappings")
			os.Exit(1)
		}

		skills := splitSkills(args)
		if len(skills) == 0 {
			presenter.Section(fmt.Sprintf("Agent mappings (%s)", mappings.Source))
			for _, rule := range mappings.Rules {
				var matchers []string
				if len(rule.Categories) > 0 {
					matchers = append(matchers, "categories: "+strings.Join(rule.Categories, ", "))
				}
				if len(rule.Tags) > 0 {
					matchers = append(matchers, "tags: "+strings.Join(rule.Tags, ", "))
				}
				presenter.Info(fmt.Sprintf("%s  %s", rule.Agent, strings.Join(matchers, "; ")))
			}
			if mappings.Fallback != "" {
				presenter.Info(fmt.Sprintf("%s  (fallback)", mappings.Fallback))
			}
			return
		}

		for _, ref := range unknownSkills(env.resolver, skills) {
			presenter.Warning(fmt.Sprintf("Unknown skill %q is ignored", ref))
		}
		printPartition(mappings.Partition(env.matrix(), env.resolver.Canonical(skills)))
	},
}
