package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillstack/pkg/presenter"
	"github.com/jingkaihe/skillstack/pkg/resolver"
)

// CheckResult is the state of one skill against a selection
type CheckResult struct {
	Skill             string `json:"skill"`
	Disabled          bool   `json:"disabled"`
	DisabledReason    string `json:"disabledReason,omitempty"`
	Discouraged       bool   `json:"discouraged"`
	DiscouragedReason string `json:"discouragedReason,omitempty"`
	Recommended       bool   `json:"recommended"`
	RecommendedReason string `json:"recommendedReason,omitempty"`
}

var checkCmd = &cobra.Command{
	Use:   "check <skill>",
	Short: "Check whether a skill can join a selection",
	Long: `Report whether a skill would be disabled, discouraged or recommended given the
skills already selected.

Examples:
  skillstack check zustand --with vue
  skillstack check jest --with vitest --expert`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		with, _ := cmd.Flags().GetStringSlice("with")

		env, err := loadEnv(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load matrix")
			os.Exit(1)
		}
		if unknown := unknownSkills(env.resolver, args); len(unknown) > 0 {
			presenter.Error(errors.Errorf("unknown skill %q", unknown[0]), "")
			os.Exit(1)
		}

		result := checkSkill(env.resolver, args[0], splitSkills(with), env.options())
		printCheckResult(result)
		if result.Disabled {
			os.Exit(1)
		}
	},
}

func init() {
	checkCmd.Flags().StringSlice("with", nil, "Skills already selected (IDs or aliases)")
}

func checkSkill(r *resolver.Resolver, skill string, selection []string, opts resolver.Options) CheckResult {
	id := r.ResolveAlias(skill)
	result := CheckResult{
		Skill:    id,
		Disabled: r.IsDisabled(id, selection, opts),
	}
	// Expert mode still explains what would have disabled the skill
	result.DisabledReason = r.DisableReason(id, selection)
	if result.Discouraged = r.IsDiscouraged(id, selection); result.Discouraged {
		result.DiscouragedReason = r.DiscourageReason(id, selection)
	}
	if result.Recommended = r.IsRecommended(id, selection); result.Recommended {
		result.RecommendedReason = r.RecommendReason(id, selection)
	}
	return result
}

func printCheckResult(result CheckResult) {
	switch {
	case result.Disabled:
		presenter.Error(errors.New(result.DisabledReason), fmt.Sprintf("%s is disabled", result.Skill))
	case result.DisabledReason != "":
		presenter.Warning(fmt.Sprintf("%s would be disabled outside expert mode: %s", result.Skill, result.DisabledReason))
	default:
		presenter.Success(fmt.Sprintf("%s can be selected", result.Skill))
	}
	if result.Discouraged {
		presenter.Warning(fmt.Sprintf("Discouraged: %s", result.DiscouragedReason))
	}
	if result.Recommended {
		presenter.Info(fmt.Sprintf("Recommended: %s", result.RecommendedReason))
	}
}
