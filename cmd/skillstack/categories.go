package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillstack/pkg/matrix"
	"github.com/jingkaihe/skillstack/pkg/presenter"
	"github.com/jingkaihe/skillstack/pkg/resolver"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories [category]",
	Short: "Show the category tree, or the options of one category",
	Long: `Without arguments, print the category tree. With a category ID, print every
skill of that category with its state for the selection given by --with.

Examples:
  skillstack categories
  skillstack categories framework --with zustand`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		with, _ := cmd.Flags().GetStringSlice("with")
		selection := splitSkills(with)

		env, err := loadEnv(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load matrix")
			os.Exit(1)
		}

		if len(args) == 0 {
			seen := make(map[string]bool)
			for _, c := range env.resolver.TopLevelCategories() {
				printCategoryTree(env, c, selection, 0, seen)
			}
			return
		}

		category, ok := env.matrix().Category(args[0])
		if !ok {
			presenter.Error(errors.Errorf("unknown category %q", args[0]), "")
			os.Exit(1)
		}
		presenter.Section(category.Name)
		if disabled, reason := env.resolver.IsCategoryAllDisabled(category.ID, selection, env.options()); disabled {
			presenter.Warning(fmt.Sprintf("Every skill is disabled: %s", reason))
		}
		for _, option := range env.resolver.AvailableSkills(category.ID, selection, env.options()) {
			fmt.Println(formatOption(option))
		}
	},
}

func init() {
	categoriesCmd.Flags().StringSlice("with", nil, "Current selection used to compute skill state")
}

func printCategoryTree(env *appEnv, c *matrix.Category, selection []string, depth int, seen map[string]bool) {
	if seen[c.ID] {
		return
	}
	seen[c.ID] = true

	var flags []string
	if c.Exclusive {
		flags = append(flags, "exclusive")
	}
	if c.Required {
		flags = append(flags, "required")
	}
	if disabled, reason := env.resolver.IsCategoryAllDisabled(c.ID, selection, env.options()); disabled {
		flags = append(flags, "disabled: "+reason)
	}

	line := fmt.Sprintf("%s%s [%s] %d skills", strings.Repeat("  ", depth), c.Name, c.ID, len(env.resolver.SkillsByCategory(c.ID)))
	if len(flags) > 0 {
		line += " (" + strings.Join(flags, ", ") + ")"
	}
	fmt.Println(line)

	for _, sub := range env.resolver.Subcategories(c.ID) {
		printCategoryTree(env, sub, selection, depth+1, seen)
	}
}

// formatOption renders one picker line: a state marker, the label and the
// reasons behind the state
func formatOption(o resolver.SkillOption) string {
	marker := " "
	switch {
	case o.Selected:
		marker = "*"
	case o.Disabled:
		marker = "x"
	case o.Recommended:
		marker = "+"
	case o.Discouraged:
		marker = "!"
	}

	label := o.Name
	if o.Alias != "" {
		label = fmt.Sprintf("%s (%s)", o.Name, o.Alias)
	}

	var notes []string
	if o.DisabledReason != "" {
		notes = append(notes, "disabled: "+o.DisabledReason)
	}
	if o.DiscouragedReason != "" {
		notes = append(notes, "discouraged: "+o.DiscouragedReason)
	}
	if o.RecommendedReason != "" {
		notes = append(notes, "recommended: "+o.RecommendedReason)
	}

	line := fmt.Sprintf("[%s] %s", marker, label)
	if len(notes) > 0 {
		line += "  " + strings.Join(notes, "; ")
	}
	return line
}
