package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillstack/pkg/presenter"
)

var stackCmd = &cobra.Command{
	Use:   "stack",
	Short: "Browse suggested stacks",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var stackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the suggested stacks of the matrix",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		env, err := loadEnv(cmd.Context())
		if err != nil {
			presenter.Error(err, "Failed to load matrix")
			os.Exit(1)
		}

		stacks := env.matrix().SuggestedStacks
		if len(stacks) == 0 {
			presenter.Info("The matrix has no suggested stacks")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSKILLS\tDESCRIPTION")
		for _, s := range stacks {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, s.Name, len(s.Skills), dash(s.Description))
		}
		w.Flush()
	},
}

var stackShowCmd = &cobra.Command{
	Use:   "show <stack>",
	Short: "Show the skills of a stack and validate them",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env, err := loadEnv(cmd.Context())
		if err != nil {
			presenter.Error(err, "Failed to load matrix")
			os.Exit(1)
		}

		stack, ok := env.matrix().Stack(args[0])
		if !ok {
			presenter.Error(errors.Errorf("unknown stack %q", args[0]), "")
			os.Exit(1)
		}
		skills, _ := env.resolver.ExpandStack(stack.ID)

		presenter.Section(stack.Name)
		if stack.Description != "" {
			presenter.Info(stack.Description)
		}
		for _, id := range skills {
			if s, ok := env.matrix().Skill(id); ok {
				fmt.Printf("  - %s [%s]\n", skillLabel(s), s.Category)
			} else {
				fmt.Printf("  - %s (unknown)\n", id)
			}
		}
		fmt.Println()
		presenter.Report(env.resolver.Validate(skills))
	},
}

func init() {
	stackCmd.AddCommand(stackListCmd)
	stackCmd.AddCommand(stackShowCmd)
}
