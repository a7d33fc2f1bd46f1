package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillstack/pkg/presenter"
	"github.com/jingkaihe/skillstack/pkg/selections"
)

var selectionCmd = &cobra.Command{
	Use:     "selection",
	Aliases: []string{"sel"},
	Short:   "Manage saved skill selections",
	Long:    `Save named skill selections, list and inspect them, and apply one to the current project.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var selectionSaveCmd = &cobra.Command{
	Use:   "save <name> [skills...]",
	Short: "Save a selection under a name",
	Long: `Save a selection. Skills come from the arguments, from --stack, or from the
project's .skillstack/selection.yaml when neither is given. Invalid selections
are refused unless --force is set.

Examples:
  skillstack selection save frontend react zustand vitest
  skillstack selection save spa --stack react-spa`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		stack, _ := cmd.Flags().GetString("stack")
		description, _ := cmd.Flags().GetString("description")
		force, _ := cmd.Flags().GetBool("force")

		env, err := loadEnv(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load matrix")
			os.Exit(1)
		}

		selection, err := collectSelection(ctx, env, args[1:], &ValidateConfig{Stack: stack, ProjectDir: "."})
		if err != nil {
			presenter.Error(err, "Failed to build selection")
			os.Exit(1)
		}
		skills := env.resolver.Canonical(selection)
		if unknown := unknownSkills(env.resolver, skills); len(unknown) > 0 {
			presenter.Error(errors.Errorf("unknown skills: %s", strings.Join(unknown, ", ")), "")
			os.Exit(1)
		}

		result := env.resolver.Validate(skills)
		if !result.Valid && !force {
			presenter.Report(result)
			presenter.Error(errors.New("selection has errors"), "Use --force to save it anyway")
			os.Exit(1)
		}

		saved, err := withStore(ctx, env, func(store *selections.Store) (selections.Selection, error) {
			return store.Save(ctx, selections.Selection{
				Name:          args[0],
				Description:   description,
				Skills:        skills,
				ExpertMode:    env.cfg.ExpertMode,
				MatrixVersion: env.matrix().Version,
			})
		})
		if err != nil {
			presenter.Error(err, "Failed to save selection")
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("Saved selection %s with %d skills", saved.Name, len(saved.Skills)))
	},
}

var selectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved selections",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		store, err := openConfiguredStore(ctx)
		if err != nil {
			presenter.Error(err, "Failed to open selection store")
			os.Exit(1)
		}
		defer store.Close()

		list, err := store.List(ctx)
		if err != nil {
			presenter.Error(err, "Failed to list selections")
			os.Exit(1)
		}
		if len(list) == 0 {
			presenter.Info("No saved selections")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSKILLS\tMATRIX\tUPDATED")
		for _, sel := range list {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", sel.Name, len(sel.Skills), dash(sel.MatrixVersion), sel.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		w.Flush()
	},
}

var selectionShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a saved selection",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		store, err := openConfiguredStore(ctx)
		if err != nil {
			presenter.Error(err, "Failed to open selection store")
			os.Exit(1)
		}
		defer store.Close()

		sel, err := store.Get(ctx, args[0])
		if err != nil {
			presenter.Error(err, "Failed to get selection")
			os.Exit(1)
		}

		presenter.Section(sel.Name)
		fmt.Printf("ID:       %s\n", sel.ID)
		if sel.Description != "" {
			fmt.Printf("About:    %s\n", sel.Description)
		}
		fmt.Printf("Matrix:   %s\n", dash(sel.MatrixVersion))
		fmt.Printf("Expert:   %t\n", sel.ExpertMode)
		fmt.Printf("Updated:  %s\n", sel.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Println("Skills:")
		for _, id := range sel.Skills {
			fmt.Printf("  - %s\n", id)
		}
	},
}

var selectionDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved selection",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			answer := presenter.Prompt(fmt.Sprintf("Delete selection %s?", args[0]), "y", "N")
			if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
				presenter.Info("Aborted")
				return
			}
		}

		store, err := openConfiguredStore(ctx)
		if err != nil {
			presenter.Error(err, "Failed to open selection store")
			os.Exit(1)
		}
		defer store.Close()

		if err := store.Delete(ctx, args[0]); err != nil {
			presenter.Error(err, "Failed to delete selection")
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("Deleted selection %s", args[0]))
	},
}

var selectionUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Write a saved selection to the project's .skillstack/selection.yaml",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		dir, _ := cmd.Flags().GetString("project")

		store, err := openConfiguredStore(ctx)
		if err != nil {
			presenter.Error(err, "Failed to open selection store")
			os.Exit(1)
		}
		defer store.Close()

		sel, err := store.Get(ctx, args[0])
		if err != nil {
			presenter.Error(err, "Failed to get selection")
			os.Exit(1)
		}

		if err := selections.WriteProject(dir, &selections.Project{
			Source:     "selection:" + sel.Name,
			Skills:     sel.Skills,
			ExpertMode: sel.ExpertMode,
		}); err != nil {
			presenter.Error(err, "Failed to write project selection")
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("Project now uses selection %s (%s)", sel.Name, selections.ProjectPath(dir)))
	},
}

func init() {
	selectionSaveCmd.Flags().StringP("stack", "s", "", "Save the skills of a suggested stack")
	selectionSaveCmd.Flags().String("description", "", "Description of the selection")
	selectionSaveCmd.Flags().Bool("force", false, "Save even when the selection has errors")
	selectionDeleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	selectionUseCmd.Flags().String("project", ".", "Project directory")

	selectionCmd.AddCommand(selectionSaveCmd)
	selectionCmd.AddCommand(selectionListCmd)
	selectionCmd.AddCommand(selectionShowCmd)
	selectionCmd.AddCommand(selectionDeleteCmd)
	selectionCmd.AddCommand(selectionUseCmd)
}

func withStore[T any](ctx context.Context, env *appEnv, f func(*selections.Store) (T, error)) (T, error) {
	var zero T
	store, err := openStore(ctx, env.cfg)
	if err != nil {
		return zero, err
	}
	defer store.Close()
	return f(store)
}

func openConfiguredStore(ctx context.Context) (*selections.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openStore(ctx, cfg)
}
