package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillstack/pkg/config"
	"github.com/jingkaihe/skillstack/pkg/logger"
	"github.com/jingkaihe/skillstack/pkg/presenter"
)

var rootCmd = &cobra.Command{
	Use:   "skillstack",
	Short: "Browse, combine and validate agent skills",
	Long: `skillstack loads a skills matrix (a catalog of skills, categories, aliases and
relationships) together with your local SKILL.md files, and tells you which
combinations of skills work together.

Examples:
  skillstack list --category framework
  skillstack check vitest --with react,jest
  skillstack validate react zustand vitest
  skillstack validate --stack react-spa --watch`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if path := viper.GetString("config"); path != "" {
			viper.SetConfigFile(path)
			if err := viper.ReadInConfig(); err != nil {
				return err
			}
		}

		if err := logger.Setup(logger.Options{
			Level:  viper.GetString("log_level"),
			Format: viper.GetString("log_format"),
		}); err != nil {
			return err
		}
		presenter.SetQuiet(viper.GetBool("quiet"))

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(logger.WithLogger(ctx, logger.L.WithField("command", cmd.Name())))
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

func init() {
	if err := config.Init(viper.GetViper()); err != nil {
		presenter.Error(err, "Invalid configuration")
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a config file (default $HOME/.skillstack/config.yaml or ./config.yaml)")
	flags.StringP("matrix", "m", "", "Path to the skills matrix file")
	flags.String("local-skills", "", "Directory of local SKILL.md files merged over the matrix")
	flags.String("agent-mappings", "", "Path to an agent-mappings.yaml file")
	flags.Bool("expert", false, "Expert mode: never disable skills, only report")
	flags.Bool("strict", false, "Validate the matrix file against its JSON schema while loading")
	flags.String("db", "", "Path to the selections database (default ~/.skillstack/storage.db)")
	flags.String("log-level", "warn", "Log level (trace, debug, info, warn, error)")
	flags.String("log-format", "fmt", "Log format (fmt, json)")
	flags.BoolP("quiet", "q", false, "Only print errors and requested data")

	viper.BindPFlag("config", flags.Lookup("config"))
	viper.BindPFlag("matrix_file", flags.Lookup("matrix"))
	viper.BindPFlag("local_skills_dir", flags.Lookup("local-skills"))
	viper.BindPFlag("agent_mappings", flags.Lookup("agent-mappings"))
	viper.BindPFlag("expert_mode", flags.Lookup("expert"))
	viper.BindPFlag("strict_schema", flags.Lookup("strict"))
	viper.BindPFlag("db_path", flags.Lookup("db"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("log_format", flags.Lookup("log-format"))
	viper.BindPFlag("quiet", flags.Lookup("quiet"))
}

func main() {
	rootCmd.AddCommand(withTracing(listCmd))
	rootCmd.AddCommand(withTracing(infoCmd))
	rootCmd.AddCommand(withTracing(categoriesCmd))
	rootCmd.AddCommand(withTracing(checkCmd))
	rootCmd.AddCommand(withTracing(validateCmd))
	rootCmd.AddCommand(stackCmd)
	rootCmd.AddCommand(selectionCmd)
	rootCmd.AddCommand(matrixCmd)
	rootCmd.AddCommand(withTracing(agentsCmd))
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		presenter.Error(err, "")
		os.Exit(1)
	}
}
