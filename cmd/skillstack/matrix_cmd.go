package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillstack/pkg/matrix"
	"github.com/jingkaihe/skillstack/pkg/presenter"
)

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Inspect and lint the skills matrix",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var matrixCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Check a matrix for schema violations and broken references",
	Long: `Validate a matrix file against the JSON schema, then check the loaded matrix
(plus local skills) for unknown categories, parent cycles and references to
skills that do not exist. Exits with status 1 on errors.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}
		if len(args) == 1 {
			cfg.MatrixFile = args[0]
		}

		failed := false
		if cfg.MatrixFile != "" {
			data, err := os.ReadFile(cfg.MatrixFile)
			if err != nil {
				presenter.Error(errors.Wrapf(err, "failed to read %s", cfg.MatrixFile), "")
				os.Exit(1)
			}
			violations, err := matrix.ValidateDocument(data)
			if err != nil {
				presenter.Error(err, "Failed to validate matrix file")
				os.Exit(1)
			}
			for _, v := range violations {
				presenter.Error(v, "schema")
			}
			failed = len(violations) > 0
		}

		// Schema violations were reported above; load leniently to check references
		cfg.StrictSchema = false
		m, err := loadMatrix(ctx, cfg)
		if err != nil {
			presenter.Error(err, "Failed to load matrix")
			os.Exit(1)
		}

		diags := matrix.Check(m)
		presenter.Diagnostics(diags)
		if failed || matrix.HasErrors(diags) {
			os.Exit(1)
		}
	},
}

var matrixSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the matrix file format",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		data, err := matrix.SchemaJSON()
		if err != nil {
			presenter.Error(err, "Failed to generate schema")
			os.Exit(1)
		}
		fmt.Println(string(data))
	},
}

func init() {
	matrixCmd.AddCommand(withTracing(matrixCheckCmd))
	matrixCmd.AddCommand(matrixSchemaCmd)
}
