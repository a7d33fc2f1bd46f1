package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillstack/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Run: func(cmd *cobra.Command, _ []string) {
		info := version.Get()
		if asJSON, _ := cmd.Flags().GetBool("json"); !asJSON {
			fmt.Println(info.String())
			return
		}
		out, err := info.JSON()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting version info: %s\n", err)
			os.Exit(1)
		}
		fmt.Println(out)
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "Print version information as JSON")
}
