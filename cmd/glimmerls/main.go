// Command glimmerls is an exercise harness over the glimmer core: it loads
// a workspace and answers one-shot definition/references/imports queries
// from the command line, printing JSON or text per --format, the way
// cmd/canopy exercises the canopy engine. It is not the editor protocol
// server — that lives outside this module's scope.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagFormat string

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "glimmerls",
	Short:         "Cross-file go-to-definition and find-references for Glimmer",
	Long:          "glimmerls loads a Glimmer project's manifest, solves its dependencies, and answers definition/references/imports queries against the resulting forest.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be json or text", format)
}
