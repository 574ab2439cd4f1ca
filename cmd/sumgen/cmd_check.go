package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/funvibe/variant/internal/sumgen"
)

// checkCmd validates configs without writing anything
var checkCmd = &cobra.Command{
	Use:   "check [config|dir...]",
	Short: "Validate sumgen.yaml and print the conversions between its types",
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	paths, err := resolveConfigs(args)
	if err != nil {
		return err
	}
	results, err := sumgen.NewRunner(sumgen.WithLogger(logger)).Check(cmd.Context(), paths...)
	if err != nil {
		return err
	}
	for _, res := range results {
		printRelations(cmd.OutOrStdout(), res)
	}
	return nil
}

func printRelations(w io.Writer, res sumgen.Result) {
	fmt.Fprintf(w, "%s: %d types\n", res.ConfigPath, res.Types)

	width := 0
	for _, rel := range res.Relations {
		if n := len(rel.From) + len(rel.To); rel.Kind != sumgen.Disjoint && n > width {
			width = n
		}
	}
	for _, rel := range res.Relations {
		if rel.Kind == sumgen.Disjoint {
			continue
		}
		pair := rel.From + " -> " + rel.To
		fmt.Fprintf(w, "  %-*s  %-9s  %s\n", width+4, pair, rel.Kind, strings.Join(rel.Shared, ", "))
	}
}
