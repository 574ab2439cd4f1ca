package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/funvibe/variant/internal/sumgen"
)

var (
	genVerify  bool
	genWatch   bool
	genNoCache bool
	genDryRun  bool
)

// generateCmd writes the generated files
var generateCmd = &cobra.Command{
	Use:   "generate [config|dir...]",
	Short: "Generate sum types from sumgen.yaml",
	Long: `Generates the sum types declared in each config. Without arguments the
nearest sumgen.yaml above the working directory is used.

Output is skipped when neither the config nor the package sources changed
since the last run (see 'sumgen cache clean').`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().BoolVar(&genVerify, "verify", false, "run go build on the package after generating")
	generateCmd.Flags().BoolVarP(&genWatch, "watch", "w", false, "regenerate when the config or package sources change")
	generateCmd.Flags().BoolVar(&genNoCache, "no-cache", false, "always inspect and regenerate")
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "print generated code instead of writing it")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	paths, err := resolveConfigs(args)
	if err != nil {
		return err
	}

	opts := []sumgen.RunnerOption{
		sumgen.WithLogger(logger),
		sumgen.WithCache(!genNoCache),
		sumgen.WithVerify(genVerify),
	}
	if genDryRun {
		opts = append(opts, sumgen.WithDryRun(cmd.OutOrStdout()))
	}
	runner := sumgen.NewRunner(opts...)

	if genWatch {
		if genDryRun {
			return errors.New("--watch and --dry-run cannot be combined")
		}
		if len(paths) != 1 {
			return errors.New("--watch takes a single config")
		}
		logger.Info("watching for changes", zap.String("config", paths[0]))
		return runner.Watch(cmd.Context(), paths[0])
	}

	results, err := runner.Generate(cmd.Context(), paths...)
	if err != nil {
		return err
	}
	for _, res := range results {
		if res.Cached {
			logger.Info("up to date", zap.String("output", res.OutputPath))
		}
	}
	return nil
}
