package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/funvibe/variant/internal/config"
	"github.com/funvibe/variant/internal/logging"
	"github.com/funvibe/variant/internal/sumgen"
)

var (
	// Global flags
	verbose bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sumgen",
	Short: "Generate closed sum types for Go packages",
	Long: `sumgen reads sum type declarations from sumgen.yaml and generates one Go
type per declaration on top of github.com/funvibe/variant.

Each generated type holds exactly one of its alternatives. Conversions
between declared types are generated from their alternative sets: To<T>
when every alternative fits (widening), Try<T> when only some do
(narrowing).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.New(verbose)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sumgen: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfigs maps command arguments to config file paths. A directory
// argument names the sumgen.yaml inside it; no arguments searches upward
// from the working directory.
func resolveConfigs(args []string) ([]string, error) {
	if len(args) == 0 {
		path, err := sumgen.FindConfig(".")
		if err != nil {
			return nil, err
		}
		if path == "" {
			return nil, fmt.Errorf("no %s found in the current directory or its parents", config.ConfigFileNames[0])
		}
		return []string{path}, nil
	}

	paths := make([]string, 0, len(args))
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found := ""
		for _, name := range config.ConfigFileNames {
			candidate := filepath.Join(arg, name)
			if _, err := os.Stat(candidate); err == nil {
				found = candidate
				break
			}
		}
		if found == "" {
			return nil, fmt.Errorf("no %s in %s", config.ConfigFileNames[0], arg)
		}
		paths = append(paths, found)
	}
	return paths, nil
}
