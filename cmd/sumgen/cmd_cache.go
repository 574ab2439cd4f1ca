package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/funvibe/variant/internal/sumgen"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the generation cache",
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean [dir]",
	Short: "Remove the generation cache next to sumgen.yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClean,
}

func init() {
	cacheCmd.AddCommand(cacheCleanCmd)
}

func runCacheClean(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	} else if path, err := sumgen.FindConfig("."); err == nil && path != "" {
		dir = filepath.Dir(path)
	}

	cache := sumgen.NewCache(dir)
	if err := cache.Clean(); err != nil {
		return fmt.Errorf("cleaning cache: %w", err)
	}
	logger.Info("cache cleaned", zap.String("dir", cache.CacheDir()))
	return nil
}
