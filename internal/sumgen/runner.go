package sumgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/funvibe/variant/internal/config"
)

// Result reports what a generation run did for one config.
type Result struct {
	ConfigPath string
	OutputPath string

	// Types is the number of generated sum types. It is zero on a cache hit.
	Types int

	// Cached is true when the output was up to date and nothing was inspected.
	Cached bool

	// Written is true when the output file changed on disk.
	Written bool

	// Relations are the conversions between the declared types.
	Relations []Relation
}

// Runner drives load → inspect → generate → write → verify for configs.
type Runner struct {
	logger        *zap.Logger
	useCache      bool
	verify        bool
	runtimeImport string
	debounce      time.Duration

	// dryRun receives generated code instead of the output files.
	dryRun io.Writer
	mu     sync.Mutex

	// generate processes a single config; replaced in tests.
	generate func(ctx context.Context, configPath string) (Result, error)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithCache enables or disables the generation cache (enabled by default).
func WithCache(enabled bool) RunnerOption {
	return func(r *Runner) { r.useCache = enabled }
}

// WithVerify runs `go build` on the package after writing the output.
func WithVerify(enabled bool) RunnerOption {
	return func(r *Runner) { r.verify = enabled }
}

// WithDryRun writes generated code to w instead of the output files.
// The cache is neither consulted nor updated.
func WithDryRun(w io.Writer) RunnerOption {
	return func(r *Runner) { r.dryRun = w }
}

// WithRuntimeImport overrides the runtime import path of generated code.
func WithRuntimeImport(path string) RunnerOption {
	return func(r *Runner) { r.runtimeImport = path }
}

// WithDebounce sets how long Watch waits for changes to settle.
func WithDebounce(d time.Duration) RunnerOption {
	return func(r *Runner) { r.debounce = d }
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		logger:        zap.NewNop(),
		useCache:      true,
		runtimeImport: config.RuntimeImportPath,
		debounce:      200 * time.Millisecond,
	}
	r.generate = r.generateOne
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generate processes every config concurrently. Results are in argument
// order. The first failure cancels the remaining runs.
func (r *Runner) Generate(ctx context.Context, configPaths ...string) ([]Result, error) {
	results := make([]Result, len(configPaths))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, path := range configPaths {
		eg.Go(func() error {
			res, err := r.generate(egCtx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Check loads and inspects configs without writing anything and reports
// the conversion relations between their types.
func (r *Runner) Check(ctx context.Context, configPaths ...string) ([]Result, error) {
	results := make([]Result, len(configPaths))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, path := range configPaths {
		eg.Go(func() error {
			cfg, err := LoadConfig(path)
			if err != nil {
				return err
			}
			inspected, err := NewInspector(WithInspectorLogger(r.logger)).Inspect(egCtx, cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = Result{
				ConfigPath: path,
				OutputPath: cfg.OutputPath(),
				Types:      len(inspected.Types),
				Relations:  inspected.Relations(),
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) generateOne(ctx context.Context, configPath string) (Result, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return Result{}, err
	}
	res := Result{ConfigPath: configPath, OutputPath: cfg.OutputPath()}
	log := r.logger.With(zap.String("config", configPath))

	// Step 1: Check the cache
	var cache *Cache
	var key string
	if r.useCache && r.dryRun == nil {
		cache = NewCache(cfg.Dir())
		key, err = cache.Key(ctx, cfg, r.runtimeImport)
		switch {
		case err != nil:
			log.Warn("cache disabled for this run", zap.Error(err))
			cache = nil
		case cache.Lookup(key, res.OutputPath):
			log.Debug("output up to date", zap.String("key", key))
			res.Cached = true
			return res, nil
		default:
			log.Debug("cache miss", zap.String("key", key))
		}
	}

	// Step 2: Inspect the package
	inspected, err := NewInspector(WithInspectorLogger(log)).Inspect(ctx, cfg)
	if err != nil {
		return res, err
	}
	res.Types = len(inspected.Types)
	res.Relations = inspected.Relations()

	// Step 3: Generate
	file, err := NewCodeGenerator(r.runtimeImport).Generate(inspected, res.OutputPath)
	if err != nil {
		return res, fmt.Errorf("generating code: %w", err)
	}

	if r.dryRun != nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		_, err := io.WriteString(r.dryRun, file.Content)
		return res, err
	}

	// Step 4: Write
	res.Written, err = writeIfChanged(file)
	if err != nil {
		return res, err
	}
	if cache != nil {
		if err := cache.Store(key, []byte(file.Content)); err != nil {
			log.Warn("failed to update cache", zap.Error(err))
		}
	}

	// Step 5: Verify
	if r.verify {
		if err := NewVerifier(WithVerifierLogger(log)).Verify(ctx, cfg.PackageDir()); err != nil {
			return res, fmt.Errorf("verifying: %w", err)
		}
	}

	log.Info("generated",
		zap.String("output", res.OutputPath),
		zap.Int("types", res.Types),
		zap.Bool("changed", res.Written))
	return res, nil
}

// writeIfChanged writes the file unless it already has the same content.
func writeIfChanged(file GeneratedFile) (bool, error) {
	if existing, err := os.ReadFile(file.Filename); err == nil && bytes.Equal(existing, []byte(file.Content)) {
		return false, nil
	}
	if err := os.WriteFile(file.Filename, []byte(file.Content), 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", file.Filename, err)
	}
	return true, nil
}
