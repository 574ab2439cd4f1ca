package sumgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/mod/modfile"

	"github.com/funvibe/variant/internal/config"
	"github.com/funvibe/variant/internal/utils"
)

// ErrRuntimeNotRequired is returned by Preflight when the target module
// cannot import the variant runtime.
var ErrRuntimeNotRequired = errors.New("module does not require the variant runtime")

// Verifier compiles the target package after generation.
type Verifier struct {
	goBin   string
	env     []string
	logger  *zap.Logger
	runtime string
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithGoBinary sets the go command to run (default "go").
func WithGoBinary(path string) VerifierOption {
	return func(v *Verifier) { v.goBin = path }
}

// WithEnv appends environment variables to the build command.
func WithEnv(env ...string) VerifierOption {
	return func(v *Verifier) { v.env = append(v.env, env...) }
}

// WithVerifierLogger sets the logger.
func WithVerifierLogger(l *zap.Logger) VerifierOption {
	return func(v *Verifier) { v.logger = l }
}

// NewVerifier creates a Verifier. Builds run with GOWORK=off unless WithEnv
// overrides it.
func NewVerifier(opts ...VerifierOption) *Verifier {
	v := &Verifier{
		goBin:   "go",
		env:     []string{"GOWORK=off"},
		logger:  zap.NewNop(),
		runtime: config.RuntimeModule,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Preflight checks that the module containing pkgDir is the runtime module or
// requires it. It returns the module path.
func (v *Verifier) Preflight(pkgDir string) (string, error) {
	gomod, err := utils.FindUp(pkgDir, "go.mod")
	if err != nil {
		return "", err
	}
	if gomod == "" {
		return "", fmt.Errorf("no go.mod found above %s", pkgDir)
	}

	data, err := os.ReadFile(gomod)
	if err != nil {
		return "", fmt.Errorf("reading go.mod: %w", err)
	}
	mf, err := modfile.ParseLax(gomod, data, nil)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", gomod, err)
	}
	if mf.Module == nil {
		return "", fmt.Errorf("%s: missing module directive", gomod)
	}

	modPath := mf.Module.Mod.Path
	if modPath == v.runtime {
		return modPath, nil
	}
	for _, r := range mf.Require {
		if r.Mod.Path == v.runtime {
			v.logger.Debug("runtime requirement found",
				zap.String("module", modPath),
				zap.String("version", r.Mod.Version))
			return modPath, nil
		}
	}
	return modPath, fmt.Errorf("%s (%s): %w; run `go get %s`",
		modPath, filepath.Dir(gomod), ErrRuntimeNotRequired, v.runtime)
}

// Build runs `go build` in pkgDir.
func (v *Verifier) Build(ctx context.Context, pkgDir string) error {
	cmd := exec.CommandContext(ctx, v.goBin, "build", ".")
	cmd.Dir = pkgDir
	cmd.Env = append(os.Environ(), v.env...)

	v.logger.Debug("verifying build", zap.String("dir", pkgDir))
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("go build failed:\n%s\n%w", string(output), err)
	}
	return nil
}

// Verify runs Preflight and Build.
func (v *Verifier) Verify(ctx context.Context, pkgDir string) error {
	if _, err := v.Preflight(pkgDir); err != nil {
		return err
	}
	return v.Build(ctx, pkgDir)
}
