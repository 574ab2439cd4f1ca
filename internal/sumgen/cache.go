package sumgen

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/funvibe/variant/internal/config"
)

// codegenVersion is bumped when the generated code format changes.
// This ensures cached entries made by an older generator are not reused.
const codegenVersion = "v1"

// Cache remembers which inputs produced the generated file on disk, so an
// unchanged package is not inspected again. Entries live in .sumgen/cache/
// next to sumgen.yaml.
//
// The key is a hash of the normalized config, every non-test Go source of the
// target package except the generated file, the sources of the packages listed
// in imports, the runtime import path and codegenVersion. An entry records the hash of the output it produced; a hit
// also requires the output file to still have that content.
type Cache struct {
	// projectDir is the directory containing sumgen.yaml.
	projectDir string
}

// NewCache creates a new cache scoped to the given project directory.
func NewCache(projectDir string) *Cache {
	return &Cache{projectDir: projectDir}
}

// CacheDir returns the path to the cache directory.
func (c *Cache) CacheDir() string {
	return filepath.Join(c.projectDir, config.CacheDirName, "cache")
}

// Key computes the cache key for cfg. Packages named in cfg.Imports are
// located with go/packages, so a config with imports needs the go command.
func (c *Cache) Key(ctx context.Context, cfg *Config, runtimeImport string) (string, error) {
	fp, err := ConfigFingerprint(cfg.Path())
	if err != nil {
		return "", fmt.Errorf("fingerprinting config: %w", err)
	}

	h := sha256.New()
	h.Write(fp)

	sources, err := packageSources(cfg)
	if err != nil {
		return "", err
	}
	for _, src := range sources {
		data, err := os.ReadFile(src)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", src, err)
		}
		h.Write([]byte("\x00"))
		h.Write([]byte(filepath.Base(src)))
		h.Write([]byte("\x00"))
		h.Write(data)
	}

	imported, err := importSources(ctx, cfg)
	if err != nil {
		return "", err
	}
	for _, pkg := range imported {
		h.Write([]byte("\x00"))
		h.Write([]byte(pkg.path))
		for _, src := range pkg.files {
			data, err := os.ReadFile(src)
			if err != nil {
				return "", fmt.Errorf("reading %s: %w", src, err)
			}
			h.Write([]byte("\x00"))
			h.Write([]byte(filepath.Base(src)))
			h.Write([]byte("\x00"))
			h.Write(data)
		}
	}

	h.Write([]byte("\x00"))
	h.Write([]byte(runtimeImport))
	h.Write([]byte("\x00"))
	h.Write([]byte(codegenVersion))

	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

// Lookup reports whether key is cached and outputPath still holds the output
// recorded for it.
func (c *Cache) Lookup(key, outputPath string) bool {
	recorded, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		return false
	}
	current, err := os.ReadFile(outputPath)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(recorded)) == contentHash(current)
}

// Store records that key produced content.
func (c *Cache) Store(key string, content []byte) error {
	if err := os.MkdirAll(c.CacheDir(), 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	if err := os.WriteFile(c.entryPath(key), []byte(contentHash(content)+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Clean removes all cache entries.
func (c *Cache) Clean() error {
	return os.RemoveAll(c.CacheDir())
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.CacheDir(), "gen-"+key)
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// packageSources lists the non-test Go files of the target package other
// than the generated file, sorted by name.
func packageSources(cfg *Config) ([]string, error) {
	entries, err := os.ReadDir(cfg.PackageDir())
	if err != nil {
		return nil, fmt.Errorf("reading package dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !config.IsGoSource(e.Name()) || e.Name() == cfg.Output {
			continue
		}
		out = append(out, filepath.Join(cfg.PackageDir(), e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

type importedPackage struct {
	path  string
	files []string
}

// importSources lists the Go files of every package in cfg.Imports, sorted by
// import path and file name.
func importSources(ctx context.Context, cfg *Config) ([]importedPackage, error) {
	if len(cfg.Imports) == 0 {
		return nil, nil
	}
	pkgs, err := packages.Load(&packages.Config{
		Context: ctx,
		Mode:    packages.NeedName | packages.NeedFiles,
		Dir:     cfg.PackageDir(),
	}, cfg.Imports...)
	if err != nil {
		return nil, fmt.Errorf("locating imports: %w", err)
	}

	out := make([]importedPackage, 0, len(pkgs))
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("locating %s: %v", pkg.PkgPath, pkg.Errors[0])
		}
		files := append([]string(nil), pkg.GoFiles...)
		sort.Strings(files)
		out = append(out, importedPackage{path: pkg.PkgPath, files: files})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out, nil
}

// ConfigFingerprint returns the config file data for cache key computation.
// It normalizes the content by trimming trailing whitespace, so trivial
// whitespace changes don't invalidate the cache.
func ConfigFingerprint(configPath string) ([]byte, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(data), "\n")
	var normalized strings.Builder
	for _, line := range lines {
		normalized.WriteString(strings.TrimRight(line, " \t\r"))
		normalized.WriteString("\n")
	}

	return []byte(strings.TrimRight(normalized.String(), "\n")), nil
}
