// Package sumgen implements the sum type code generator.
//
// It reads sum type declarations from sumgen.yaml, resolves the declared
// alternative types against the target Go package, and generates one named
// Go type per declaration on top of the variant runtime package.
//
// The sumgen package handles:
//   - Parsing and validating sumgen.yaml
//   - Introspecting the target package via go/packages
//   - Computing the conversion relations between declared sum types
//   - Generating Go source with text/template
//   - Caching, verifying and watching generated output
package sumgen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/variant/internal/config"
	"github.com/funvibe/variant/internal/utils"
	"github.com/funvibe/variant/pkg/variant"
)

// Config represents the top-level sumgen.yaml configuration.
type Config struct {
	// Package is the directory of the target Go package, relative to the
	// config file. Defaults to the config file's directory.
	Package string `yaml:"package,omitempty"`

	// Output is the generated file name inside the package directory.
	// Defaults to "variants_gen.go".
	Output string `yaml:"output,omitempty"`

	// Imports lists the import paths whose exported types appear in
	// alternative type expressions (e.g. "time" for time.Duration).
	Imports []string `yaml:"imports,omitempty"`

	// Types lists the sum types to generate, in output order.
	Types []TypeSpec `yaml:"types"`

	// path is the file the config was read from (used for relative paths).
	path string
}

// TypeSpec declares a single sum type.
type TypeSpec struct {
	// Name is the exported Go name of the generated type (e.g. "ABC").
	Name string `yaml:"name"`

	// Doc replaces the generated doc comment of the type.
	Doc string `yaml:"doc,omitempty"`

	// Alternatives is the ordered alternative list. Order defines the tags.
	Alternatives []AltSpec `yaml:"alternatives"`
}

// AltSpec declares one alternative of a sum type.
//
// In YAML an alternative is either a bare type expression:
//
//	alternatives: [A, "*B", time.Duration]
//
// or a mapping:
//
//	alternatives:
//	  - type: C
//	    constructor: NewC
//	    name: Config
type AltSpec struct {
	// Type is a Go type expression resolved in the target package: a local
	// or predeclared type name, an imported pkg.Name, *T or []T.
	Type string `yaml:"type"`

	// Constructor is an optional package-level function returning the
	// alternative (or the alternative and an error). A forwarding
	// New<Type><Name> function is generated for it.
	Constructor string `yaml:"constructor,omitempty"`

	// Name overrides the identifier used in generated method names.
	// Defaults to one derived from Type (see AltName).
	Name string `yaml:"name,omitempty"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (a *AltSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		a.Type = strings.TrimSpace(node.Value)
		return nil
	}
	type plain AltSpec
	return node.Decode((*plain)(a))
}

// LoadConfig reads and parses a sumgen.yaml file. The loaded config records
// the absolute path, so derived paths match the filenames go/packages reports.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data, path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path %s: %w", path, err)
	}
	cfg.path = abs
	return cfg, nil
}

// ParseConfig parses sumgen.yaml content from bytes.
// The path argument locates the package directory and is used in error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.path = path
	cfg.setDefaults()
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindConfig searches for sumgen.yaml starting from dir and walking up
// to parent directories.
// Returns the path to the config file, or empty string and nil error if not found.
func FindConfig(dir string) (string, error) {
	return utils.FindUp(dir, config.ConfigFileNames...)
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	return filepath.Dir(c.path)
}

// PackageDir returns the target package directory.
func (c *Config) PackageDir() string {
	return utils.ResolveRelative(c.Dir(), c.Package)
}

// OutputPath returns the path of the generated file.
func (c *Config) OutputPath() string {
	return filepath.Join(c.PackageDir(), c.Output)
}

// setDefaults fills in default values for omitted fields.
// Alternative names are derived here so validation sees the final names.
func (c *Config) setDefaults() {
	if c.Package == "" {
		c.Package = config.DefaultPackageDir
	}
	if c.Output == "" {
		c.Output = config.DefaultOutputFile
	}
	for i := range c.Types {
		for j := range c.Types[i].Alternatives {
			alt := &c.Types[i].Alternatives[j]
			if alt.Name == "" && alt.Type != "" {
				alt.Name = AltName(alt.Type)
			}
		}
	}
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if len(c.Types) == 0 {
		return fmt.Errorf("%s: no types defined", path)
	}
	if filepath.Base(c.Output) != c.Output || !strings.HasSuffix(c.Output, ".go") || strings.HasSuffix(c.Output, "_test.go") {
		return fmt.Errorf("%s: output %q must be a non-test .go file name", path, c.Output)
	}
	for i, imp := range c.Imports {
		if err := module.CheckImportPath(imp); err != nil {
			return fmt.Errorf("%s: imports[%d]: %w", path, i, err)
		}
	}

	declared := make(map[string]bool, len(c.Types))
	for i, ts := range c.Types {
		if !token.IsIdentifier(ts.Name) || !token.IsExported(ts.Name) {
			return fmt.Errorf("%s: types[%d]: name %q must be an exported Go identifier", path, i, ts.Name)
		}
		if config.IsReservedMethodName(ts.Name) {
			return fmt.Errorf("%s: types[%d]: name %q is reserved", path, i, ts.Name)
		}
		if declared[ts.Name] {
			return fmt.Errorf("%s: types[%d]: duplicate type name %q", path, i, ts.Name)
		}
		declared[ts.Name] = true
	}

	for i, ts := range c.Types {
		if len(ts.Alternatives) == 0 {
			return fmt.Errorf("%s: types[%d] (%s): no alternatives", path, i, ts.Name)
		}
		if len(ts.Alternatives) > variant.MaxAlternatives {
			return fmt.Errorf("%s: types[%d] (%s): %d alternatives exceeds the limit of %d",
				path, i, ts.Name, len(ts.Alternatives), variant.MaxAlternatives)
		}

		seenTypes := make(map[string]bool)
		seenNames := make(map[string]bool)
		for j, alt := range ts.Alternatives {
			if alt.Type == "" {
				return fmt.Errorf("%s: types[%d].alternatives[%d] (%s): type is required", path, i, j, ts.Name)
			}
			canon, err := CanonicalType(alt.Type)
			if err != nil {
				return fmt.Errorf("%s: types[%d].alternatives[%d] (%s): %w", path, i, j, ts.Name, err)
			}
			if declared[canon] {
				return fmt.Errorf("%s: types[%d].alternatives[%d] (%s): %s is a sum type declared in this file; declare its alternatives instead",
					path, i, j, ts.Name, canon)
			}
			if seenTypes[canon] {
				return fmt.Errorf("%s: types[%d].alternatives[%d] (%s): duplicate alternative %s", path, i, j, ts.Name, canon)
			}
			seenTypes[canon] = true

			if !token.IsIdentifier(alt.Name) || !token.IsExported(alt.Name) {
				return fmt.Errorf("%s: types[%d].alternatives[%d] (%s): name %q must be an exported Go identifier",
					path, i, j, ts.Name, alt.Name)
			}
			if config.IsReservedMethodName(alt.Name) || declared[alt.Name] {
				return fmt.Errorf("%s: types[%d].alternatives[%d] (%s): name %q clashes with a generated method; set name explicitly",
					path, i, j, ts.Name, alt.Name)
			}
			if seenNames[alt.Name] {
				return fmt.Errorf("%s: types[%d].alternatives[%d] (%s): duplicate alternative name %q", path, i, j, ts.Name, alt.Name)
			}
			seenNames[alt.Name] = true

			if alt.Constructor != "" && !token.IsIdentifier(alt.Constructor) {
				return fmt.Errorf("%s: types[%d].alternatives[%d] (%s): constructor %q must be a function name in the package",
					path, i, j, ts.Name, alt.Constructor)
			}
		}
	}

	return nil
}

// CanonicalType parses a type expression and prints it back in gofmt form,
// so "* pkg . T" and "*pkg.T" compare equal. Only the forms the inspector
// can resolve are accepted.
func CanonicalType(expr string) (string, error) {
	e, err := parser.ParseExpr(expr)
	if err != nil {
		return "", fmt.Errorf("invalid type expression %q: %w", expr, err)
	}
	if err := checkTypeExpr(e); err != nil {
		return "", fmt.Errorf("type expression %q: %w", expr, err)
	}
	var b strings.Builder
	if err := printer.Fprint(&b, token.NewFileSet(), e); err != nil {
		return "", err
	}
	return b.String(), nil
}

func checkTypeExpr(e ast.Expr) error {
	switch e := e.(type) {
	case *ast.Ident:
		return nil
	case *ast.SelectorExpr:
		if _, ok := e.X.(*ast.Ident); !ok {
			return fmt.Errorf("unsupported qualified name")
		}
		return nil
	case *ast.StarExpr:
		return checkTypeExpr(e.X)
	case *ast.ArrayType:
		if e.Len != nil {
			return fmt.Errorf("arrays are not supported, use a named type")
		}
		return checkTypeExpr(e.Elt)
	case *ast.ParenExpr:
		return checkTypeExpr(e.X)
	default:
		return fmt.Errorf("unsupported form %T, use a named type", e)
	}
}

// AltName derives the identifier used in generated method names from a type
// expression: "A" → "A", "*pkg.Conn" → "PtrConn", "[]byte" → "SliceByte",
// "int" → "Int".
func AltName(expr string) string {
	e, err := parser.ParseExpr(expr)
	if err != nil {
		return ""
	}
	return altName(e)
}

func altName(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.Ident:
		return ucFirst(e.Name)
	case *ast.SelectorExpr:
		return ucFirst(e.Sel.Name)
	case *ast.StarExpr:
		return "Ptr" + altName(e.X)
	case *ast.ArrayType:
		return "Slice" + altName(e.Elt)
	case *ast.ParenExpr:
		return altName(e.X)
	}
	return ""
}

func ucFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	if runes[0] >= 'a' && runes[0] <= 'z' {
		runes[0] -= 32
	}
	return string(runes)
}
