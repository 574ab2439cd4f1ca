package sumgen

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"
)

// InspectResult holds all extracted type information for code generation.
type InspectResult struct {
	// Package describes the target package.
	Package PackageInfo

	// Types is the ordered list of resolved sum type declarations.
	Types []*ResolvedType

	// Imports maps import path → package name for every package the
	// alternative and constructor types reference.
	Imports map[string]string

	// Declared holds the package-level names of the target package, not
	// counting the previously generated file.
	Declared map[string]bool
}

// PackageInfo identifies the package the generated file belongs to.
type PackageInfo struct {
	Name string
	Path string
	Dir  string
}

// ResolvedType is a sum type declaration with its alternatives resolved
// against the target package.
type ResolvedType struct {
	// Spec is the original declaration from sumgen.yaml.
	Spec TypeSpec

	// Alternatives is the resolved alternative list, in declaration order.
	Alternatives []*ResolvedAlt
}

// ResolvedAlt describes one alternative type.
type ResolvedAlt struct {
	// Spec is the original alternative declaration.
	Spec AltSpec

	// GoString is the type as spelled in the target package
	// (e.g. "A", "*B", "time.Duration").
	GoString string

	// Key identifies the type independently of spelling (aliases resolve to
	// the aliased type, package names are fully qualified).
	Key string

	// Comparable is true if values of the type support ==.
	Comparable bool

	// HasDefault is true if *T has a Default() method.
	HasDefault bool

	// HasEqual is true if T or *T has an Equal(T) bool method.
	HasEqual bool

	// Constructor is non-nil when a constructor function was configured.
	Constructor *Constructor
}

// Constructor describes a package-level function that builds an alternative.
type Constructor struct {
	// Name is the Go function name (e.g. "NewC").
	Name string

	// Params is the ordered list of parameters.
	Params []*ParamInfo

	// IsVariadic is true if the last parameter is variadic (...T).
	IsVariadic bool

	// HasErrorReturn is true if the function returns (T, error).
	HasErrorReturn bool
}

// ParamInfo describes a constructor parameter.
type ParamInfo struct {
	// Name is the parameter name; unnamed parameters get p0, p1, ...
	Name string

	// GoString is the parameter type as spelled in the target package.
	// For the variadic parameter it is the element type.
	GoString string
}

// Relations computes the conversion relations between the resolved types
// using type identity.
func (r *InspectResult) Relations() []Relation {
	specs := make([]TypeSpec, len(r.Types))
	for i, rt := range r.Types {
		specs[i] = rt.Spec
	}
	return computeRelations(specs, func(i, j int) string {
		return r.Types[i].Alternatives[j].Key
	})
}

// Inspector loads the target package and resolves alternative types.
type Inspector struct {
	logger *zap.Logger

	// loadedPkgs caches loaded packages by import path.
	loadedPkgs map[string]*packages.Package

	// target is the package the generated file belongs to.
	target *packages.Package
}

// InspectorOption configures an Inspector.
type InspectorOption func(*Inspector)

// WithInspectorLogger sets the logger for package loading diagnostics.
func WithInspectorLogger(l *zap.Logger) InspectorOption {
	return func(ins *Inspector) { ins.logger = l }
}

// NewInspector creates a new Inspector.
func NewInspector(opts ...InspectorOption) *Inspector {
	ins := &Inspector{
		logger:     zap.NewNop(),
		loadedPkgs: make(map[string]*packages.Package),
	}
	for _, opt := range opts {
		opt(ins)
	}
	return ins
}

// Inspect loads the package named by cfg and resolves every declared
// alternative type.
func (ins *Inspector) Inspect(ctx context.Context, cfg *Config) (*InspectResult, error) {
	// Step 1: Load the target package and the configured imports
	if err := ins.loadPackages(ctx, cfg); err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}

	result := &InspectResult{
		Package: PackageInfo{
			Name: ins.target.Name,
			Path: ins.target.PkgPath,
			Dir:  cfg.PackageDir(),
		},
		Imports:  make(map[string]string),
		Declared: make(map[string]bool),
	}
	for _, name := range ins.target.Types.Scope().Names() {
		result.Declared[name] = true
	}

	// Step 2: Resolve each declared type
	r := ins.newResolver(cfg, result.Imports)
	for _, ts := range cfg.Types {
		rt, err := r.resolveType(ts)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", ts.Name, err)
		}
		result.Types = append(result.Types, rt)
	}

	if err := checkImportNames(result.Imports); err != nil {
		return nil, err
	}
	return result, nil
}

// loadPackages loads the target package and cfg.Imports using go/packages.
// A previously generated output file is parsed as a bare package clause so
// stale generated code cannot affect resolution.
func (ins *Inspector) loadPackages(ctx context.Context, cfg *Config) error {
	outputPath := cfg.OutputPath()

	pcfg := &packages.Config{
		Context: ctx,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedTypes |
			packages.NeedTypesInfo |
			packages.NeedSyntax |
			packages.NeedImports |
			packages.NeedDeps,
		Dir: cfg.PackageDir(),
		ParseFile: func(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
			mode := parser.AllErrors | parser.ParseComments
			if samePath(filename, outputPath) {
				mode = parser.PackageClauseOnly
			}
			return parser.ParseFile(fset, filename, src, mode)
		},
	}

	patterns := append([]string{"."}, cfg.Imports...)
	pkgs, err := packages.Load(pcfg, patterns...)
	if err != nil {
		return fmt.Errorf("loading packages: %w", err)
	}

	imported := make(map[string]bool, len(cfg.Imports))
	for _, imp := range cfg.Imports {
		imported[imp] = true
	}

	// Type errors are expected: code elsewhere in the package may refer to
	// the generated types, which are hidden during loading.
	var errs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			if e.Kind == packages.TypeError {
				ins.logger.Debug("ignoring type error",
					zap.String("pkg", pkg.PkgPath),
					zap.String("error", e.Error()))
				continue
			}
			errs = append(errs, fmt.Sprintf("%s: %s", pkg.PkgPath, e.Msg))
		}
		ins.loadedPkgs[pkg.PkgPath] = pkg
		if !imported[pkg.PkgPath] {
			ins.target = pkg
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}
	if ins.target == nil || ins.target.Types == nil {
		return fmt.Errorf("no Go package found in %s", cfg.PackageDir())
	}

	ins.logger.Debug("loaded packages",
		zap.String("target", ins.target.PkgPath),
		zap.Strings("imports", cfg.Imports))
	return nil
}

// resolver resolves type expressions in the scope of the target package.
type resolver struct {
	target *types.Package

	// candidates are the packages selector expressions may name, config
	// imports first.
	candidates []*types.Package

	// imports collects path → name for packages referenced by spelled types.
	imports map[string]string
}

func (ins *Inspector) newResolver(cfg *Config, imports map[string]string) *resolver {
	r := &resolver{target: ins.target.Types, imports: imports}
	for _, path := range cfg.Imports {
		if pkg, ok := ins.loadedPkgs[path]; ok && pkg.Types != nil {
			r.candidates = append(r.candidates, pkg.Types)
		}
	}
	r.candidates = append(r.candidates, r.target.Imports()...)
	return r
}

// qualifier spells package-qualified names and records the import.
func (r *resolver) qualifier(p *types.Package) string {
	if p.Path() == r.target.Path() {
		return ""
	}
	r.imports[p.Path()] = p.Name()
	return p.Name()
}

func (r *resolver) typeString(t types.Type) string {
	return types.TypeString(t, r.qualifier)
}

// resolveType resolves all alternatives of one declaration.
func (r *resolver) resolveType(ts TypeSpec) (*ResolvedType, error) {
	rt := &ResolvedType{Spec: ts}
	resolved := make([]types.Type, 0, len(ts.Alternatives))

	for _, alt := range ts.Alternatives {
		t, ra, err := r.resolveAlt(alt)
		if err != nil {
			return nil, fmt.Errorf("alternative %s: %w", alt.Type, err)
		}
		for k, prev := range resolved {
			if types.Identical(prev, t) {
				return nil, fmt.Errorf("alternatives %s and %s are the same type",
					ts.Alternatives[k].Type, alt.Type)
			}
		}
		resolved = append(resolved, t)
		rt.Alternatives = append(rt.Alternatives, ra)
	}
	return rt, nil
}

func (r *resolver) resolveAlt(alt AltSpec) (types.Type, *ResolvedAlt, error) {
	expr, err := parser.ParseExpr(alt.Type)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing type expression: %w", err)
	}
	t, err := r.resolveExpr(expr)
	if err != nil {
		return nil, nil, err
	}
	if types.IsInterface(t) {
		return nil, nil, fmt.Errorf("interface types cannot be alternatives")
	}
	if _, ok := types.Unalias(t).(*types.TypeParam); ok {
		return nil, nil, fmt.Errorf("type parameters cannot be alternatives")
	}

	ra := &ResolvedAlt{
		Spec:       alt,
		GoString:   r.typeString(t),
		Key:        types.TypeString(types.Unalias(t), nil),
		Comparable: types.Comparable(t),
		HasDefault: hasDefaultMethod(t),
		HasEqual:   hasEqualMethod(t),
	}

	if alt.Constructor != "" {
		ctor, err := r.resolveConstructor(alt.Constructor, t)
		if err != nil {
			return nil, nil, err
		}
		ra.Constructor = ctor
	}
	return t, ra, nil
}

// resolveExpr maps a type expression to a go/types type.
func (r *resolver) resolveExpr(e ast.Expr) (types.Type, error) {
	switch e := e.(type) {
	case *ast.Ident:
		if obj := r.target.Scope().Lookup(e.Name); obj != nil {
			tn, ok := obj.(*types.TypeName)
			if !ok {
				return nil, fmt.Errorf("%s is not a type", e.Name)
			}
			return tn.Type(), nil
		}
		if tn, ok := types.Universe.Lookup(e.Name).(*types.TypeName); ok {
			return tn.Type(), nil
		}
		return nil, fmt.Errorf("type %q not found in package %s", e.Name, r.target.Path())

	case *ast.SelectorExpr:
		x, ok := e.X.(*ast.Ident)
		if !ok {
			return nil, fmt.Errorf("unsupported qualified name")
		}
		pkg := r.lookupPackage(x.Name)
		if pkg == nil {
			return nil, fmt.Errorf("package %q is not imported; add it to imports", x.Name)
		}
		tn, ok := pkg.Scope().Lookup(e.Sel.Name).(*types.TypeName)
		if !ok || !tn.Exported() {
			return nil, fmt.Errorf("type %q not found in package %s", e.Sel.Name, pkg.Path())
		}
		return tn.Type(), nil

	case *ast.StarExpr:
		elem, err := r.resolveExpr(e.X)
		if err != nil {
			return nil, err
		}
		return types.NewPointer(elem), nil

	case *ast.ArrayType:
		if e.Len != nil {
			return nil, fmt.Errorf("arrays are not supported, use a named type")
		}
		elem, err := r.resolveExpr(e.Elt)
		if err != nil {
			return nil, err
		}
		return types.NewSlice(elem), nil

	case *ast.ParenExpr:
		return r.resolveExpr(e.X)
	}
	return nil, fmt.Errorf("unsupported type expression %T", e)
}

func (r *resolver) lookupPackage(name string) *types.Package {
	for _, p := range r.candidates {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// resolveConstructor checks that name is a function returning t or (t, error).
func (r *resolver) resolveConstructor(name string, t types.Type) (*Constructor, error) {
	fn, ok := r.target.Scope().Lookup(name).(*types.Func)
	if !ok {
		return nil, fmt.Errorf("constructor %q not found in package %s", name, r.target.Path())
	}
	sig := fn.Type().(*types.Signature)
	if sig.TypeParams().Len() > 0 {
		return nil, fmt.Errorf("constructor %s: generic functions are not supported", name)
	}

	res := sig.Results()
	ctor := &Constructor{Name: name, IsVariadic: sig.Variadic()}
	switch {
	case res.Len() == 1 && types.Identical(res.At(0).Type(), t):
	case res.Len() == 2 && types.Identical(res.At(0).Type(), t) && isErrorType(res.At(1).Type()):
		ctor.HasErrorReturn = true
	default:
		return nil, fmt.Errorf("constructor %s must return %s or (%s, error)", name, r.typeString(t), r.typeString(t))
	}

	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		pt := p.Type()
		if ctor.IsVariadic && i == params.Len()-1 {
			pt = pt.(*types.Slice).Elem()
		}
		pname := p.Name()
		if pname == "" || pname == "_" {
			pname = fmt.Sprintf("p%d", i)
		}
		ctor.Params = append(ctor.Params, &ParamInfo{Name: pname, GoString: r.typeString(pt)})
	}
	return ctor, nil
}

func hasDefaultMethod(t types.Type) bool {
	if _, isPtr := t.Underlying().(*types.Pointer); isPtr {
		return false
	}
	sel := types.NewMethodSet(types.NewPointer(t)).Lookup(nil, "Default")
	if sel == nil {
		return false
	}
	sig, ok := sel.Type().(*types.Signature)
	return ok && sig.Params().Len() == 0 && sig.Results().Len() == 0
}

func hasEqualMethod(t types.Type) bool {
	mset := types.NewMethodSet(t)
	if _, isPtr := t.Underlying().(*types.Pointer); !isPtr {
		mset = types.NewMethodSet(types.NewPointer(t))
	}
	sel := mset.Lookup(nil, "Equal")
	if sel == nil {
		return false
	}
	sig, ok := sel.Type().(*types.Signature)
	if !ok || sig.Params().Len() != 1 || sig.Results().Len() != 1 {
		return false
	}
	b, ok := sig.Results().At(0).Type().(*types.Basic)
	return ok && b.Kind() == types.Bool && types.Identical(sig.Params().At(0).Type(), t)
}

func isErrorType(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}

// checkImportNames rejects two referenced packages sharing a package name.
func checkImportNames(imports map[string]string) error {
	paths := make([]string, 0, len(imports))
	for p := range imports {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	byName := make(map[string]string, len(imports))
	for _, p := range paths {
		name := imports[p]
		if prev, ok := byName[name]; ok {
			return fmt.Errorf("packages %s and %s are both named %s", prev, p, name)
		}
		byName[name] = p
	}
	return nil
}

func samePath(a, b string) bool {
	if a == b {
		return true
	}
	if abs, err := filepath.Abs(a); err == nil {
		a = abs
	}
	if abs, err := filepath.Abs(b); err == nil {
		b = abs
	}
	if a == b {
		return true
	}
	ea, errA := filepath.EvalSymlinks(a)
	eb, errB := filepath.EvalSymlinks(b)
	return errA == nil && errB == nil && ea == eb
}
