package sumgen

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/funvibe/variant/internal/config"
)

// CodeGenerator produces the Go source of the generated sum types.
type CodeGenerator struct {
	// runtimeImport is the import path of the variant runtime package.
	runtimeImport string
}

// NewCodeGenerator creates a new code generator importing the runtime from
// runtimeImport (config.RuntimeImportPath unless testing a fork).
func NewCodeGenerator(runtimeImport string) *CodeGenerator {
	if runtimeImport == "" {
		runtimeImport = config.RuntimeImportPath
	}
	return &CodeGenerator{runtimeImport: runtimeImport}
}

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	// Filename is the path the file is written to.
	Filename string

	// Content is the full, gofmt-formatted Go source code.
	Content string
}

// Generate renders the file for the given inspection result.
func (cg *CodeGenerator) Generate(result *InspectResult, filename string) (GeneratedFile, error) {
	data, err := cg.buildFileData(result)
	if err != nil {
		return GeneratedFile{}, err
	}

	tmpl, err := template.New("sumgen").Parse(fileTemplate)
	if err != nil {
		return GeneratedFile{}, fmt.Errorf("parsing template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return GeneratedFile{}, fmt.Errorf("executing template: %w", err)
	}

	src, err := imports.Process(filename, []byte(buf.String()), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return GeneratedFile{}, fmt.Errorf("formatting generated code: %w", err)
	}

	return GeneratedFile{Filename: filename, Content: string(src)}, nil
}

type fileData struct {
	Header  string
	Package string
	Runtime string
	Imports []importEntry
	Types   []typeData
}

type importEntry struct {
	Path  string
	Name  string
	Alias bool
}

type typeData struct {
	Name      string
	Set       string
	Doc       []string
	EqualDoc  []string
	TypeParam string
	Alts      []altData
	Convs     []convData
}

type altData struct {
	Name string
	Type string
	Doc  string
	Ctor *ctorData
}

type ctorData struct {
	Func     string
	Params   string
	Args     string
	HasError bool
}

type convData struct {
	To       string
	ToSet    string
	Widening bool
	Shared   string
}

// buildFileData prepares the template input and checks that no generated
// identifier collides with another one or with a declaration of the package.
func (cg *CodeGenerator) buildFileData(result *InspectResult) (*fileData, error) {
	data := &fileData{
		Header:  config.GeneratedHeader,
		Package: result.Package.Name,
		Runtime: cg.runtimeImport,
	}

	imps, err := cg.sortedImports(result.Imports)
	if err != nil {
		return nil, err
	}
	data.Imports = imps

	relations := result.Relations()
	globals := newNameSet(result.Declared)

	for _, rt := range result.Types {
		name := rt.Spec.Name
		td := typeData{
			Name:      name,
			Set:       "set" + name,
			Doc:       docLines(rt),
			TypeParam: typeParamName(rt),
		}

		methods := newNameSet(nil)
		for _, m := range []string{"Variant", "Alternatives", "Tag", "Type", "IsValid", "Equal", "String", "Set", "Assign", "Destroy"} {
			methods.add(m)
		}

		for _, n := range []string{name, name + "Tag", td.Set, "Match" + name, "Update" + name} {
			if err := globals.add(n); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}

		for _, ra := range rt.Alternatives {
			ad := altData{Name: ra.Spec.Name, Type: ra.GoString}
			if ra.HasDefault {
				ad.Doc = ", starting from its Default state"
			}
			for _, n := range []string{"Is" + ad.Name, ad.Name, "As" + ad.Name} {
				if err := methods.add(n); err != nil {
					return nil, fmt.Errorf("%s: alternative %s: %w", name, ra.Spec.Type, err)
				}
			}
			globalNames := []string{name + "Tag" + ad.Name, name + "Of" + ad.Name, name + "InPlace" + ad.Name}
			if ra.Constructor != nil {
				ad.Ctor = ctorFor(name, ad.Name, ra.Constructor)
				globalNames = append(globalNames, name+"New"+ad.Name)
			}
			for _, n := range globalNames {
				if err := globals.add(n); err != nil {
					return nil, fmt.Errorf("%s: alternative %s: %w", name, ra.Spec.Type, err)
				}
			}
			td.Alts = append(td.Alts, ad)
		}

		td.EqualDoc = equalDoc(rt)

		for _, rel := range relations {
			if rel.From != name || rel.Kind == Disjoint {
				continue
			}
			cd := convData{
				To:       rel.To,
				ToSet:    "set" + rel.To,
				Widening: rel.Kind == Widening,
				Shared:   joinNames(rel.Shared, "or"),
			}
			conv := "Try" + rel.To
			if cd.Widening {
				conv = "To" + rel.To
			}
			for _, n := range []string{conv, "Is" + rel.To} {
				if err := methods.add(n); err != nil {
					return nil, fmt.Errorf("%s: conversion to %s: %w", name, rel.To, err)
				}
			}
			td.Convs = append(td.Convs, cd)
		}

		data.Types = append(data.Types, td)
	}
	return data, nil
}

// sortedImports returns the extra imports in path order. Packages whose name
// differs from the last path element are imported with an explicit name.
func (cg *CodeGenerator) sortedImports(imps map[string]string) ([]importEntry, error) {
	fixed := map[string]string{
		"strconv": "strconv",
		"variant": cg.runtimeImport,
	}

	var entries []importEntry
	for p, name := range imps {
		if p == cg.runtimeImport || p == "strconv" {
			continue
		}
		if other, ok := fixed[name]; ok {
			return nil, fmt.Errorf("package %s is named %s, which the generated code reserves for %s", p, name, other)
		}
		entries = append(entries, importEntry{Path: p, Name: name, Alias: path.Base(p) != name})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

// ctorFor builds the forwarding call. Parameters named like identifiers the
// wrapper body uses are renamed.
func ctorFor(typeName, altName string, c *Constructor) *ctorData {
	taken := map[string]bool{
		"x":                       true,
		"err":                     true,
		c.Name:                    true,
		typeName:                  true,
		typeName + "Of" + altName: true,
	}

	var params, args []string
	for i, p := range c.Params {
		name := p.Name
		if taken[name] {
			name = fmt.Sprintf("p%d", i)
		}
		typ := p.GoString
		arg := name
		if c.IsVariadic && i == len(c.Params)-1 {
			typ = "..." + typ
			arg += "..."
		}
		params = append(params, name+" "+typ)
		args = append(args, arg)
	}
	return &ctorData{
		Func:     c.Name,
		Params:   strings.Join(params, ", "),
		Args:     strings.Join(args, ", "),
		HasError: c.HasErrorReturn,
	}
}

func docLines(rt *ResolvedType) []string {
	doc := strings.TrimSpace(rt.Spec.Doc)
	if doc == "" {
		names := make([]string, len(rt.Alternatives))
		for i, ra := range rt.Alternatives {
			names[i] = ra.GoString
		}
		if len(names) == 1 {
			doc = fmt.Sprintf("%s wraps %s.", rt.Spec.Name, names[0])
		} else {
			doc = fmt.Sprintf("%s holds exactly one of %s.", rt.Spec.Name, joinNames(names, "or"))
		}
	}
	return strings.Split(doc, "\n")
}

var identRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// typeParamName picks the name of the result type parameter of the Match and
// Update functions so it cannot shadow an alternative type.
func typeParamName(rt *ResolvedType) string {
	used := make(map[string]bool)
	for _, ra := range rt.Alternatives {
		for _, id := range identRe.FindAllString(ra.GoString, -1) {
			used[id] = true
		}
	}
	for _, candidate := range []string{"R", "Result", "MatchResult"} {
		if !used[candidate] {
			return candidate
		}
	}
	return "SumgenResult"
}

// joinNames renders "A", "A or B", "A, B or C".
// equalDoc describes payload comparisons that are not plain ==.
func equalDoc(rt *ResolvedType) []string {
	var byMethod, deep []string
	for _, ra := range rt.Alternatives {
		switch {
		case ra.HasEqual:
			byMethod = append(byMethod, ra.GoString)
		case !ra.Comparable:
			deep = append(deep, ra.GoString)
		}
	}
	var lines []string
	if len(byMethod) > 0 {
		lines = append(lines, joinNames(byMethod, "and")+" payloads are compared with their Equal method.")
	}
	if len(deep) > 0 {
		lines = append(lines, joinNames(deep, "and")+" payloads are compared with reflect.DeepEqual.")
	}
	return lines
}

func joinNames(names []string, conj string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " " + conj + " " + names[len(names)-1]
}

// nameSet tracks identifiers and reports collisions.
type nameSet map[string]bool

func newNameSet(existing map[string]bool) nameSet {
	s := make(nameSet, len(existing))
	for n := range existing {
		s[n] = true
	}
	return s
}

func (s nameSet) add(name string) error {
	if s[name] {
		return fmt.Errorf("generated identifier %s is already declared", name)
	}
	s[name] = true
	return nil
}

const fileTemplate = `{{.Header}}

package {{.Package}}

import (
	"strconv"

	"{{.Runtime}}"
{{- range .Imports}}
	{{if .Alias}}{{.Name}} {{end}}"{{.Path}}"
{{- end}}
)
{{range $t := .Types}}
// {{$t.Name}}Tag identifies the active alternative of {{$t.Name}}.
type {{$t.Name}}Tag uint8

const (
{{- range $i, $a := $t.Alts}}
	{{$t.Name}}Tag{{$a.Name}}{{if eq $i 0}} {{$t.Name}}Tag = iota{{end}}
{{- end}}
)

func (t {{$t.Name}}Tag) String() string {
	switch t {
{{- range $t.Alts}}
	case {{$t.Name}}Tag{{.Name}}:
		return {{printf "%q" .Type}}
{{- end}}
	}
	return "{{$t.Name}}Tag(" + strconv.Itoa(int(t)) + ")"
}

var {{$t.Set}} = variant.MustSet({{printf "%q" $t.Name}}{{range $t.Alts}}, variant.Alt[{{.Type}}](){{end}})

{{range $t.Doc}}// {{.}}
{{end -}}
//
// The zero {{$t.Name}} holds no alternative; build values with the
// {{$t.Name}}Of and {{$t.Name}}InPlace functions.
type {{$t.Name}} struct {
	v variant.Value
}

var _ variant.Sum = {{$t.Name}}{}
{{range $a := $t.Alts}}
// {{$t.Name}}Of{{$a.Name}} returns x as {{$t.Name}}.
func {{$t.Name}}Of{{$a.Name}}(x {{$a.Type}}) {{$t.Name}} {
	return {{$t.Name}}{v: variant.MustOf({{$t.Set}}, x)}
}

// {{$t.Name}}InPlace{{$a.Name}} constructs {{$a.Type}} inside a new {{$t.Name}}{{$a.Doc}}
// and applies init in order.
func {{$t.Name}}InPlace{{$a.Name}}(init ...func(*{{$a.Type}})) {{$t.Name}} {
	return {{$t.Name}}{v: variant.MustEmplace({{$t.Set}}, init...)}
}
{{- with $a.Ctor}}

// {{$t.Name}}New{{$a.Name}} returns the result of {{.Func}} as {{$t.Name}}.
func {{$t.Name}}New{{$a.Name}}({{.Params}}) {{if .HasError}}({{$t.Name}}, error){{else}}{{$t.Name}}{{end}} {
{{- if .HasError}}
	x, err := {{.Func}}({{.Args}})
	if err != nil {
		return {{$t.Name}}{}, err
	}
	return {{$t.Name}}Of{{$a.Name}}(x), nil
{{- else}}
	return {{$t.Name}}Of{{$a.Name}}({{.Func}}({{.Args}}))
{{- end}}
}
{{- end}}

// Is{{$a.Name}} reports whether {{$a.Type}} is the active alternative.
func (v {{$t.Name}}) Is{{$a.Name}}() bool {
	return v.v.Is(variant.Alt[{{$a.Type}}]())
}

// {{$a.Name}} returns the {{$a.Type}} alternative. It panics if another
// alternative is active.
func (v {{$t.Name}}) {{$a.Name}}() {{$a.Type}} {
	return variant.Get[{{$a.Type}}](v.v)
}

// As{{$a.Name}} returns the {{$a.Type}} alternative and whether it is active.
func (v {{$t.Name}}) As{{$a.Name}}() ({{$a.Type}}, bool) {
	return variant.TryGet[{{$a.Type}}](v.v)
}
{{end}}
// Variant returns the runtime value.
func (v {{$t.Name}}) Variant() variant.Value {
	return v.v
}

// Alternatives returns the alternative set of {{$t.Name}}.
func ({{$t.Name}}) Alternatives() *variant.Set {
	return {{$t.Set}}
}

// IsValid reports whether v holds an alternative.
func (v {{$t.Name}}) IsValid() bool {
	return v.v.IsValid()
}

// Tag returns the tag of the active alternative.
func (v {{$t.Name}}) Tag() {{$t.Name}}Tag {
	return {{$t.Name}}Tag(v.v.Tag())
}

// Type returns the identity of the active alternative.
func (v {{$t.Name}}) Type() variant.TypeID {
	return v.v.Type()
}

// Equal reports whether v and o hold the same alternative with equal payloads.
{{- range $t.EqualDoc}}
// {{.}}
{{- end}}
func (v {{$t.Name}}) Equal(o {{$t.Name}}) bool {
	return variant.Equal(v.v, o.v)
}

func (v {{$t.Name}}) String() string {
	return v.v.String()
}

// Set replaces the alternative of v with the one o holds. The previous
// alternative is destroyed.
func (v *{{$t.Name}}) Set(o {{$t.Name}}) {
	if v.v.Alternatives() == nil {
		v.v = o.v
		return
	}
	if err := v.v.Assign(o.v); err != nil {
		panic(err)
	}
}

// Assign replaces the alternative of v with the one o holds, converting it
// to {{$t.Name}}. When o's active alternative is not an alternative of
// {{$t.Name}}, Assign returns an error and v is unchanged.
func (v *{{$t.Name}}) Assign(o variant.Sum) error {
	if v.v.Alternatives() == nil {
		w, err := variant.Convert({{$t.Set}}, o.Variant())
		if err != nil {
			return err
		}
		v.v = w
		return nil
	}
	return v.v.Assign(o.Variant())
}

// Destroy destroys the active alternative. v holds no alternative until it
// is set again.
func (v *{{$t.Name}}) Destroy() {
	v.v.Destroy()
}
{{range $c := $t.Convs}}
{{- if $c.Widening}}
// To{{$c.To}} converts v to {{$c.To}}, which has every alternative of {{$t.Name}}.
func (v {{$t.Name}}) To{{$c.To}}() {{$c.To}} {
	return {{$c.To}}{v: variant.Widen({{$c.ToSet}}, v.v)}
}
{{- else}}
// Try{{$c.To}} converts v to {{$c.To}}. It fails unless the active alternative
// is {{$c.Shared}}.
func (v {{$t.Name}}) Try{{$c.To}}() ({{$c.To}}, error) {
	w, err := variant.Narrow({{$c.ToSet}}, v.v)
	if err != nil {
		return {{$c.To}}{}, err
	}
	return {{$c.To}}{v: w}, nil
}
{{- end}}

// Is{{$c.To}} reports whether the active alternative is also an alternative of {{$c.To}}.
func (v {{$t.Name}}) Is{{$c.To}}() bool {
	return v.v.In({{$c.ToSet}})
}
{{end}}
// Match{{$t.Name}} calls the function for the active alternative of v and
// returns its result.
func Match{{$t.Name}}[{{$t.TypeParam}} any](v {{$t.Name}}{{range $t.Alts}}, on{{.Name}} func({{.Type}}) {{$t.TypeParam}}{{end}}) {{$t.TypeParam}} {
	switch v.Tag() {
{{- range $t.Alts}}
	case {{$t.Name}}Tag{{.Name}}:
		return on{{.Name}}(variant.Get[{{.Type}}](v.v))
{{- end}}
	}
	panic("unreachable")
}

// Update{{$t.Name}} calls the function for the active alternative of v with a
// pointer to it and stores the modified alternative back into v.
func Update{{$t.Name}}[{{$t.TypeParam}} any](v *{{$t.Name}}{{range $t.Alts}}, on{{.Name}} func(*{{.Type}}) {{$t.TypeParam}}{{end}}) {{$t.TypeParam}} {
	switch v.Tag() {
{{- range $t.Alts}}
	case {{$t.Name}}Tag{{.Name}}:
		x := variant.Get[{{.Type}}](v.v)
		r := on{{.Name}}(&x)
		v.v = variant.MustOf({{$t.Set}}, x)
		return r
{{- end}}
	}
	panic("unreachable")
}
{{end}}`
