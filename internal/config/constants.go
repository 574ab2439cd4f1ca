package config

import "strings"

// ConfigFileNames are the recognized declaration file names, in lookup order.
var ConfigFileNames = []string{"sumgen.yaml", "sumgen.yml"}

// Declaration defaults
const (
	DefaultPackageDir = "."
	DefaultOutputFile = "variants_gen.go"
)

// Runtime library the generated code imports.
const (
	RuntimeModule     = "github.com/funvibe/variant"
	RuntimeImportPath = RuntimeModule + "/pkg/variant"
)

// GeneratedHeader is the first line of every generated file.
const GeneratedHeader = "// Code generated by sumgen. DO NOT EDIT."

// CacheDirName is created next to the declaration file.
const CacheDirName = ".sumgen"

// Version is reported by `sumgen version`.
// Can be set at build time using: -ldflags "-X github.com/funvibe/variant/internal/config.Version=v1.2.3"
var Version = "dev"

// Method names every generated sum type defines. Alternative and sum type
// names that would produce these (or prefixed forms) are rejected.
var ReservedMethodNames = []string{
	"Variant", "Alternatives", "Tag", "Type", "Equal", "String", "Set", "Assign", "Destroy",
}

// IsReservedMethodName reports whether name is one of ReservedMethodNames.
func IsReservedMethodName(name string) bool {
	for _, r := range ReservedMethodNames {
		if r == name {
			return true
		}
	}
	return false
}

// IsGoSource reports whether path names a non-test Go file.
func IsGoSource(path string) bool {
	return strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go")
}
