package imports

// preludeModule is the synthetic module name backing the implicit default
// imports every file receives (spec §4.7). There is no source file for
// it — its bindings are grammar-intrinsic.
const preludeModule = "Prelude"

// preludeTypes are the grammar-intrinsic types with no Glimmer-source
// definition. getEmptyTypes (§6) surfaces these same names to the host.
var preludeTypes = []string{"List", "String", "Int", "Float", "Char", "Bool"}

// PreludeTypeNames exposes preludeTypes to callers outside the package
// (the root package's GetEmptyTypes) so the two lists can't drift apart.
func PreludeTypeNames() []string {
	out := make([]string, len(preludeTypes))
	copy(out, preludeTypes)
	return out
}

// preludeConstructors are the built-in union constructors every module
// sees without an explicit import.
var preludeConstructors = []string{"True", "False"}

// defaultImport builds the always-present ResolvedImport for the standard
// prelude. It is appended to every tree's resolved imports; shadowing is
// left to the reference resolver, which tries local/file/explicit-import
// bindings first (spec §4.7 shadowing order).
func defaultImport() ResolvedImport {
	exposed := make(map[string]OriginalRef, len(preludeTypes)+len(preludeConstructors))
	for _, name := range preludeTypes {
		exposed[name] = OriginalRef{SourceModule: preludeModule, OriginalName: name}
	}
	for _, name := range preludeConstructors {
		exposed[name] = OriginalRef{SourceModule: preludeModule, OriginalName: name}
	}
	return ResolvedImport{SourceModule: preludeModule, ExposedLocally: exposed}
}
