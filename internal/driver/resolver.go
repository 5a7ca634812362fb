package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ripple/internal/ast"
	"ripple/internal/diag"
	"ripple/internal/observ"
	"ripple/internal/sema"
	"ripple/internal/typeinfo"
)

// Resolver maps dotted import subjects to .rast files on the manifest's
// search paths and checks each imported module once, recursively. A resolver
// serves a single root check and is not safe for concurrent use; the loader
// behind it may be shared.
type Resolver struct {
	loader   *Loader
	search   []string
	warnings diag.Reporter
	maxDiags int

	checked  map[string]checkedModule
	inFlight map[string]bool
}

type checkedModule struct {
	mod  *ast.Builder
	info *typeinfo.TypeInfo
}

func NewResolver(loader *Loader, m Manifest, warnings diag.Reporter) *Resolver {
	if warnings == nil {
		warnings = diag.NopReporter{}
	}
	return &Resolver{
		loader:   loader,
		search:   m.Search,
		warnings: warnings,
		maxDiags: m.MaxWarnings,
		checked:  make(map[string]checkedModule),
		inFlight: make(map[string]bool),
	}
}

// Import satisfies sema.Importer: subjects like ["lib", "util"] resolve to
// lib/util.rast on the search paths.
func (r *Resolver) Import(subject []string) (*ast.Builder, *typeinfo.TypeInfo, error) {
	key := strings.Join(subject, ".")
	if c, ok := r.checked[key]; ok {
		return c.mod, c.info, nil
	}
	if r.inFlight[key] {
		return nil, nil, fmt.Errorf("Import cycle detected while importing '%s'", key)
	}
	path, err := r.locate(subject, key)
	if err != nil {
		return nil, nil, err
	}
	loaded, err := r.loader.Load(path)
	if err != nil {
		return nil, nil, err
	}

	r.inFlight[key] = true
	defer delete(r.inFlight, key)
	info, err := sema.CheckModule(loaded.Builder, r.warnings, r)
	if err != nil {
		return nil, nil, fmt.Errorf("in module '%s': %w", key, err)
	}
	r.checked[key] = checkedModule{mod: loaded.Builder, info: info}
	return loaded.Builder, info, nil
}

func (r *Resolver) locate(subject []string, key string) (string, error) {
	rel := filepath.Join(subject...) + ".rast"
	for _, dir := range r.search {
		candidate := filepath.Join(dir, rel)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("Could not find module '%s' on the search path", key)
}

// CheckFile loads and checks one root module, resolving its imports. The
// returned bag carries the warnings of the root and everything it pulled in.
// Load and check durations are recorded on the timer when one is given.
func (r *Resolver) CheckFile(path string, timer *observ.Timer) (*LoadedModule, *typeinfo.TypeInfo, error) {
	var loadPhase int
	if timer != nil {
		loadPhase = timer.Begin("load")
	}
	loaded, err := r.loader.Load(path)
	if timer != nil {
		timer.End(loadPhase, filepath.Base(path))
	}
	if err != nil {
		return nil, nil, err
	}

	var checkPhase int
	if timer != nil {
		checkPhase = timer.Begin("check")
	}
	info, err := sema.CheckModule(loaded.Builder, r.warnings, r)
	if timer != nil {
		timer.End(checkPhase, fmt.Sprintf("%d import(s)", len(r.checked)))
	}
	if err != nil {
		return loaded, nil, err
	}
	return loaded, info, nil
}
