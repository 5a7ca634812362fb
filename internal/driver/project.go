package driver

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"ripple/internal/ast"
	"ripple/internal/diag"
	"ripple/internal/observ"
	"ripple/internal/typeinfo"
)

// Result is the outcome of checking one root module.
type Result struct {
	Path   string
	Module *ast.Builder
	Info   *typeinfo.TypeInfo
	Bag    *diag.Bag
	Timing observ.Report
	Err    error
}

// Project ties a manifest to a shared loader so several roots reuse decoded
// imports.
type Project struct {
	Manifest Manifest
	Loader   *Loader
}

func NewProject(m Manifest) *Project {
	return &Project{Manifest: m, Loader: NewLoader()}
}

// CheckProject checks every root in parallel. Each root gets its own
// resolver and diagnostic bag; the results come back in input order so
// output is deterministic regardless of scheduling. The returned error is
// reserved for infrastructure failures; per-root type errors live in the
// results.
func (p *Project) CheckProject(ctx context.Context, roots []string) ([]Result, error) {
	jobs := p.Manifest.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if len(roots) == 0 {
		return nil, nil
	}

	results := make([]Result, len(roots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(roots)))

	for i, path := range roots {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			bag := diag.NewBag(p.Manifest.MaxWarnings)
			resolver := NewResolver(p.Loader, p.Manifest, diag.BagReporter{Bag: bag})
			timer := observ.NewTimer()
			loaded, info, err := resolver.CheckFile(path, timer)
			res := Result{Path: path, Bag: bag, Timing: timer.Report(), Err: err}
			if loaded != nil {
				res.Module = loaded.Builder
			}
			res.Info = info
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
