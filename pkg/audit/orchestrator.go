package audit

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/NullVoxPopuli/dep-hellp/pkg/errors"
	"github.com/NullVoxPopuli/dep-hellp/pkg/graph"
	"github.com/NullVoxPopuli/dep-hellp/pkg/observability"
	"github.com/NullVoxPopuli/dep-hellp/pkg/workspace"
)

// PackageResult is the audit of one workspace package.
type PackageResult struct {
	Package     workspace.Package `json:"package"`
	Diagnostics []Diagnostic      `json:"diagnostics"`
	Visited     int               `json:"visited"`
	Duration    time.Duration     `json:"duration"`

	// Err is the fatal load error that aborted this package, if any.
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`

	// Graph is the installed tree recorded while walking.
	Graph *graph.Graph `json:"-"`
}

// Clean reports whether the package has no diagnostics and no error.
func (p PackageResult) Clean() bool { return p.Err == nil && len(p.Diagnostics) == 0 }

// RunResult aggregates one orchestrator run.
type RunResult struct {
	ID       uuid.UUID       `json:"id"`
	Root     string          `json:"root"`
	Total    int             `json:"total"` // diagnostics across all packages
	Packages []PackageResult `json:"packages"`
	Duration time.Duration   `json:"duration"`
}

// Clean reports whether no package has diagnostics or errors.
func (r *RunResult) Clean() bool {
	for _, p := range r.Packages {
		if !p.Clean() {
			return false
		}
	}
	return true
}

// Failed returns the packages whose walk was aborted.
func (r *RunResult) Failed() []PackageResult {
	var failed []PackageResult
	for _, p := range r.Packages {
		if p.Err != nil {
			failed = append(failed, p)
		}
	}
	return failed
}

// Orchestrator audits every package of a workspace.
//
// Run and Rerun are serialized: a Rerun waits for an in-flight Run and
// then discards all of its state.
type Orchestrator struct {
	Workspace *workspace.Workspace
	Policy    *Policy

	opts    Options
	mu      sync.Mutex
	walkers []*Walker
	last    *RunResult
}

// NewOrchestrator creates an orchestrator for ws. A nil policy is built
// from the root manifest with the default ignore set.
func NewOrchestrator(ws *workspace.Workspace, policy *Policy, opts Options) *Orchestrator {
	if policy == nil {
		policy = NewPolicy(ws.Root.Manifest)
	}
	return &Orchestrator{
		Workspace: ws,
		Policy:    policy,
		opts:      opts.withDefaults(),
	}
}

// Run audits the root package and every member package, each with a fresh
// walker and resolution cache. Diagnostics never fail a run; the returned
// error is the first fatal load error (wrapped with the package identity)
// or a context error. The result is returned alongside a load error so the
// remaining packages can still be reported.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.run(ctx)
}

// Rerun discards every walker and cache of the previous run and audits the
// workspace again from the current on-disk state.
func (o *Orchestrator) Rerun(ctx context.Context) (*RunResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, w := range o.walkers {
		w.Reset()
	}
	o.walkers = nil
	o.last = nil
	return o.run(ctx)
}

// Last returns the result of the most recent completed run, or nil.
func (o *Orchestrator) Last() *RunResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

func (o *Orchestrator) run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	targets := o.Workspace.Targets()
	hooks := o.opts.Hooks
	logger := o.opts.Logger

	hooks.OnRunStart(ctx, o.Workspace.Root.Dir, len(targets))
	logger.Debug("audit started", "root", o.Workspace.Root.Dir, "packages", len(targets), "parallel", o.Policy.Parallel)

	results := make([]PackageResult, len(targets))
	walkers := make([]*Walker, len(targets))

	if o.Policy.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i, target := range targets {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				walkers[i] = NewWalker(o.Policy, o.opts)
				results[i] = o.auditPackage(gctx, walkers[i], target)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			hooks.OnRunComplete(ctx, o.Workspace.Root.Dir, 0, time.Since(start), err)
			return nil, err
		}
	} else {
		for i, target := range targets {
			if err := ctx.Err(); err != nil {
				hooks.OnRunComplete(ctx, o.Workspace.Root.Dir, 0, time.Since(start), err)
				return nil, err
			}
			walkers[i] = NewWalker(o.Policy, o.opts)
			results[i] = o.auditPackage(ctx, walkers[i], target)
		}
	}

	res := &RunResult{
		ID:       uuid.New(),
		Root:     o.Workspace.Root.Dir,
		Packages: results,
		Duration: time.Since(start),
	}
	var firstErr error
	for _, p := range results {
		res.Total += len(p.Diagnostics)
		if p.Err != nil && firstErr == nil {
			firstErr = p.Err
		}
	}

	o.walkers = walkers
	o.last = res
	hooks.OnRunComplete(ctx, res.Root, res.Total, res.Duration, firstErr)
	logger.Debug("audit finished", "total", res.Total, "duration", res.Duration)
	return res, firstErr
}

func (o *Orchestrator) auditPackage(ctx context.Context, w *Walker, pkg workspace.Package) PackageResult {
	start := time.Now()
	o.opts.Hooks.OnPackageStart(ctx, pkg.Name, pkg.Dir)

	_, err := w.Traverse(ctx, pkg.ManifestPath(), true)
	if err != nil {
		err = errors.Wrap(errors.GetCode(err), err, "audit %s (%s)", pkg.Name, pkg.Dir)
	}

	res := PackageResult{
		Package:     pkg,
		Diagnostics: w.Diagnostics(),
		Visited:     w.Visited(),
		Duration:    time.Since(start),
		Err:         err,
		Graph:       w.Graph(),
	}
	if err != nil {
		// no partial result for an unreadable manifest
		res.Diagnostics = nil
		res.Error = errors.UserMessage(err)
	}
	if res.Diagnostics == nil {
		res.Diagnostics = []Diagnostic{}
	}

	stats := w.CacheStats()
	o.opts.Hooks.OnPackageComplete(ctx, pkg.Name, pkg.Dir, observability.PackageSummary{
		Diagnostics: len(res.Diagnostics),
		Visited:     res.Visited,
		CacheHits:   stats.Hits,
		CacheMisses: stats.Misses,
		Duration:    res.Duration,
	}, err)
	o.opts.Logger.Debug("package audited", "package", pkg.Name, "diagnostics", len(res.Diagnostics), "visited", res.Visited, "hits", stats.Hits, "misses", stats.Misses)
	return res
}
