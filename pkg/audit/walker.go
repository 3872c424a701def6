package audit

import (
	"context"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/NullVoxPopuli/dep-hellp/pkg/errors"
	"github.com/NullVoxPopuli/dep-hellp/pkg/graph"
	"github.com/NullVoxPopuli/dep-hellp/pkg/manifest"
	"github.com/NullVoxPopuli/dep-hellp/pkg/observability"
	"github.com/NullVoxPopuli/dep-hellp/pkg/resolve"
	"github.com/NullVoxPopuli/dep-hellp/pkg/semver"
)

// missingPrefix marks graph nodes for dependencies that are not installed.
const missingPrefix = "missing:"

// Options configures walkers and orchestrators. The zero value reads from
// the filesystem and logs nowhere.
type Options struct {
	// Reader loads manifests. Defaults to manifest.FileReader.
	Reader manifest.Reader

	// NewLocator creates the locator behind each walker's cache.
	// Defaults to resolve.NewNodeModules.
	NewLocator func() resolve.Locator

	Logger *log.Logger

	// Hooks receives orchestrator events. Defaults to observability.Audit().
	Hooks observability.AuditHooks

	// ResolveHooks receives lookups. Defaults to observability.Resolve().
	ResolveHooks observability.ResolveHooks
}

func (o Options) withDefaults() Options {
	if o.Reader == nil {
		o.Reader = manifest.FileReader{}
	}
	if o.NewLocator == nil {
		o.NewLocator = func() resolve.Locator { return resolve.NewNodeModules() }
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Hooks == nil {
		o.Hooks = observability.Audit()
	}
	if o.ResolveHooks == nil {
		o.ResolveHooks = observability.Resolve()
	}
	return o
}

// Walker traverses the manifest graph of one package.
//
// A Walker is single-use per run and not safe for concurrent use. Call
// Reset before traversing again.
type Walker struct {
	policy *Policy
	reader manifest.Reader
	cache  *resolve.Cache
	logger *log.Logger
	hooks  observability.ResolveHooks

	seen  map[string]string // manifest path → version
	diags Collector
	graph *graph.Graph
}

// NewWalker creates a walker with its own resolution cache. A nil policy
// pins nothing and ignores DefaultIgnore.
func NewWalker(policy *Policy, opts Options) *Walker {
	opts = opts.withDefaults()
	if policy == nil {
		policy = &Policy{Ignore: NewIgnoreSet()}
	}
	return &Walker{
		policy: policy,
		reader: opts.Reader,
		cache:  resolve.NewCache(opts.NewLocator()),
		logger: opts.Logger,
		hooks:  opts.ResolveHooks,
		seen:   make(map[string]string),
		graph:  graph.New(nil),
	}
}

// Traverse walks the manifest at path and returns its declared version.
//
// dependencies and peerDependencies are checked for every manifest;
// devDependencies only for path itself when includeDev is set. A manifest
// that cannot be loaded aborts the walk with an ErrCodeInvalidManifest or
// ErrCodeFileNotFound error. The context is passed to hooks only; a walk is
// never interrupted.
func (w *Walker) Traverse(ctx context.Context, path string, includeDev bool) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s", path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return w.traverse(ctx, abs, includeDev, true)
}

func (w *Walker) traverse(ctx context.Context, path string, includeDev, root bool) (string, error) {
	if version, ok := w.seen[path]; ok {
		return version, nil
	}

	m, err := w.reader.Read(path)
	if err != nil {
		code := errors.GetCode(err)
		if code != errors.ErrCodeFileNotFound {
			code = errors.ErrCodeInvalidManifest
		}
		return "", errors.Wrap(code, err, "load manifest %s", path)
	}
	if m.Path == "" {
		m.Path = path
	}
	w.seen[path] = m.Version

	node := w.graph.EnsureNode(m.Dir(), nil)
	node.Meta[graph.MetaName] = m.Name
	node.Meta[graph.MetaVersion] = m.Version
	if root {
		node.Meta[graph.MetaRoot] = true
	}

	w.logger.Debug("visit", "package", m.DisplayName(), "version", m.Version, "path", m.Dir())

	sections := []manifest.Section{manifest.SectionDependencies, manifest.SectionPeerDependencies}
	if includeDev {
		sections = append(sections, manifest.SectionDevDependencies)
	}
	for _, sec := range sections {
		if err := w.checkSection(ctx, sec, m); err != nil {
			return "", err
		}
	}
	return m.Version, nil
}

func (w *Walker) checkSection(ctx context.Context, sec manifest.Section, m *manifest.Manifest) error {
	origin := m.Dir()
	source := Source{Name: m.DisplayName(), Version: m.Version, Path: origin}

	for _, dep := range m.Section(sec) {
		r := Classify(dep.Range)
		if r.Skipped() {
			w.logger.Debug("skip unresolvable range", "package", source.Name, "dependency", dep.Name, "range", dep.Range, "kind", r.Kind)
			continue
		}

		request := Request{Name: dep.Name, Range: r.Check, Section: sec}
		if r.Kind != RangeSemver {
			request.Raw = dep.Range
		}
		if request.Range == "" {
			request.Range = dep.Range
		}
		ignored := w.policy.Ignore.Has(dep.Name)

		target, found := w.resolve(ctx, dep.Name, origin)
		if !found {
			if r.Kind == RangeWorkspace {
				w.logger.Debug("workspace dependency not linked", "package", source.Name, "dependency", dep.Name)
				continue
			}
			if ignored || (sec == manifest.SectionPeerDependencies && m.PeerOptional(dep.Name)) {
				continue
			}
			placeholder := w.graph.EnsureNode(missingPrefix+dep.Name, nil)
			placeholder.Meta[graph.MetaName] = dep.Name
			placeholder.Meta[graph.MetaMissing] = true
			w.report(Diagnostic{Source: source, Requested: request, Problem: Missing}, placeholder.ID, w.link(origin, placeholder.ID, sec, dep))
			continue
		}

		version, err := w.traverse(ctx, target, false, false)
		if err != nil {
			return err
		}
		targetDir := filepath.Dir(target)
		edge := w.link(origin, targetDir, sec, dep)

		if !r.Checkable() || ignored {
			continue
		}

		installed := &Found{Version: version, Path: targetDir}
		ok, err := semver.Satisfies(version, r.Check)
		switch {
		case err != nil:
			w.report(Diagnostic{Source: source, Requested: request, Problem: InvalidRange, Found: installed, Reason: err.Error()}, targetDir, edge)
		case ok:
		default:
			if pin, pinned := w.policy.Overrides.PinFor(dep.Name); pinned {
				if w.policy.Overrides.PinSatisfies(dep.Name, r.Check) || !w.policy.ReportOverrides {
					w.logger.Debug("override accepted", "dependency", dep.Name, "pin", pin, "range", r.Check, "installed", version)
					continue
				}
				w.report(Diagnostic{Source: source, Requested: request, Problem: OverrideMismatch, Found: installed, Pin: pin}, targetDir, edge)
				continue
			}
			w.report(Diagnostic{Source: source, Requested: request, Problem: VersionMismatch, Found: installed}, targetDir, edge)
		}
	}
	return nil
}

func (w *Walker) resolve(ctx context.Context, name, dir string) (string, bool) {
	hits := w.cache.Stats().Hits
	path, found := w.cache.Resolve(name, dir)
	w.hooks.OnResolve(ctx, name, w.cache.Stats().Hits > hits, found)
	return path, found
}

// link records a declaration edge and returns its metadata.
func (w *Walker) link(from, to string, sec manifest.Section, dep manifest.Dependency) graph.Metadata {
	meta := graph.Metadata{
		graph.MetaDeclared: dep.Name,
		graph.MetaRange:    dep.Range,
		graph.MetaSection:  string(sec),
	}
	w.graph.EnsureNode(to, nil)
	_ = w.graph.AddEdge(graph.Edge{From: from, To: to, Meta: meta})
	return meta
}

// report records d and flags the offending node and edge in the graph.
func (w *Walker) report(d Diagnostic, node string, edge graph.Metadata) {
	w.diags.Add(d)
	w.logger.Debug("problem", "package", d.Source.Name, "dependency", d.Requested.Name, "problem", d.Problem)

	if n, ok := w.graph.Node(node); ok {
		n.Meta[graph.MetaProblem] = d.Problem.String()
	}
	edge[graph.MetaProblem] = d.Problem.String()
}

// Diagnostics returns the problems found so far in discovery order.
func (w *Walker) Diagnostics() []Diagnostic { return w.diags.Diagnostics() }

// Graph returns the installed-package graph recorded by the walk.
func (w *Walker) Graph() *graph.Graph { return w.graph }

// Visited returns the number of distinct manifests loaded.
func (w *Walker) Visited() int { return len(w.seen) }

// CacheStats returns the resolution cache counters.
func (w *Walker) CacheStats() resolve.Stats { return w.cache.Stats() }

// Reset discards every result of previous walks and invalidates the
// resolution cache, so the next Traverse reads the tree from scratch.
func (w *Walker) Reset() {
	w.cache.Invalidate()
	clear(w.seen)
	w.diags.Reset()
	w.graph = graph.New(nil)
}
