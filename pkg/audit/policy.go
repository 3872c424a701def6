package audit

import (
	"slices"

	"github.com/NullVoxPopuli/dep-hellp/pkg/manifest"
)

// DefaultIgnore lists packages whose installations are known to be
// unreliable to audit. They never produce diagnostics.
var DefaultIgnore = []string{
	"webpack",
	"@pnpm/config",
	"@pnpm/default-reporter",
	"ramda",
	"whatwg-url",
	"ansi-html",
	"fast-glob",
}

// IgnoreSet is a set of package names exempt from diagnostics.
type IgnoreSet map[string]struct{}

// NewIgnoreSet builds a set from DefaultIgnore plus extra names.
func NewIgnoreSet(extra ...string) IgnoreSet {
	s := make(IgnoreSet, len(DefaultIgnore)+len(extra))
	for _, name := range DefaultIgnore {
		s[name] = struct{}{}
	}
	for _, name := range extra {
		if name != "" {
			s[name] = struct{}{}
		}
	}
	return s
}

// Has reports whether name is ignored.
func (s IgnoreSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the ignored names sorted.
func (s IgnoreSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Policy is the configuration shared read-only by every walker of a run.
type Policy struct {
	Overrides *Overrides
	Ignore    IgnoreSet

	// ReportOverrides emits OverrideMismatch diagnostics. They are
	// suppressed by default.
	ReportOverrides bool

	// Parallel audits workspace packages concurrently.
	Parallel bool
}

// NewPolicy builds a policy with overrides from root and the default
// ignore set extended by extraIgnore.
func NewPolicy(root *manifest.Manifest, extraIgnore ...string) *Policy {
	return &Policy{
		Overrides: NewOverrides(root),
		Ignore:    NewIgnoreSet(extraIgnore...),
	}
}
