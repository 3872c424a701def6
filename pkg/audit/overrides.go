package audit

import (
	"maps"
	"strings"

	"github.com/NullVoxPopuli/dep-hellp/pkg/manifest"
	"github.com/NullVoxPopuli/dep-hellp/pkg/semver"
)

// Override sources in precedence order.
const (
	OverrideSourcePNPM        = "pnpm.overrides"
	OverrideSourceOverrides   = "overrides"
	OverrideSourceResolutions = "resolutions"
)

// Overrides is the read-only name → pinned version table of a run.
// A nil *Overrides pins nothing.
type Overrides struct {
	source string
	pins   map[string]string
}

// NewOverrides builds the table from the root manifest. The first non-empty
// source among pnpm.overrides, overrides and resolutions is used as a
// whole; sources are never merged.
//
// Keys are reduced to the package they pin: "**/name" and "parent/name"
// selectors (yarn), "name@range" selectors (npm, pnpm) and "parent>name"
// selectors (pnpm) all pin "name". When several keys reduce to the same
// name, a bare "name" key wins; otherwise the first declared key does.
// npm's "$name" values refer to the root's own declared range for name.
func NewOverrides(root *manifest.Manifest) *Overrides {
	o := &Overrides{pins: map[string]string{}}
	if root == nil {
		return o
	}

	var pins manifest.Pins
	switch {
	case root.PNPM != nil && len(root.PNPM.Overrides) > 0:
		o.source, pins = OverrideSourcePNPM, root.PNPM.Overrides
	case len(root.Overrides) > 0:
		o.source, pins = OverrideSourceOverrides, root.Overrides
	case len(root.Resolutions) > 0:
		o.source, pins = OverrideSourceResolutions, root.Resolutions
	}

	bare := map[string]bool{}
	for _, pin := range pins {
		name, value := pinName(pin.Key), pin.Value
		if _, seen := o.pins[name]; seen && (bare[name] || name != pin.Key) {
			continue
		}
		if ref, ok := strings.CutPrefix(value, "$"); ok {
			if declared, found := rootRange(root, ref); found {
				value = declared
			}
		}
		o.pins[name] = value
		bare[name] = name == pin.Key
	}
	return o
}

// NewOverridesFromMap builds a table from explicit pins.
func NewOverridesFromMap(pins map[string]string) *Overrides {
	return &Overrides{pins: maps.Clone(pins)}
}

// Source returns the manifest field the pins came from, or "" when empty.
func (o *Overrides) Source() string {
	if o == nil {
		return ""
	}
	return o.source
}

// Len returns the number of pins.
func (o *Overrides) Len() int {
	if o == nil {
		return 0
	}
	return len(o.pins)
}

// PinFor returns the version pinned for name.
func (o *Overrides) PinFor(name string) (string, bool) {
	if o == nil {
		return "", false
	}
	v, ok := o.pins[name]
	return v, ok
}

// PinSatisfies reports whether the pin for name satisfies rng. It is false
// when name is unpinned or either string cannot be parsed.
//
// A pin is judged by the lowest version it admits: an exact pin ("2.0.0",
// "=2.0.0") by itself, a range pin ("^2.1.0", ">=2.0.0", "2.x") by its
// floor.
func (o *Overrides) PinSatisfies(name, rng string) bool {
	pin, ok := o.PinFor(name)
	if !ok {
		return false
	}
	want, err := semver.ParseConstraint(rng)
	if err != nil {
		return false
	}
	pinned, err := semver.ParseConstraint(pin)
	if err != nil {
		return false
	}
	floor, err := semver.MinVersion(pinned)
	return err == nil && semver.Check(floor, want)
}

func rootRange(root *manifest.Manifest, name string) (string, bool) {
	for _, sec := range []manifest.Section{
		manifest.SectionDependencies,
		manifest.SectionDevDependencies,
		manifest.SectionPeerDependencies,
	} {
		if rng, ok := root.Section(sec).Get(name); ok {
			return rng, true
		}
	}
	return "", false
}

// pinName extracts the package name an override key applies to.
func pinName(key string) string {
	// pnpm: "parent>name", "parent@1>name"
	if i := lastParentSelector(key); i >= 0 {
		key = key[i+1:]
	}
	// yarn: "**/name", "parent/name", "parent/**/@scope/name"
	if i := strings.LastIndex(key, "/"); i >= 0 {
		head, tail := key[:i], key[i+1:]
		if scope := head[strings.LastIndex(head, "/")+1:]; strings.HasPrefix(scope, "@") {
			key = scope + "/" + tail
		} else {
			key = tail
		}
	}
	// npm/pnpm: "name@range", "@scope/name@range"
	if i := strings.LastIndex(key, "@"); i > 0 {
		key = key[:i]
	}
	return key
}

// lastParentSelector returns the index of the last ">" that separates a
// parent from a child package, ignoring ">" used as a range operator
// ("name@>1", "name@>=1 <2").
func lastParentSelector(key string) int {
	for i := len(key) - 1; i > 0; i-- {
		if key[i] != '>' || i == len(key)-1 {
			continue
		}
		prev, next := key[i-1], key[i+1]
		if strings.IndexByte("@<>| ", prev) >= 0 || strings.IndexByte("= ", next) >= 0 {
			continue
		}
		if next >= '0' && next <= '9' {
			continue
		}
		return i
	}
	return -1
}
