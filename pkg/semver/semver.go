// Package semver answers whether an installed version satisfies a declared
// npm-style range.
//
// Versions are parsed and ordered by github.com/Masterminds/semver/v3. Ranges
// follow npm's grammar (unions with "||", hyphen ranges, x-ranges, "~" and
// "^") and are desugared into plain comparators the way npm does with
// includePrerelease set:
//
//   - an empty range, "x" and "*" all mean "any version"
//   - pre-release versions are eligible matches and are ordered by full
//     semver precedence: "^1.0.0" accepts "1.1.0-beta.1" but "^1.2.0"
//     rejects "1.2.0-beta.1", which sorts below 1.2.0
//   - upper bounds produced by "^", "~" and x-ranges exclude the
//     pre-releases of the next version: "^1.2.0" rejects "2.0.0-rc.1"
package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// Version is a parsed semantic version.
type Version struct {
	v *mm.Version
}

// Constraint is a parsed range expression.
//
// Examples:
// - ">=1.2.0 <2.0.0"
// - "^1.0.0"
// - "~1.4 || 2.x"
type Constraint struct {
	raw  string
	sets [][]comparator // any set matches when all of its comparators do
}

type comparator struct {
	op string // one of "<", "<=", ">", ">=", "="
	v  *mm.Version
}

func (c comparator) matches(v *mm.Version) bool {
	cmp := v.Compare(c.v)
	switch c.op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	default:
		return cmp == 0
	}
}

// ParseVersion parses an installed version string.
func ParseVersion(raw string) (Version, error) {
	v, err := mm.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return Version{}, fmt.Errorf("semver: parse version %q: %w", raw, err)
	}
	return Version{v: v}, nil
}

// MustParseVersion is like ParseVersion but panics on error.
func MustParseVersion(raw string) Version {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseConstraint parses a declared range.
func ParseConstraint(raw string) (Constraint, error) {
	var sets [][]comparator
	for _, part := range strings.Split(raw, "||") {
		set, err := parseSet(part)
		if err != nil {
			return Constraint{}, fmt.Errorf("semver: parse range %q: %w", raw, err)
		}
		sets = append(sets, set)
	}
	return Constraint{raw: raw, sets: sets}, nil
}

// MustParseConstraint is like ParseConstraint but panics on error.
func MustParseConstraint(raw string) Constraint {
	c, err := ParseConstraint(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the range as it was declared.
func (c Constraint) String() string { return c.raw }

// String returns the canonical version string.
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

// Check reports whether v satisfies c. Pre-release versions are compared by
// full precedence against every comparator.
func Check(v Version, c Constraint) bool {
	if v.v == nil {
		return false
	}
	for _, set := range c.sets {
		ok := true
		for _, cmp := range set {
			if !cmp.matches(v.v) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// Satisfies parses both arguments and reports whether version satisfies rng.
// Malformed input is returned as an error rather than a false result so that
// callers can tell "wrong version" from "unreadable declaration".
func Satisfies(version, rng string) (bool, error) {
	v, err := ParseVersion(version)
	if err != nil {
		return false, err
	}
	c, err := ParseConstraint(rng)
	if err != nil {
		return false, err
	}
	return Check(v, c), nil
}

// MinVersion returns the lowest version c admits. It fails when no version
// satisfies c.
func MinVersion(c Constraint) (Version, error) {
	var best *mm.Version
	for _, set := range c.sets {
		candidate := ver(0, 0, 0, "0")
		for _, cmp := range set {
			var lower *mm.Version
			switch cmp.op {
			case ">=", "=":
				lower = cmp.v
			case ">":
				if cmp.v.Prerelease() != "" {
					lower = ver(int64(cmp.v.Major()), int64(cmp.v.Minor()), int64(cmp.v.Patch()), cmp.v.Prerelease()+".0")
				} else {
					lower = ver(int64(cmp.v.Major()), int64(cmp.v.Minor()), int64(cmp.v.Patch())+1, "")
				}
			}
			if lower != nil && lower.Compare(candidate) > 0 {
				candidate = lower
			}
		}
		if !Check(Version{v: candidate}, Constraint{sets: [][]comparator{set}}) {
			continue
		}
		if best == nil || candidate.Compare(best) < 0 {
			best = candidate
		}
	}
	if best == nil {
		return Version{}, fmt.Errorf("semver: range %q admits no version", c.raw)
	}
	return Version{v: best}, nil
}

// =============================================================================
// Range parsing
// =============================================================================

var (
	hyphenRe = regexp.MustCompile(`^\s*(\S+)\s+-\s+(\S+)\s*$`)
	opRe     = regexp.MustCompile(`(>=|<=|~>|[<>=~^])\s+`)
)

// parseSet parses one "||"-separated alternative into comparators.
func parseSet(s string) ([]comparator, error) {
	if m := hyphenRe.FindStringSubmatch(s); m != nil {
		return hyphen(m[1], m[2])
	}
	// ">= 1.2.3" is the same comparator as ">=1.2.3"
	s = opRe.ReplaceAllString(strings.TrimSpace(s), "$1")

	set := []comparator{}
	for _, field := range strings.Fields(s) {
		cmps, err := desugar(field)
		if err != nil {
			return nil, err
		}
		set = append(set, cmps...)
	}
	return set, nil
}

// partial is a version that may have wildcard components. Missing or
// wildcard components are -1.
type partial struct {
	major, minor, patch int64
	pre                 string
}

func (p partial) xMajor() bool { return p.major < 0 }
func (p partial) xMinor() bool { return p.minor < 0 }
func (p partial) xPatch() bool { return p.patch < 0 }

func parsePartial(s string) (partial, error) {
	s = strings.TrimLeft(strings.TrimSpace(s), "=vV")
	p := partial{major: -1, minor: -1, patch: -1}
	if s == "" {
		return p, nil
	}
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}

	parts := strings.SplitN(s, ".", 3)
	if len(parts) == 3 {
		if i := strings.IndexByte(parts[2], '-'); i >= 0 {
			p.pre = parts[2][i+1:]
			parts[2] = parts[2][:i]
			if p.pre == "" {
				return p, fmt.Errorf("empty prerelease in %q", s)
			}
		}
	}

	fields := []*int64{&p.major, &p.minor, &p.patch}
	wild := false
	for i, part := range parts {
		switch part {
		case "x", "X", "*":
			wild = true
			continue
		}
		if wild {
			return p, fmt.Errorf("version %q has a number after a wildcard", s)
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n < 0 {
			return p, fmt.Errorf("invalid version component %q in %q", part, s)
		}
		*fields[i] = n
	}
	if p.pre != "" && (p.xMinor() || p.xPatch()) {
		return p, fmt.Errorf("prerelease on partial version %q", s)
	}
	return p, nil
}

func ver(major, minor, patch int64, pre string) *mm.Version {
	return mm.New(uint64(major), uint64(minor), uint64(patch), pre, "")
}

// floor is the smallest version matching every version in p's x-range.
func floor(major, minor int64) *mm.Version { return ver(major, minor, 0, "0") }

var (
	anyVersion = []comparator{}
	noVersion  = []comparator{{op: "<", v: ver(0, 0, 0, "0")}}
)

// desugar turns one range token into plain comparators.
func desugar(tok string) ([]comparator, error) {
	op := ""
	for _, candidate := range []string{">=", "<=", "~>", ">", "<", "=", "~", "^"} {
		if rest, ok := strings.CutPrefix(tok, candidate); ok {
			op, tok = candidate, rest
			break
		}
	}
	p, err := parsePartial(tok)
	if err != nil {
		return nil, err
	}

	switch op {
	case "~", "~>":
		return tilde(p), nil
	case "^":
		return caret(p), nil
	case "", "=":
		return xrange(p), nil
	default:
		return bound(op, p), nil
	}
}

// xrange handles bare and "=" versions: "1.2.3", "1.2", "1.x", "*".
func xrange(p partial) []comparator {
	switch {
	case p.xMajor():
		return anyVersion
	case p.xMinor():
		return []comparator{{">=", floor(p.major, 0)}, {"<", floor(p.major+1, 0)}}
	case p.xPatch():
		return []comparator{{">=", floor(p.major, p.minor)}, {"<", floor(p.major, p.minor+1)}}
	default:
		return []comparator{{"=", ver(p.major, p.minor, p.patch, p.pre)}}
	}
}

// bound handles the inequality operators, rounding x-ranges outward.
func bound(op string, p partial) []comparator {
	if p.xMajor() {
		if op == ">" || op == "<" {
			return noVersion
		}
		return anyVersion
	}
	if !p.xMinor() && !p.xPatch() {
		return []comparator{{op, ver(p.major, p.minor, p.patch, p.pre)}}
	}

	major, minor := p.major, max(p.minor, 0)
	switch op {
	case ">":
		// >1 is >=2.0.0, >1.2 is >=1.3.0
		if p.xMinor() {
			major, minor = major+1, 0
		} else {
			minor++
		}
		return []comparator{{">=", floor(major, minor)}}
	case "<=":
		// <=1 is <2.0.0, <=1.2 is <1.3.0
		if p.xMinor() {
			major, minor = major+1, 0
		} else {
			minor++
		}
		return []comparator{{"<", floor(major, minor)}}
	case "<":
		return []comparator{{"<", floor(major, minor)}}
	default: // ">="
		return []comparator{{">=", floor(major, minor)}}
	}
}

// tilde allows patch-level changes when a minor version is given, and
// minor-level changes otherwise.
func tilde(p partial) []comparator {
	switch {
	case p.xMajor():
		return anyVersion
	case p.xMinor():
		return []comparator{{">=", floor(p.major, 0)}, {"<", floor(p.major+1, 0)}}
	case p.xPatch():
		return []comparator{{">=", floor(p.major, p.minor)}, {"<", floor(p.major, p.minor+1)}}
	default:
		return []comparator{{">=", ver(p.major, p.minor, p.patch, p.pre)}, {"<", floor(p.major, p.minor+1)}}
	}
}

// caret allows changes that do not modify the left-most non-zero component.
func caret(p partial) []comparator {
	switch {
	case p.xMajor():
		return anyVersion
	case p.xMinor():
		return []comparator{{">=", floor(p.major, 0)}, {"<", floor(p.major+1, 0)}}
	case p.xPatch():
		if p.major == 0 {
			return []comparator{{">=", floor(0, p.minor)}, {"<", floor(0, p.minor+1)}}
		}
		return []comparator{{">=", floor(p.major, p.minor)}, {"<", floor(p.major+1, 0)}}
	}

	lower := comparator{">=", ver(p.major, p.minor, p.patch, p.pre)}
	switch {
	case p.major > 0:
		return []comparator{lower, {"<", floor(p.major+1, 0)}}
	case p.minor > 0:
		return []comparator{lower, {"<", floor(0, p.minor+1)}}
	default:
		return []comparator{lower, {"<", ver(0, 0, p.patch+1, "0")}}
	}
}

// hyphen handles "a - b": an inclusive range whose partial ends are
// widened to cover every version they name.
func hyphen(from, to string) ([]comparator, error) {
	lo, err := parsePartial(from)
	if err != nil {
		return nil, err
	}
	hi, err := parsePartial(to)
	if err != nil {
		return nil, err
	}

	set := []comparator{}
	switch {
	case lo.xMajor():
	case lo.xMinor():
		set = append(set, comparator{">=", floor(lo.major, 0)})
	case lo.xPatch():
		set = append(set, comparator{">=", floor(lo.major, lo.minor)})
	default:
		set = append(set, comparator{">=", ver(lo.major, lo.minor, lo.patch, lo.pre)})
	}
	switch {
	case hi.xMajor():
	case hi.xMinor():
		set = append(set, comparator{"<", floor(hi.major+1, 0)})
	case hi.xPatch():
		set = append(set, comparator{"<", floor(hi.major, hi.minor+1)})
	default:
		set = append(set, comparator{"<=", ver(hi.major, hi.minor, hi.patch, hi.pre)})
	}
	return set, nil
}
