package audit

import "strings"

// RangeKind classifies a declared range expression.
type RangeKind int

const (
	RangeSemver    RangeKind = iota // plain semver range
	RangeAlias                      // npm:<real-name>@<range>
	RangeWorkspace                  // workspace:<anything>
	RangeVCS                        // git and hosted-git references
	RangeLink                       // link:, file:, portal:
	RangeURL                        // tarball URLs
)

var rangeKindNames = [...]string{
	RangeSemver:    "semver",
	RangeAlias:     "alias",
	RangeWorkspace: "workspace",
	RangeVCS:       "vcs",
	RangeLink:      "link",
	RangeURL:       "url",
}

// String returns the lowercase kind name.
func (k RangeKind) String() string {
	if int(k) < len(rangeKindNames) {
		return rangeKindNames[k]
	}
	return "unknown"
}

// Range is a classified range expression. Only the fields relevant to Kind
// are set.
type Range struct {
	Kind RangeKind
	Raw  string // declared text

	// Check is the semver range to verify. Set for RangeSemver and RangeAlias.
	Check string

	// RealName is the package an alias installs. Set for RangeAlias.
	RealName string
}

// Checkable reports whether the installed version is compared against Check.
func (r Range) Checkable() bool {
	return r.Kind == RangeSemver || r.Kind == RangeAlias
}

// Skipped reports whether the declaration is neither resolved nor checked.
func (r Range) Skipped() bool {
	return r.Kind == RangeVCS || r.Kind == RangeLink || r.Kind == RangeURL
}

var vcsPrefixes = []string{
	"github:", "gitlab:", "bitbucket:", "gist:",
	"git:", "git+ssh:", "git+https:", "git+http:", "git+file:", "git@",
}

var linkPrefixes = []string{"link:", "file:", "portal:"}

// Classify determines the shape of a declared range.
//
// Alias ranges are split on "@" and the second segment is the range, so an
// alias to a scoped package ("npm:@scope/pkg@^1") yields "scope/pkg" as the
// range and fails version parsing. An alias without a range means any
// version.
func Classify(raw string) Range {
	r := Range{Raw: raw}
	spec := strings.TrimSpace(raw)

	switch {
	case hasAnyPrefix(spec, vcsPrefixes) || isHostedShorthand(spec):
		r.Kind = RangeVCS
	case hasAnyPrefix(spec, linkPrefixes):
		r.Kind = RangeLink
	case strings.HasPrefix(spec, "http://") || strings.HasPrefix(spec, "https://"):
		r.Kind = RangeURL
	case strings.HasPrefix(spec, "workspace:"):
		r.Kind = RangeWorkspace
	case strings.HasPrefix(spec, "npm:"):
		r.Kind = RangeAlias
		target := strings.TrimPrefix(spec, "npm:")
		parts := strings.Split(target, "@")
		r.RealName = parts[0]
		r.Check = "*"
		if len(parts) > 1 {
			r.Check = parts[1]
		}
	default:
		r.Kind = RangeSemver
		r.Check = spec
	}
	return r
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// isHostedShorthand matches "user/repo" and "user/repo#ref" references,
// which npm resolves against GitHub.
func isHostedShorthand(s string) bool {
	if s == "" || strings.ContainsAny(s, ": ") || strings.HasPrefix(s, "@") {
		return false
	}
	repo, _, _ := strings.Cut(s, "#")
	user, name, ok := strings.Cut(repo, "/")
	return ok && user != "" && name != "" && !strings.Contains(name, "/")
}
