package audit

import (
	"fmt"
	"slices"

	"github.com/NullVoxPopuli/dep-hellp/pkg/manifest"
)

// Problem is the outcome kind of a diagnostic.
type Problem int

const (
	// Missing: no installation was found for a declared dependency.
	Missing Problem = iota + 1
	// VersionMismatch: the installed version does not satisfy the range.
	VersionMismatch
	// OverrideMismatch: the name is pinned but the pin does not satisfy
	// the range either.
	OverrideMismatch
	// InvalidRange: the declared range or the installed version could
	// not be parsed.
	InvalidRange
)

var problemNames = map[Problem]string{
	Missing:          "missing",
	VersionMismatch:  "version-mismatch",
	OverrideMismatch: "override-mismatch",
	InvalidRange:     "invalid-range",
}

func (p Problem) String() string {
	if name, ok := problemNames[p]; ok {
		return name
	}
	return fmt.Sprintf("problem(%d)", int(p))
}

// MarshalText encodes the problem as its name.
func (p Problem) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a problem name.
func (p *Problem) UnmarshalText(text []byte) error {
	for k, name := range problemNames {
		if name == string(text) {
			*p = k
			return nil
		}
	}
	return fmt.Errorf("unknown problem %q", text)
}

// Source identifies the manifest that declared a dependency.
type Source struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Path    string `json:"path"` // package directory
}

// Request is the declaration that was not satisfied.
type Request struct {
	Name    string           `json:"name"`
	Range   string           `json:"range"` // range that was checked
	Raw     string           `json:"raw,omitempty"`
	Section manifest.Section `json:"section"`
}

// Found describes the installation a name resolved to.
type Found struct {
	Version string `json:"version"`
	Path    string `json:"path"` // package directory
}

// Diagnostic is one unsatisfied declaration.
type Diagnostic struct {
	Source    Source  `json:"source"`
	Requested Request `json:"requested"`
	Problem   Problem `json:"problem"`
	Found     *Found  `json:"found,omitempty"`
	Pin       string  `json:"pin,omitempty"`    // OverrideMismatch only
	Reason    string  `json:"reason,omitempty"` // InvalidRange only
}

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	src := d.Source.Name
	if d.Source.Version != "" {
		src += "@" + d.Source.Version
	}
	req := fmt.Sprintf("%s@%s (%s)", d.Requested.Name, d.Requested.Range, d.Requested.Section)
	switch d.Problem {
	case Missing:
		return fmt.Sprintf("%s: %s is not installed", src, req)
	case VersionMismatch:
		return fmt.Sprintf("%s: %s found %s", src, req, d.Found.Version)
	case OverrideMismatch:
		return fmt.Sprintf("%s: %s found %s, override pins %s", src, req, d.Found.Version, d.Pin)
	case InvalidRange:
		return fmt.Sprintf("%s: %s cannot be checked: %s", src, req, d.Reason)
	default:
		return fmt.Sprintf("%s: %s %s", src, req, d.Problem)
	}
}

// Collector accumulates diagnostics in discovery order.
type Collector struct {
	diags []Diagnostic
}

// Add appends d.
func (c *Collector) Add(d Diagnostic) { c.diags = append(c.diags, d) }

// Len returns the number of collected diagnostics.
func (c *Collector) Len() int { return len(c.diags) }

// Diagnostics returns a copy of the collected diagnostics.
func (c *Collector) Diagnostics() []Diagnostic { return slices.Clone(c.diags) }

// Reset drops all diagnostics.
func (c *Collector) Reset() { c.diags = nil }

// Count returns how many diagnostics have problem p.
func Count(diags []Diagnostic, p Problem) int {
	n := 0
	for _, d := range diags {
		if d.Problem == p {
			n++
		}
	}
	return n
}
