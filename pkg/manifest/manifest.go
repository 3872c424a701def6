package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
)

// FileName is the manifest file name inside every package directory.
const FileName = "package.json"

// Section names one of the dependency maps of a manifest.
type Section string

const (
	SectionDependencies     Section = "dependencies"
	SectionDevDependencies  Section = "devDependencies"
	SectionPeerDependencies Section = "peerDependencies"
)

// Dependency is one declared entry of a section.
type Dependency struct {
	Name  string
	Range string
}

// Dependencies is a dependency section in declaration order.
type Dependencies []Dependency

// Get returns the range declared for name.
func (d Dependencies) Get(name string) (string, bool) {
	for _, dep := range d {
		if dep.Name == name {
			return dep.Range, true
		}
	}
	return "", false
}

// UnmarshalJSON decodes a JSON object while keeping key order.
func (d *Dependencies) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("dependencies: expected object, got %v", tok)
	}

	var out Dependencies
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		rng, ok := value.(string)
		if !ok {
			return fmt.Errorf("dependencies: range for %q must be a string, got %T", name, value)
		}
		out = append(out, Dependency{Name: name, Range: rng})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*d = out
	return nil
}

// PeerMeta is an entry of peerDependenciesMeta.
type PeerMeta struct {
	Optional bool `json:"optional"`
}

// Pin is one entry of an override map: a selector key and the version it
// forces.
type Pin struct {
	Key   string
	Value string
}

// Pins is an override map in declaration order. Values that are not plain
// strings (nested npm override objects without a "." entry) are dropped,
// since they do not pin the named package itself.
type Pins []Pin

// Get returns the value declared for key.
func (p Pins) Get(key string) (string, bool) {
	for _, pin := range p {
		if pin.Key == key {
			return pin.Value, true
		}
	}
	return "", false
}

// UnmarshalJSON accepts override maps of mixed shape while keeping key order.
func (p *Pins) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("overrides: expected object, got %v", tok)
	}

	out := Pins{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if s, ok := pinValue(value); ok {
			out = append(out, Pin{Key: key, Value: s})
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*p = out
	return nil
}

func pinValue(value json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s, true
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(value, &nested); err != nil {
		return "", false
	}
	self, ok := nested["."]
	if !ok {
		return "", false
	}
	if err := json.Unmarshal(self, &s); err != nil {
		return "", false
	}
	return s, true
}

// PNPMSettings holds the "pnpm" field of a root manifest.
type PNPMSettings struct {
	Overrides Pins `json:"overrides"`
}

// Workspaces holds member globs from either the array form or the
// {"packages": [...]} form used by yarn.
type Workspaces []string

// UnmarshalJSON accepts both workspace shapes.
func (w *Workspaces) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*w = list
		return nil
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("workspaces: expected array or object with packages: %w", err)
	}
	*w = obj.Packages
	return nil
}

// Manifest is a decoded package.json.
type Manifest struct {
	Name                 string              `json:"name"`
	Version              string              `json:"version"`
	Dependencies         Dependencies        `json:"dependencies"`
	DevDependencies      Dependencies        `json:"devDependencies"`
	PeerDependencies     Dependencies        `json:"peerDependencies"`
	PeerDependenciesMeta map[string]PeerMeta `json:"peerDependenciesMeta"`
	Overrides            Pins                `json:"overrides"`
	Resolutions          Pins                `json:"resolutions"`
	PNPM                 *PNPMSettings       `json:"pnpm"`
	Workspaces           Workspaces          `json:"workspaces"`
	PackageManager       string              `json:"packageManager"`

	// Path is the absolute location the manifest was read from.
	Path string `json:"-"`
}

// Dir returns the package directory.
func (m *Manifest) Dir() string { return filepath.Dir(m.Path) }

// Section returns the entries of one dependency section.
func (m *Manifest) Section(s Section) Dependencies {
	switch s {
	case SectionDependencies:
		return m.Dependencies
	case SectionDevDependencies:
		return m.DevDependencies
	case SectionPeerDependencies:
		return m.PeerDependencies
	default:
		return nil
	}
}

// PeerOptional reports whether peerDependenciesMeta marks name optional.
func (m *Manifest) PeerOptional(name string) bool {
	return m.PeerDependenciesMeta[name].Optional
}

// DisplayName returns the manifest name, or a placeholder when it has none.
func (m *Manifest) DisplayName() string {
	if m.Name == "" {
		return "<name not set>"
	}
	return m.Name
}
