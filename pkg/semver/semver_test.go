package semver

import "testing"

func TestSatisfies(t *testing.T) {
	tests := []struct {
		version string
		rng     string
		want    bool
	}{
		{"1.5.0", "^1.2.0", true},
		{"2.0.0", "^1.2.0", false},
		{"1.5.0-beta.1", "^1.2.0", true},
		{"2.0.0-rc.1", "^1.2.0", false},
		{"1.2.3", "1.2.3", true},
		{"1.2.4", "~1.2.3", true},
		{"1.3.0", "~1.2.3", false},
		{"3.1.0", "^1.0.0 || ^3.0.0", true},
		{"1.9.9", ">=1.0.0 <2.0.0", true},
		{"1.9.9", ">= 1.0.0 < 2.0.0", true},
		{"0.0.1", "*", true},
		{"7.0.0", "", true},
		{"4.4.4", "x", true},
		{"1.2.0", "1.x", true},
		{"2.1.0", "1.x", false},

		// pre-releases are ordered by full precedence
		{"1.2.0-beta.1", "^1.2.0", false},
		{"1.2.3-rc.1", "1.2.3", false},
		{"2.0.0-rc.1", ">=1.0.0 <2.0.0", true},
		{"1.2.3-rc.1", "1.2.3-rc.1", true},
		{"1.3.0-alpha", "~1.2.3", false},
		{"1.2.9-alpha", "~1.2.3", true},
		{"2.0.0-0", "1.x", false},
		{"1.0.0-0", "1.x", true},
		{"1.0.0-beta", "^1", true},

		// caret below 1.0.0
		{"0.2.5", "^0.2.3", true},
		{"0.3.0", "^0.2.3", false},
		{"0.0.3", "^0.0.3", true},
		{"0.0.4", "^0.0.3", false},

		// partial bounds and hyphen ranges
		{"2.0.0", ">1", true},
		{"1.9.9", ">1", false},
		{"1.2.9", "<=1.2", true},
		{"1.3.0", "<=1.2", false},
		{"1.1.9", "<1.2", true},
		{"1.5.0", "1.2.3 - 2", true},
		{"2.9.0", "1.2.3 - 2", true},
		{"3.0.0-rc.1", "1.2.3 - 2", false},
		{"2.3.4", "1.2.3 - 2.3.4", true},
		{"2.3.5", "1.2.3 - 2.3.4", false},
		{"1.4.0", "~> 1.4", true},
		{"1.2.3", "v1.2.3", true},
		{"1.2.3", "=1.2.3", true},
	}

	for _, tt := range tests {
		t.Run(tt.version+" "+tt.rng, func(t *testing.T) {
			got, err := Satisfies(tt.version, tt.rng)
			if err != nil {
				t.Fatalf("Satisfies(%q, %q) error: %v", tt.version, tt.rng, err)
			}
			if got != tt.want {
				t.Errorf("Satisfies(%q, %q) = %v, want %v", tt.version, tt.rng, got, tt.want)
			}
		})
	}
}

func TestSatisfiesMalformed(t *testing.T) {
	tests := []struct {
		name    string
		version string
		rng     string
	}{
		{"bad version", "not-a-version", "^1.0.0"},
		{"empty version", "", "^1.0.0"},
		{"bad range", "1.0.0", "scope/pkg"},
		{"dist tag", "1.0.0", "latest"},
		{"number after wildcard", "1.0.0", "1.x.3"},
		{"bad union member", "1.0.0", "^1.0.0 || next"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Satisfies(tt.version, tt.rng); err == nil {
				t.Errorf("Satisfies(%q, %q) error = nil, want error", tt.version, tt.rng)
			}
		})
	}
}

func TestCheckZeroValues(t *testing.T) {
	if Check(Version{}, MustParseConstraint("*")) {
		t.Error("zero Version should never satisfy")
	}
	if Check(MustParseVersion("1.0.0"), Constraint{}) {
		t.Error("zero Constraint should never be satisfied")
	}
}

func TestConstraintString(t *testing.T) {
	c := MustParseConstraint(">= 1.0.0")
	if c.String() != ">= 1.0.0" {
		t.Errorf("String() = %q, want declared form", c.String())
	}
}

func TestMinVersion(t *testing.T) {
	tests := []struct {
		rng  string
		want string
	}{
		{">=2.0.0", "2.0.0"},
		{"^1.2.3", "1.2.3"},
		{"~2.1", "2.1.0-0"},
		{">1.2.3", "1.2.4"},
		{">1.0.0-beta", "1.0.0-beta.0"},
		{"<3.0.0", "0.0.0-0"},
		{"^2.0.0 || ^1.5.0", "1.5.0"},
		{"1.2.3 - 2", "1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.rng, func(t *testing.T) {
			got, err := MinVersion(MustParseConstraint(tt.rng))
			if err != nil {
				t.Fatalf("MinVersion(%q) error: %v", tt.rng, err)
			}
			if got.String() != tt.want {
				t.Errorf("MinVersion(%q) = %s, want %s", tt.rng, got, tt.want)
			}
		})
	}

	if _, err := MinVersion(MustParseConstraint(">2.0.0 <1.0.0")); err == nil {
		t.Error("MinVersion of an empty range should fail")
	}
}
