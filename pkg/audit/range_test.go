package audit

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		raw      string
		kind     RangeKind
		check    string
		realName string
	}{
		{"^1.2.0", RangeSemver, "^1.2.0", ""},
		{"", RangeSemver, "", ""},
		{"latest", RangeSemver, "latest", ""},
		{">=1.0.0 <2", RangeSemver, ">=1.0.0 <2", ""},
		{"github:user/repo", RangeVCS, "", ""},
		{"git+https://github.com/user/repo.git", RangeVCS, "", ""},
		{"git@github.com:user/repo.git", RangeVCS, "", ""},
		{"user/repo", RangeVCS, "", ""},
		{"user/repo#v1.0.0", RangeVCS, "", ""},
		{"link:../lib", RangeLink, "", ""},
		{"file:../lib", RangeLink, "", ""},
		{"portal:../lib", RangeLink, "", ""},
		{"https://example.com/pkg.tgz", RangeURL, "", ""},
		{"workspace:*", RangeWorkspace, "", ""},
		{"workspace:^1.0.0", RangeWorkspace, "", ""},
		{"npm:real-pkg@^2.0.0", RangeAlias, "^2.0.0", "real-pkg"},
		{"npm:real-pkg", RangeAlias, "*", "real-pkg"},
		// scoped alias targets are split on the first "@"
		{"npm:@scope/pkg@^1.0.0", RangeAlias, "scope/pkg", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r := Classify(tt.raw)
			if r.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", r.Kind, tt.kind)
			}
			if r.Check != tt.check {
				t.Errorf("Check = %q, want %q", r.Check, tt.check)
			}
			if r.RealName != tt.realName {
				t.Errorf("RealName = %q, want %q", r.RealName, tt.realName)
			}
			if r.Raw != tt.raw {
				t.Errorf("Raw = %q, want %q", r.Raw, tt.raw)
			}
		})
	}
}

func TestRangeFlags(t *testing.T) {
	tests := []struct {
		kind      RangeKind
		checkable bool
		skipped   bool
	}{
		{RangeSemver, true, false},
		{RangeAlias, true, false},
		{RangeWorkspace, false, false},
		{RangeVCS, false, true},
		{RangeLink, false, true},
		{RangeURL, false, true},
	}
	for _, tt := range tests {
		r := Range{Kind: tt.kind}
		if r.Checkable() != tt.checkable || r.Skipped() != tt.skipped {
			t.Errorf("%v: Checkable=%v Skipped=%v, want %v %v", tt.kind, r.Checkable(), r.Skipped(), tt.checkable, tt.skipped)
		}
	}
	if got := RangeKind(99).String(); got != "unknown" {
		t.Errorf("String() = %q, want unknown", got)
	}
}
