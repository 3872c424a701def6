// Package audit verifies an installed node_modules tree against the ranges
// its manifests declare.
//
// # Overview
//
// A [Walker] starts at one package.json, resolves every declared dependency
// through a [resolve.Cache], recurses into the installed manifest and
// records a [Diagnostic] whenever the installed version does not satisfy
// the declared range. Each physical manifest is visited once per walk, so
// diamonds are cheap and cycles terminate.
//
// An [Orchestrator] runs one fresh Walker per package of a
// [workspace.Workspace] and aggregates the results into a [RunResult].
//
// # Range Classification
//
// Declared ranges are classified once by [Classify]:
//
//   - VCS references (github:, git+https:, user/repo) are skipped
//   - link:, file: and portal: references are skipped
//   - http(s) tarball URLs are skipped
//   - workspace: references are traversed but never version-checked
//   - npm: aliases are checked against the embedded range
//   - everything else is a semver range
//
// # Policy
//
// A [Policy] carries the read-only state shared by every walker of a run:
// the [Overrides] table from the root manifest, the ignore set, and whether
// override mismatches are reported. It is built once and passed by pointer.
package audit
