// Package manifest reads package.json files into the structured records the
// audit walks.
//
// Only the fields the audit needs are decoded: identity (name, version), the
// three dependency sections, peerDependenciesMeta, the override sources
// (pnpm.overrides, overrides, resolutions), workspaces and packageManager.
//
// Dependency sections keep the order in which they appear in the file, so
// diagnostics come out in the same order a reader sees in package.json.
//
//	m, err := manifest.Read("package.json")
//	if err != nil {
//	    return err
//	}
//	for _, d := range m.Section(manifest.SectionDependencies) {
//	    fmt.Println(d.Name, d.Range)
//	}
package manifest
