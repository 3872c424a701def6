// Package pkg provides the libraries behind dephellp, an auditor for
// installed node_modules trees.
//
// # Overview
//
// dephellp checks that every dependency declared by a package.json is
// installed at a version satisfying its declared range, following the same
// node_modules lookup Node uses. The pkg directory is organized by concern:
//
//  1. [manifest], [workspace] - reading package.json files and discovering
//     the packages of a repository
//  2. [semver], [resolve] - range satisfaction and node_modules lookup
//  3. [audit] - the graph walker, override handling, diagnostics and the
//     per-workspace orchestrator
//  4. [graph], [render/nodelink] - the installed graph and its DOT/SVG export
//  5. [config], [shell], [errors], [observability], [buildinfo] - supporting
//     infrastructure
//
// # Architecture
//
//	workspace.Find
//	      ↓
//	audit.Orchestrator (one Walker per package)
//	      ↓
//	audit.Walker ── resolve.Cache ── semver.Satisfies
//	      ↓
//	[]audit.Diagnostic + graph.Graph
//
// # Quick Start
//
//	ws, _ := workspace.Find(".")
//	orch := audit.NewOrchestrator(ws, nil, audit.Options{})
//	res, err := orch.Run(ctx)
//	if err != nil {
//	    // a manifest could not be read
//	}
//	for _, p := range res.Packages {
//	    for _, d := range p.Diagnostics {
//	        fmt.Println(d)
//	    }
//	}
package pkg
