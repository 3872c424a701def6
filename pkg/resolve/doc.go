// Package resolve locates installed packages and memoizes the lookups.
//
// A [Locator] answers "which package.json does name resolve to when required
// from dir?" following Node's convention: look in dir/node_modules/name, then
// in every ancestor directory's node_modules, stopping at the filesystem
// root. [NodeModules] implements that search and returns the real
// (symlink-free) path, so packages installed through pnpm's symlinked store
// are identified by their physical location.
//
// A [Cache] wraps any Locator and memoizes results per (name, directory)
// pair for the lifetime of one audit run. [Cache.Invalidate] drops every
// entry, including negative ones, so a re-run after an install sees the new
// tree.
package resolve
