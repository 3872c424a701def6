package resolve

// Stats counts cache lookups.
type Stats struct {
	Hits   int
	Misses int
}

type key struct {
	name string
	dir  string
}

type entry struct {
	path  string
	found bool
}

// Cache memoizes a Locator per (name, directory) pair.
// It is not safe for concurrent use; each walker owns one.
type Cache struct {
	locator Locator
	entries map[key]entry
	stats   Stats
}

// NewCache wraps locator. A nil locator uses NewNodeModules().
func NewCache(locator Locator) *Cache {
	if locator == nil {
		locator = NewNodeModules()
	}
	return &Cache{
		locator: locator,
		entries: make(map[key]entry),
	}
}

// Resolve returns the manifest path name resolves to from dir.
// Negative results are cached too.
func (c *Cache) Resolve(name, dir string) (string, bool) {
	k := key{name: name, dir: dir}
	if e, ok := c.entries[k]; ok {
		c.stats.Hits++
		return e.path, e.found
	}
	c.stats.Misses++
	path, found := c.locator.Locate(name, dir)
	c.entries[k] = entry{path: path, found: found}
	return path, found
}

// Invalidate drops every memoized result and resets the counters.
func (c *Cache) Invalidate() {
	clear(c.entries)
	c.stats = Stats{}
	if nm, ok := c.locator.(*NodeModules); ok {
		clear(nm.realpaths)
	}
}

// Len returns the number of memoized lookups.
func (c *Cache) Len() int { return len(c.entries) }

// Stats returns hit/miss counters since creation or the last Invalidate.
func (c *Cache) Stats() Stats { return c.stats }
