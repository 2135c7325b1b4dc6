// Package cache provides a small generic LRU cache with a soft limit.
//
//	c := cache.New[string, gl.Uniform](64)
//	loc := c.GetOrCreate("u_color", func() gl.Uniform {
//	    return ctx.GetUniformLocation(prog, "u_color")
//	})
//
// When an insert pushes the cache over its limit, the least recently used
// quarter of the entries is evicted in one pass.
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
