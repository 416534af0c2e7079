// Package cache provides a small generic LRU cache.
//
// vpaint uses it to keep acceleration structures built from mesh geometry,
// which are expensive to build and are reused by every ray-cast generator
// call against the same scene.
//
//	c := cache.New[key, *mesh.BVH](16)
//	bvh, err := c.GetOrCreate(k, build)
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
