// Package render repaints the composition: base image, visible layers in
// z-order, and selection chrome for the active layer.
package render

import (
	"image"
	"image/draw"
	"sync"
)

// Resolver turns a template source reference into decoded pixel data.
// The template library provides the production implementation.
type Resolver interface {
	Resolve(source string) (image.Image, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(source string) (image.Image, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(source string) (image.Image, error) {
	return f(source)
}

type cacheEntry struct {
	img *image.RGBA
	err error
}

// Cache memoizes decoded template images keyed by source reference, so
// dragging does not re-decode on every frame. Entries are invalidated
// only when a source reference changes.
type Cache struct {
	resolver Resolver

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache creates a decoded-image cache backed by the given resolver.
func NewCache(resolver Resolver) *Cache {
	return &Cache{
		resolver: resolver,
		entries:  make(map[string]cacheEntry),
	}
}

// Get returns the decoded image for a source reference, resolving and
// converting it to RGBA on first use. Failures are cached too; a source
// that failed to decode stays failed until invalidated.
func (c *Cache) Get(source string) (*image.RGBA, error) {
	c.mu.Lock()
	e, ok := c.entries[source]
	c.mu.Unlock()
	if ok {
		return e.img, e.err
	}

	img, err := c.resolver.Resolve(source)
	var rgba *image.RGBA
	if err == nil {
		rgba = toRGBA(img)
	}

	c.mu.Lock()
	c.entries[source] = cacheEntry{img: rgba, err: err}
	c.mu.Unlock()
	return rgba, err
}

// Invalidate drops the cached entry for a source reference.
func (c *Cache) Invalidate(source string) {
	c.mu.Lock()
	delete(c.entries, source)
	c.mu.Unlock()
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
