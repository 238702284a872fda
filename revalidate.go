package inkwell

// Revalidator maps successful writes to the cache entries and rendered
// pages whose output could have changed. Invalidation is scoped: a global
// flush on every write would stampede regeneration across all posts.
//
// It is called synchronously from the write actions' success paths, before
// the HTTP response completes, so targeted routes observe fresh data on the
// very next read. Routes not targeted converge within the TTL bound.
type Revalidator struct {
	data  *Cache
	pages *PageCache
}

// NewRevalidator wires the dispatcher to the data and page caches.
func NewRevalidator(data *Cache, pages *PageCache) *Revalidator {
	return &Revalidator{data: data, pages: pages}
}

// PostCreated invalidates the list route only. A new slug cannot already be
// cached, so the per-slug entries are untouched.
func (r *Revalidator) PostCreated() {
	r.data.Invalidate(cacheKeyPublishedPosts)
	r.pages.Invalidate("/blog")
}

// PostUpdated invalidates the list route and the specific post route:
// title or excerpt changes must be visible on both.
func (r *Revalidator) PostUpdated(slug string) {
	r.data.Invalidate(cacheKeyPublishedPosts)
	r.data.Invalidate(postCacheKey(slug))
	r.pages.Invalidate("/blog")
	r.pages.Invalidate("/blog/" + slug)
}

// PostDeleted invalidates the list route and drops the slug's entries. A
// direct fetch of the deleted slug resolves to not-found at the store, not
// by relying on cache eviction.
func (r *Revalidator) PostDeleted(slug string) {
	r.data.Invalidate(cacheKeyPublishedPosts)
	r.data.Invalidate(postCacheKey(slug))
	r.pages.Invalidate("/blog")
	r.pages.Invalidate("/blog/" + slug)
}
