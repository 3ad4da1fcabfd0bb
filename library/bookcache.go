package library

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// bookIdentity is the immutable part of a Book. Copy counts are never cached.
type bookIdentity struct {
	Title  string
	Author string
}

// bookCache keeps titles and authors for status reports. A nil cache reads
// straight through.
type bookCache struct {
	lru *expirable.LRU[int64, bookIdentity]
}

func newBookCache(size int, ttl time.Duration) *bookCache {
	if size < 1 {
		return nil
	}
	return &bookCache{lru: expirable.NewLRU[int64, bookIdentity](size, nil, ttl)}
}

func (c *bookCache) lookup(ctx context.Context, acc CatalogAccessor, id int64) (bookIdentity, error) {
	if c != nil {
		if v, ok := c.lru.Get(id); ok {
			bookCacheHitsTotal.Inc()
			return v, nil
		}
		bookCacheMissesTotal.Inc()
	}

	b, err := acc.GetBook(ctx, id)
	if err != nil {
		return bookIdentity{}, err
	}
	v := bookIdentity{Title: b.Title, Author: b.Author}
	if c != nil {
		c.lru.Add(id, v)
	}
	return v, nil
}
