// Package cache holds the rendered comment pages and keeps them fresh across instances.
package cache

import (
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// item 包装缓存数据和过期时间
type item struct {
	data      any
	expiresAt time.Time
}

// Local is a size-bounded LRU whose entries also expire after their TTL.
type Local struct {
	lru *lru.Cache[string, item]
	now func() time.Time
}

func NewLocal(size int) (*Local, error) {
	if size <= 0 {
		size = 500
	}
	l, err := lru.New[string, item](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &Local{lru: l, now: time.Now}, nil
}

func (c *Local) Set(key string, data any, ttl time.Duration) {
	c.lru.Add(key, item{
		data:      data,
		expiresAt: c.now().Add(ttl),
	})
}

// Get 获取缓存，若不存在或已过期则返回 false
func (c *Local) Get(key string) (any, bool) {
	val, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}

	if c.now().After(val.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}

	return val.data, true
}

func (c *Local) Delete(key string) {
	c.lru.Remove(key)
}

// DeletePrefix drops every key starting with prefix and returns how many went.
func (c *Local) DeletePrefix(prefix string) int {
	removed := 0
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) && c.lru.Remove(key) {
			removed++
		}
	}
	return removed
}

func (c *Local) Len() int {
	return c.lru.Len()
}
