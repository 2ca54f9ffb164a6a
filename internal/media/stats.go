package media

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/centrio/centrio-backend/pkg/enums"
	pkgerrors "github.com/centrio/centrio-backend/pkg/errors"
)

const (
	globalStatsKey       = "global"
	defaultStatsCacheLen = 256
)

// CategoryStats is the count and byte total for one category.
type CategoryStats struct {
	Count     int64 `json:"count"`
	SizeBytes int64 `json:"size_bytes"`
}

// Stats aggregates active assets. ByCategory always holds all five categories.
type Stats struct {
	TotalCount     int64                                 `json:"total_count"`
	TotalSizeBytes int64                                 `json:"total_size_bytes"`
	ByCategory     map[enums.MediaCategory]CategoryStats `json:"by_category"`
}

func newStats() *Stats {
	out := &Stats{ByCategory: make(map[enums.MediaCategory]CategoryStats, len(enums.MediaCategories()))}
	for _, category := range enums.MediaCategories() {
		out.ByCategory[category] = CategoryStats{}
	}
	return out
}

func (st *Stats) clone() *Stats {
	out := &Stats{
		TotalCount:     st.TotalCount,
		TotalSizeBytes: st.TotalSizeBytes,
		ByCategory:     make(map[enums.MediaCategory]CategoryStats, len(st.ByCategory)),
	}
	for k, v := range st.ByCategory {
		out.ByCategory[k] = v
	}
	return out
}

func (s *service) Stats(ctx context.Context, scope Scope) (*Stats, error) {
	key := statsKey(scope)
	if cached, ok := s.stats.get(key); ok {
		return cached, nil
	}

	rows, err := s.repo.Aggregate(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate media stats")
	}

	out := newStats()
	for _, row := range rows {
		category := row.Category
		if !category.IsValid() {
			category = enums.MediaCategoryOther
		}
		current := out.ByCategory[category]
		current.Count += row.Count
		current.SizeBytes += row.SizeBytes
		out.ByCategory[category] = current
		out.TotalCount += row.Count
		out.TotalSizeBytes += row.SizeBytes
	}

	s.stats.add(key, out)
	return out.clone(), nil
}

func statsKey(scope Scope) string {
	if scope.TenantID == nil {
		return globalStatsKey
	}
	if scope.WithGlobal {
		return scope.TenantID.String() + "+global"
	}
	return scope.TenantID.String()
}

// statsCache holds recent aggregates for a short TTL. A zero TTL disables it.
type statsCache struct {
	lru *expirable.LRU[string, *Stats]
}

func newStatsCache(size int, ttl time.Duration) *statsCache {
	if ttl <= 0 {
		return nil
	}
	if size <= 0 {
		size = defaultStatsCacheLen
	}
	return &statsCache{lru: expirable.NewLRU[string, *Stats](size, nil, ttl)}
}

func (c *statsCache) get(key string) (*Stats, bool) {
	if c == nil {
		return nil, false
	}
	st, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return st.clone(), true
}

func (c *statsCache) add(key string, st *Stats) {
	if c == nil {
		return
	}
	c.lru.Add(key, st.clone())
}

func (c *statsCache) purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}
