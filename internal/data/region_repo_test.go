package data

import (
	"context"
	"sync"
	"testing"
	"time"

	"placefinder-go/internal/biz"
	"placefinder-go/internal/conf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionCountsMergeLegacyColumns(t *testing.T) {
	d, bc := newTestData(t)
	seed(t, d,
		place("1", "a", "region_sido", "서울특별시", "region_sigungu", "강남구"),
		place("2", "b", "region_sido", "서울특별시", "region_sigungu", "마포구"),
		place("3", "c", "sido", "서울특별시", "sigungu", "강남구"),
		place("4", "d", "region_sido", "", "sido", "부산광역시", "sigungu", "해운대구"),
		place("5", "e"),
	)
	repo := NewRegionRepo(d, bc.Data, testLogger)
	ctx := context.Background()

	provinces, err := repo.ProvinceCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []biz.RegionCount{
		{Name: "서울특별시", Count: 3},
		{Name: "부산광역시", Count: 1},
	}, provinces)

	districts, err := repo.DistrictCounts(ctx, "서울특별시")
	require.NoError(t, err)
	assert.Equal(t, []biz.RegionCount{
		{Name: "강남구", Count: 2},
		{Name: "마포구", Count: 1},
	}, districts)
}

func TestRegionCountsCached(t *testing.T) {
	d, bc := newTestData(t)
	seed(t, d, place("1", "a", "region_sido", "서울특별시"))
	bc.Data.Cache.RegionTTL = conf.Duration{Duration: time.Minute}
	repo := NewRegionRepo(d, bc.Data, testLogger)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			counts, err := repo.ProvinceCounts(ctx)
			assert.NoError(t, err)
			assert.Len(t, counts, 1)
		}()
	}
	wg.Wait()

	// 缓存期内新增的数据不可见
	seed(t, d, place("2", "b", "region_sido", "부산광역시"))
	counts, err := repo.ProvinceCounts(ctx)
	require.NoError(t, err)
	assert.Len(t, counts, 1)

	uncached := NewRegionRepo(d, &conf.Data{Cache: &conf.Cache{}}, testLogger)
	counts, err = uncached.ProvinceCounts(ctx)
	require.NoError(t, err)
	assert.Len(t, counts, 2)
}

func TestRegionScript(t *testing.T) {
	s := regionScript("region_sido", "sido")
	assert.Contains(t, s, "doc['region_sido']")
	assert.Contains(t, s, "doc['sido']")
	assert.NotContains(t, regionScript("region_sido", ""), "doc['sido']")
}

func TestStatsCache(t *testing.T) {
	d, bc := newTestData(t)
	ctx := context.Background()
	c := NewStatsCache(d, bc.Data)

	hits, misses := c.Get(ctx, []string{"1", "2"})
	assert.Empty(t, hits)
	assert.Equal(t, []string{"1", "2"}, misses)

	avg := 4.5
	c.Set(ctx, map[string]biz.PlaceStats{"1": {AvgRating: &avg, ReviewCount: 2}}, []string{"2"})
	hits, misses = c.Get(ctx, []string{"1", "2", "3"})
	assert.Equal(t, []string{"3"}, misses)
	require.Contains(t, hits, "1")
	assert.InDelta(t, 4.5, *hits["1"].AvgRating, 1e-9)
	require.Contains(t, hits, "2")
	assert.Nil(t, hits["2"])

	off := NewStatsCache(d, &conf.Data{Cache: &conf.Cache{}})
	off.Set(ctx, map[string]biz.PlaceStats{"9": {ReviewCount: 1}}, nil)
	_, misses = off.Get(ctx, []string{"9"})
	assert.Equal(t, []string{"9"}, misses)
}
