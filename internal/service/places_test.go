package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"placefinder-go/internal/biz"
	"placefinder-go/internal/conf"
	"placefinder-go/internal/data"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = log.NewStdLogger(io.Discard)

func newTestService(t *testing.T) (*PlacesService, *data.Data) {
	t.Helper()
	bc := conf.Default()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	bc.Data.Database.Source = fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	bc.Data.Database.AutoMigrate = true
	d, cleanup, err := data.NewData(bc.Data, bc.Places, testLogger)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	p := bc.Places
	store := data.NewRowStore(d, testLogger)
	places := biz.NewPlaceUsecase(p, store,
		biz.NewStrategyBuilder(p),
		biz.NewOrchestrator(store, testLogger),
		biz.NewStatsAggregator(store, data.NewStatsCache(d, bc.Data), p, testLogger),
		biz.NewNormalizer(p),
		testLogger,
	)
	regions := biz.NewRegionUsecase(data.NewRegionRepo(d, bc.Data, testLogger), testLogger)
	return NewPlacesService(testLogger, places, regions, d), d
}

func seedKorean(t *testing.T, d *data.Data, n int) {
	t.Helper()
	rows := make([]biz.Row, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, biz.Row{
			"manage_no":     fmt.Sprintf("K%03d", i),
			"place_name":    fmt.Sprintf("한식당%03d", i),
			"food_category": "한식",
			"region_sido":   "서울특별시",
			"address_road":  fmt.Sprintf("서울 중구 %d", i),
		})
	}
	_, err := data.NewImporter(d, testLogger).WritePlaces(context.Background(), rows)
	require.NoError(t, err)
}

func TestListPlacesPaging(t *testing.T) {
	svc, d := newTestService(t)
	seedKorean(t, d, 45)
	ctx := context.Background()

	first, err := svc.ListPlaces(ctx, &ListPlacesRequest{Food: "한식", Page: "abc"})
	require.NoError(t, err)
	assert.Len(t, first.Items, 20)
	require.NotNil(t, first.TotalCount)
	assert.EqualValues(t, 45, *first.TotalCount)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 3, first.TotalPages)
	assert.Equal(t, []int{1, 2, 3}, first.Pages)
	assert.True(t, first.HasNext)
	assert.False(t, first.HasMore)
	assert.Equal(t, "/v1/places?food=%ED%95%9C%EC%8B%9D&page=2&page_size=20", first.NextURL)
	assert.Empty(t, first.PrevURL)

	last, err := svc.ListPlaces(ctx, &ListPlacesRequest{Food: "한식", Page: "3"})
	require.NoError(t, err)
	assert.Len(t, last.Items, 5)
	assert.False(t, last.HasNext)
	assert.False(t, last.HasMore)
	assert.Empty(t, last.NextURL)
	assert.Contains(t, last.PrevURL, "page=2")

	seen := map[string]bool{}
	for page := 1; page <= 3; page++ {
		r, err := svc.ListPlaces(ctx, &ListPlacesRequest{Food: "한식", Page: fmt.Sprint(page)})
		require.NoError(t, err)
		for _, it := range r.Items {
			assert.False(t, seen[it.ID], it.ID)
			seen[it.ID] = true
		}
	}
	assert.Len(t, seen, 45)
}

func TestListPlacesPageSizeCapped(t *testing.T) {
	svc, d := newTestService(t)
	seedKorean(t, d, 3)
	r, err := svc.ListPlaces(context.Background(), &ListPlacesRequest{PageSize: "100000"})
	require.NoError(t, err)
	assert.Equal(t, 100, r.PageSize)
	assert.Len(t, r.Items, 3)
	assert.Equal(t, "recent", r.Sort)
}

func TestGetPlace(t *testing.T) {
	svc, d := newTestService(t)
	seedKorean(t, d, 2)
	ctx := context.Background()

	r, err := svc.GetPlace(ctx, &GetPlaceRequest{ID: "K002"})
	require.NoError(t, err)
	assert.Equal(t, "한식당002", r.Place.Name)
	assert.Equal(t, "서울 중구 2", r.Place.Area)

	_, err = svc.GetPlace(ctx, &GetPlaceRequest{ID: "nope"})
	assert.Equal(t, 404, errors.Code(err))
	assert.Equal(t, biz.PlaceNotFound, errors.Reason(err))

	_, err = svc.GetPlace(ctx, &GetPlaceRequest{ID: "  "})
	assert.Equal(t, 400, errors.Code(err))
}

func TestListReviewsWithVotes(t *testing.T) {
	svc, d := newTestService(t)
	seedKorean(t, d, 2)
	ctx := context.Background()
	im := data.NewImporter(d, testLogger)
	day := func(n int) time.Time { return time.Date(2024, 1, n, 12, 0, 0, 0, time.UTC) }
	_, err := im.WriteReviews(ctx, []data.Review{
		{PlaceID: "K001", Nickname: "민수", Rating: 5, Content: "국물이 진해요", CreatedAt: day(1)},
		{PlaceID: "K001", Nickname: "지연", Rating: 3, CreatedAt: day(3)},
		{PlaceID: "K002", Nickname: "철수", Rating: 4, CreatedAt: day(2)},
	})
	require.NoError(t, err)
	_, err = im.WriteVotes(ctx, []data.Vote{
		{ReviewID: 1, Voter: "a", Type: biz.VoteUp},
		{ReviewID: 1, Voter: "b", Type: biz.VoteUp},
		{ReviewID: 1, Voter: "c", Type: biz.VoteDown},
		// 同一投票人改投，覆盖之前的票
		{ReviewID: 1, Voter: "c", Type: biz.VoteUp},
	})
	require.NoError(t, err)

	r, err := svc.ListReviews(ctx, &ListReviewsRequest{ID: "K001"})
	require.NoError(t, err)
	assert.Equal(t, "K001", r.PlaceID)
	require.Len(t, r.Reviews, 2)
	assert.Equal(t, "지연", r.Reviews[0].Nickname)
	assert.Empty(t, r.Reviews[0].Content)
	assert.Zero(t, r.Reviews[0].UpCount)
	assert.Equal(t, "민수", r.Reviews[1].Nickname)
	assert.Equal(t, 5.0, r.Reviews[1].Rating)
	assert.EqualValues(t, 3, r.Reviews[1].UpCount)
	assert.Zero(t, r.Reviews[1].DownCount)
	require.NotNil(t, r.Reviews[1].CreatedAt)
	assert.True(t, r.Reviews[1].CreatedAt.Equal(day(1)))

	r, err = svc.ListReviews(ctx, &ListReviewsRequest{ID: "nope"})
	require.NoError(t, err)
	assert.Empty(t, r.Reviews)

	_, err = svc.ListReviews(ctx, &ListReviewsRequest{ID: " "})
	assert.Equal(t, 400, errors.Code(err))
}

func TestSearchPlaces(t *testing.T) {
	svc, d := newTestService(t)
	seedKorean(t, d, 12)
	ctx := context.Background()

	r, err := svc.SearchPlaces(ctx, &SearchPlacesRequest{Q: "한식당01", Limit: "2"})
	require.NoError(t, err)
	require.Len(t, r.Items, 2)
	assert.Equal(t, "한식당010", r.Items[0].Name)
	assert.Equal(t, "한식당011", r.Items[1].Name)

	r, err = svc.SearchPlaces(ctx, &SearchPlacesRequest{Q: "중구 1", Limit: "x"})
	require.NoError(t, err)
	// 地址包含 "중구 1" 的店铺：1, 10, 11, 12
	assert.Len(t, r.Items, 4)

	r, err = svc.SearchPlaces(ctx, &SearchPlacesRequest{Q: "  "})
	require.NoError(t, err)
	assert.Empty(t, r.Items)
}

func TestListRegions(t *testing.T) {
	svc, d := newTestService(t)
	seedKorean(t, d, 4)
	ctx := context.Background()

	r, err := svc.ListRegions(ctx, &ListRegionsRequest{})
	require.NoError(t, err)
	assert.Equal(t, []biz.RegionCount{{Name: "서울특별시", Count: 4}}, r.Regions)

	r, err = svc.ListRegions(ctx, &ListRegionsRequest{Province: "부산광역시"})
	require.NoError(t, err)
	assert.Equal(t, "부산광역시", r.Province)
	assert.Empty(t, r.Regions)
}

func TestStatus(t *testing.T) {
	svc, _ := newTestService(t)
	r, err := svc.Status(context.Background(), &StatusRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", r.BackendStatus)
	assert.Equal(t, "sqlite3", r.Backend)
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		reason string
	}{
		{"not found passes through", biz.ErrPlaceNotFound, 404, biz.PlaceNotFound},
		{"stats", &biz.StatsError{Err: &biz.StoreError{Code: biz.CodeServerError}}, 500, biz.StatsUnavailable},
		{"transient store", &biz.StoreError{Code: biz.CodeStatementTimeout}, 503, biz.BackendUnavailable},
		{"wrapped transient", fmt.Errorf("fetch: %w", &biz.StoreError{Code: biz.CodeServerError}), 503, biz.BackendUnavailable},
		{"permanent store", &biz.StoreError{Code: biz.CodePermanent}, 500, biz.BackendError},
		{"unknown", io.ErrUnexpectedEOF, 500, biz.BackendError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateError(tt.err)
			assert.Equal(t, tt.code, errors.Code(err))
			assert.Equal(t, tt.reason, errors.Reason(err))
		})
	}
	assert.NoError(t, translateError(nil))
}

func TestBuildPageURL(t *testing.T) {
	u := buildPageURL(&ListPlacesRequest{Q: " 국밥 ", Situation: "solo", Sort: "name_asc", Page: "9"}, 2, 10)
	assert.Equal(t, "/v1/places?page=2&page_size=10&q=%EA%B5%AD%EB%B0%A5&situation=solo&sort=name_asc", u)
}
