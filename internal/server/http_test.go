package server

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"placefinder-go/internal/biz"
	"placefinder-go/internal/conf"
	"placefinder-go/internal/data"
	"placefinder-go/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = log.NewStdLogger(io.Discard)

func newTestServer(t *testing.T, rateLimit float64) *httptest.Server {
	t.Helper()
	ts, _ := newTestServerData(t, rateLimit)
	return ts
}

func newTestServerData(t *testing.T, rateLimit float64) (*httptest.Server, *data.Data) {
	t.Helper()
	bc := conf.Default()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	bc.Data.Database.Source = fmt.Sprintf("file:http_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	bc.Data.Database.AutoMigrate = true
	bc.Server.Http.RateLimit = rateLimit
	d, cleanup, err := data.NewData(bc.Data, bc.Places, testLogger)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	rows := []biz.Row{}
	for i := 1; i <= 3; i++ {
		rows = append(rows, biz.Row{
			"manage_no":      fmt.Sprintf("P%d", i),
			"place_name":     fmt.Sprintf("국밥집%d", i),
			"food_category":  "한식",
			"region_sido":    "서울특별시",
			"region_sigungu": "중구",
			"tags":           []string{"solo"},
		})
	}
	_, err = data.NewImporter(d, testLogger).WritePlaces(context.Background(), rows)
	require.NoError(t, err)

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
	svc := service.NewPlacesService(testLogger, places, regions, d)

	ts := httptest.NewServer(NewHTTPServer(bc.Server, svc, testLogger))
	t.Cleanup(ts.Close)
	return ts, d
}

func get(t *testing.T, ts *httptest.Server, path string) (*nethttp.Response, []byte) {
	t.Helper()
	resp, err := nethttp.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHTTPListPlaces(t *testing.T) {
	ts := newTestServer(t, 0)

	resp, body := get(t, ts, "/v1/places?food="+url.QueryEscape("한식")+"&page_size=2")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, string(body))
	var reply service.ListPlacesReply
	require.NoError(t, json.Unmarshal(body, &reply))
	assert.Len(t, reply.Items, 2)
	require.NotNil(t, reply.TotalCount)
	assert.EqualValues(t, 3, *reply.TotalCount)
	assert.Equal(t, 2, reply.TotalPages)
	assert.Contains(t, reply.NextURL, "page=2")

	resp, body = get(t, ts, "/v1/places?situation=solo&format=xml")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/xml")
	var xr xmlPlaces
	require.NoError(t, xml.Unmarshal(body, &xr))
	assert.Len(t, xr.Place, 3)
	assert.Equal(t, "3", xr.TotalCount)
	assert.Equal(t, "solo", xr.Place[0].Tags)
}

func TestHTTPGetPlace(t *testing.T) {
	ts := newTestServer(t, 0)

	resp, body := get(t, ts, "/v1/places/P2")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, string(body))
	var reply service.GetPlaceReply
	require.NoError(t, json.Unmarshal(body, &reply))
	assert.Equal(t, "국밥집2", reply.Place.Name)

	resp, body = get(t, ts, "/v1/places/missing")
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), biz.PlaceNotFound)

	resp, body = get(t, ts, "/v1/places/missing?format=xml")
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	var xe xmlError
	require.NoError(t, xml.Unmarshal(body, &xe))
	assert.Equal(t, biz.PlaceNotFound, xe.Reason)
}

func TestHTTPReviewsAndSearch(t *testing.T) {
	ts, d := newTestServerData(t, 0)
	ctx := context.Background()
	im := data.NewImporter(d, testLogger)
	_, err := im.WriteReviews(ctx, []data.Review{
		{PlaceID: "P1", Nickname: "민수", Rating: 4, Content: "맛있어요", CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{PlaceID: "P1", Nickname: "지연", Rating: 2, CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	_, err = im.WriteVotes(ctx, []data.Vote{{ReviewID: 1, Voter: "x", Type: biz.VoteDown}})
	require.NoError(t, err)

	resp, body := get(t, ts, "/v1/places/P1/reviews")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, string(body))
	var reviews service.ListReviewsReply
	require.NoError(t, json.Unmarshal(body, &reviews))
	require.Len(t, reviews.Reviews, 2)
	assert.Equal(t, "지연", reviews.Reviews[0].Nickname)
	assert.EqualValues(t, 1, reviews.Reviews[1].DownCount)

	resp, body = get(t, ts, "/v1/places/P1/reviews?format=xml")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, string(body))
	var xr xmlReviews
	require.NoError(t, xml.Unmarshal(body, &xr))
	require.Len(t, xr.Review, 2)
	assert.Equal(t, "맛있어요", xr.Review[1].Content)
	assert.Equal(t, "2024-05-01T00:00:00Z", xr.Review[1].CreatedAt)

	resp, body = get(t, ts, "/v1/search?q="+url.QueryEscape("국밥집2"))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, string(body))
	var found service.SearchPlacesReply
	require.NoError(t, json.Unmarshal(body, &found))
	require.Len(t, found.Items, 1)
	assert.Equal(t, "P2", found.Items[0].ID)

	resp, body = get(t, ts, "/v1/search?q="+url.QueryEscape("국밥")+"&limit=2&format=xml")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, string(body))
	var xs xmlSearch
	require.NoError(t, xml.Unmarshal(body, &xs))
	assert.Len(t, xs.Place, 2)
}

func TestHTTPRegions(t *testing.T) {
	ts := newTestServer(t, 0)

	resp, body := get(t, ts, "/v1/regions")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, string(body))
	var reply service.ListRegionsReply
	require.NoError(t, json.Unmarshal(body, &reply))
	assert.Equal(t, []biz.RegionCount{{Name: "서울특별시", Count: 3}}, reply.Regions)

	resp, body = get(t, ts, "/v1/regions/"+url.PathEscape("서울특별시"))
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &reply))
	assert.Equal(t, []biz.RegionCount{{Name: "중구", Count: 3}}, reply.Regions)
}

func TestHTTPHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, 0)

	resp, body := get(t, ts, "/healthz")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"backend_status":"ok"`)

	get(t, ts, "/v1/places")
	resp, body = get(t, ts, "/metrics")
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "placefinder_list_attempts_total")
}

func TestHTTPRateLimit(t *testing.T) {
	ts := newTestServer(t, 1)

	codes := map[int]int{}
	for i := 0; i < 5; i++ {
		resp, _ := get(t, ts, "/v1/regions")
		codes[resp.StatusCode]++
	}
	assert.Positive(t, codes[nethttp.StatusTooManyRequests])

	// 健康检查不受限流影响
	resp, _ := get(t, ts, "/healthz")
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
}

func TestTokenBucket(t *testing.T) {
	now := time.Unix(0, 0)
	b := newTokenBucket(2, func() time.Time { return now })
	for i := 0; i < 4; i++ {
		assert.True(t, b.allow(), "burst %d", i)
	}
	assert.False(t, b.allow())

	now = now.Add(500 * time.Millisecond)
	assert.True(t, b.allow())
	assert.False(t, b.allow())

	now = now.Add(time.Hour)
	for i := 0; i < 4; i++ {
		assert.True(t, b.allow())
	}
	assert.False(t, b.allow())
}

func TestJoinInts(t *testing.T) {
	assert.Equal(t, "1,...,4,5,6,...,9", joinInts([]int{1, biz.PageGap, 4, 5, 6, biz.PageGap, 9}))
}
