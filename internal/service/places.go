package service

import (
	"context"
	stderrors "errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"placefinder-go/internal/biz"
	"placefinder-go/internal/data"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// Version 构建时通过 ldflags 注入。
var Version = "dev"

const (
	pageWindowRadius = 2
	listPath         = "/v1/places"
)

var serviceStartTime = time.Now()

// PlacesService 实现 HTTP 入口，调用 biz 层。
type PlacesService struct {
	log     *log.Helper
	places  *biz.PlaceUsecase
	regions *biz.RegionUsecase
	data    *data.Data
}

func NewPlacesService(logger log.Logger, places *biz.PlaceUsecase, regions *biz.RegionUsecase, data *data.Data) *PlacesService {
	return &PlacesService{
		log:     log.NewHelper(log.With(logger, "module", "service/places")),
		places:  places,
		regions: regions,
		data:    data,
	}
}

func (s *PlacesService) ListPlaces(ctx context.Context, req *ListPlacesRequest) (*ListPlacesReply, error) {
	q := biz.ListQuery{
		Query:     req.Q,
		Situation: req.Situation,
		Food:      req.Food,
		Province:  req.Province,
		District:  req.District,
		Sort:      req.Sort,
		Page:      atoi(req.Page),
		Offset:    atoi(req.Offset),
		PageSize:  atoi(req.PageSize),
	}
	res, err := s.places.FetchPlacesList(ctx, q)
	if err != nil {
		s.log.WithContext(ctx).Errorf("list places: %v", err)
		return nil, translateError(err)
	}
	pager := res.Pager()
	reply := &ListPlacesReply{
		Items:       res.Items,
		TotalCount:  res.TotalCount,
		Approximate: res.Approximate,
		HasNext:     res.HasNext,
		HasMore:     res.HasMore,
		Page:        res.Page,
		PageSize:    res.PageSize,
		TotalPages:  pager.TotalPages(),
		Pages:       pager.Window(pageWindowRadius),
		Sort:        res.Sort,
		Strategy:    string(res.Strategy),
	}
	if pager.HasNext() {
		reply.NextURL = buildPageURL(req, res.Page+1, res.PageSize)
	}
	if pager.HasPrev() {
		reply.PrevURL = buildPageURL(req, res.Page-1, res.PageSize)
	}
	return reply, nil
}

func (s *PlacesService) GetPlace(ctx context.Context, req *GetPlaceRequest) (*GetPlaceReply, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return nil, errors.BadRequest(biz.BadRequest, "id is required")
	}
	p, err := s.places.GetPlace(ctx, id)
	if err != nil {
		return nil, translateError(err)
	}
	return &GetPlaceReply{Place: p}, nil
}

func (s *PlacesService) ListReviews(ctx context.Context, req *ListReviewsRequest) (*ListReviewsReply, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return nil, errors.BadRequest(biz.BadRequest, "id is required")
	}
	reviews, err := s.places.ListReviews(ctx, id)
	if err != nil {
		return nil, translateError(err)
	}
	return &ListReviewsReply{PlaceID: id, Reviews: reviews}, nil
}

func (s *PlacesService) SearchPlaces(ctx context.Context, req *SearchPlacesRequest) (*SearchPlacesReply, error) {
	items, err := s.places.SearchPlaces(ctx, req.Q, atoi(req.Limit))
	if err != nil {
		s.log.WithContext(ctx).Errorf("search %q: %v", req.Q, err)
		return nil, translateError(err)
	}
	return &SearchPlacesReply{Q: strings.TrimSpace(req.Q), Items: items}, nil
}

func (s *PlacesService) ListRegions(ctx context.Context, req *ListRegionsRequest) (*ListRegionsReply, error) {
	var (
		counts []biz.RegionCount
		err    error
	)
	province := strings.TrimSpace(req.Province)
	if province == "" {
		counts, err = s.regions.Provinces(ctx)
	} else {
		counts, err = s.regions.Districts(ctx, province)
	}
	if err != nil {
		s.log.WithContext(ctx).Errorf("list regions %q: %v", province, err)
		return nil, translateError(err)
	}
	return &ListRegionsReply{Province: province, Regions: counts}, nil
}

func (s *PlacesService) Status(ctx context.Context, _ *StatusRequest) (*StatusReply, error) {
	uptime := time.Since(serviceStartTime).Round(time.Second).String()
	reply := &StatusReply{Version: Version, BackendStatus: "unknown", Uptime: uptime}
	if s.data != nil {
		reply.Backend = s.data.Backend()
		if err := s.data.Ping(ctx); err == nil {
			reply.BackendStatus = "ok"
		} else {
			reply.BackendStatus = "unavailable"
			return reply, errors.ServiceUnavailable(biz.BackendUnavailable, "backend unavailable").WithCause(err)
		}
	}
	return reply, nil
}

// translateError 把 biz 与存储错误映射为对外的 kratos 错误。
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var se *errors.Error
	if stderrors.As(err, &se) {
		return err
	}
	var statsErr *biz.StatsError
	if stderrors.As(err, &statsErr) {
		return biz.ErrStatsUnavailable.WithCause(err)
	}
	if biz.IsTransient(err) {
		return biz.ErrBackendUnavailable.WithCause(err)
	}
	return biz.ErrBackendError.WithCause(err)
}

// buildPageURL 构造翻页链接，只保留列表参数。
func buildPageURL(req *ListPlacesRequest, page, size int) string {
	q := url.Values{}
	for k, v := range map[string]string{
		"q":         req.Q,
		"situation": req.Situation,
		"food":      req.Food,
		"province":  req.Province,
		"district":  req.District,
		"sort":      req.Sort,
	} {
		if v = strings.TrimSpace(v); v != "" {
			q.Set(k, v)
		}
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(size))
	u := url.URL{Path: listPath, RawQuery: q.Encode()}
	return u.String()
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
