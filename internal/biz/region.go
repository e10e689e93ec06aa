package biz

import (
	"context"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
)

// RegionCount 地区及其店铺数。
type RegionCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// RegionRepo 按地区分组计数，新旧地区列合并计算。
type RegionRepo interface {
	ProvinceCounts(ctx context.Context) ([]RegionCount, error)
	DistrictCounts(ctx context.Context, province string) ([]RegionCount, error)
}

type RegionUsecase struct {
	repo RegionRepo
	log  *log.Helper
}

func NewRegionUsecase(repo RegionRepo, logger log.Logger) *RegionUsecase {
	return &RegionUsecase{repo: repo, log: log.NewHelper(logger)}
}

func (uc *RegionUsecase) Provinces(ctx context.Context) ([]RegionCount, error) {
	return uc.repo.ProvinceCounts(ctx)
}

func (uc *RegionUsecase) Districts(ctx context.Context, province string) ([]RegionCount, error) {
	province = strings.TrimSpace(province)
	if province == "" {
		return []RegionCount{}, nil
	}
	return uc.repo.DistrictCounts(ctx, province)
}
