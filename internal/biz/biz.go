package biz

import "github.com/google/wire"

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewStrategyBuilder,
	NewOrchestrator,
	NewStatsAggregator,
	NewNormalizer,
	NewPlaceUsecase,
	NewRegionUsecase,
)
