package server

import (
	"context"

	"placefinder-go/internal/service"

	"github.com/go-kratos/kratos/v2/transport/http"
)

const (
	OperationPlacesListPlaces   = "/placefinder.v1.Places/ListPlaces"
	OperationPlacesGetPlace     = "/placefinder.v1.Places/GetPlace"
	OperationPlacesListReviews  = "/placefinder.v1.Places/ListReviews"
	OperationPlacesSearchPlaces = "/placefinder.v1.Places/SearchPlaces"
	OperationPlacesListRegions  = "/placefinder.v1.Places/ListRegions"
	OperationPlacesStatus       = "/placefinder.v1.Places/Status"
)

type PlacesHTTPServer interface {
	ListPlaces(context.Context, *service.ListPlacesRequest) (*service.ListPlacesReply, error)
	GetPlace(context.Context, *service.GetPlaceRequest) (*service.GetPlaceReply, error)
	ListReviews(context.Context, *service.ListReviewsRequest) (*service.ListReviewsReply, error)
	SearchPlaces(context.Context, *service.SearchPlacesRequest) (*service.SearchPlacesReply, error)
	ListRegions(context.Context, *service.ListRegionsRequest) (*service.ListRegionsReply, error)
	Status(context.Context, *service.StatusRequest) (*service.StatusReply, error)
}

func RegisterPlacesHTTPServer(s *http.Server, srv PlacesHTTPServer) {
	r := s.Route("/")
	r.GET("/v1/places", _Places_ListPlaces0_HTTP_Handler(srv))
	r.GET("/v1/places/{id}", _Places_GetPlace0_HTTP_Handler(srv))
	r.GET("/v1/places/{id}/reviews", _Places_ListReviews0_HTTP_Handler(srv))
	r.GET("/v1/search", _Places_SearchPlaces0_HTTP_Handler(srv))
	r.GET("/v1/regions", _Places_ListRegions0_HTTP_Handler(srv))
	r.GET("/v1/regions/{province}", _Places_ListRegions1_HTTP_Handler(srv))
	r.GET("/healthz", _Places_Status0_HTTP_Handler(srv))
}

func _Places_ListPlaces0_HTTP_Handler(srv PlacesHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in service.ListPlacesRequest
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationPlacesListPlaces)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.ListPlaces(ctx, req.(*service.ListPlacesRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*service.ListPlacesReply)
		return ctx.Result(200, reply)
	}
}

func _Places_GetPlace0_HTTP_Handler(srv PlacesHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in service.GetPlaceRequest
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationPlacesGetPlace)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.GetPlace(ctx, req.(*service.GetPlaceRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*service.GetPlaceReply)
		return ctx.Result(200, reply)
	}
}

func _Places_ListReviews0_HTTP_Handler(srv PlacesHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in service.ListReviewsRequest
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationPlacesListReviews)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.ListReviews(ctx, req.(*service.ListReviewsRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*service.ListReviewsReply)
		return ctx.Result(200, reply)
	}
}

func _Places_SearchPlaces0_HTTP_Handler(srv PlacesHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in service.SearchPlacesRequest
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationPlacesSearchPlaces)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.SearchPlaces(ctx, req.(*service.SearchPlacesRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*service.SearchPlacesReply)
		return ctx.Result(200, reply)
	}
}

func _Places_ListRegions0_HTTP_Handler(srv PlacesHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in service.ListRegionsRequest
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationPlacesListRegions)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.ListRegions(ctx, req.(*service.ListRegionsRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*service.ListRegionsReply)
		return ctx.Result(200, reply)
	}
}

func _Places_ListRegions1_HTTP_Handler(srv PlacesHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in service.ListRegionsRequest
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationPlacesListRegions)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.ListRegions(ctx, req.(*service.ListRegionsRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*service.ListRegionsReply)
		return ctx.Result(200, reply)
	}
}

func _Places_Status0_HTTP_Handler(srv PlacesHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in service.StatusRequest
		http.SetOperation(ctx, OperationPlacesStatus)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Status(ctx, req.(*service.StatusRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*service.StatusReply)
		return ctx.Result(200, reply)
	}
}
