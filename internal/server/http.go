package server

import (
	"placefinder-go/internal/conf"
	"placefinder-go/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewHTTPServer)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Server, places *service.PlacesService, logger log.Logger) *http.Server {
	mws := []middleware.Middleware{
		recovery.Recovery(),
		logging.Server(logger),
	}
	if c.Http.RateLimit > 0 {
		mws = append(mws, limiterMiddleware(newTokenBucket(c.Http.RateLimit, nil)))
	}
	var opts = []http.ServerOption{
		http.Middleware(mws...),
		http.ResponseEncoder(func(w http.ResponseWriter, r *http.Request, v any) error {
			if r != nil && r.URL.Query().Get("format") == "xml" {
				return encodeXML(w, r, v)
			}
			return http.DefaultResponseEncoder(w, r, v)
		}),
		http.ErrorEncoder(func(w http.ResponseWriter, r *http.Request, err error) {
			if r != nil && r.URL.Query().Get("format") == "xml" {
				encodeXMLError(w, err)
				return
			}
			http.DefaultErrorEncoder(w, r, err)
		}),
	}
	if c.Http.Network != "" {
		opts = append(opts, http.Network(c.Http.Network))
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if d := c.Http.Timeout.AsDuration(); d > 0 {
		opts = append(opts, http.Timeout(d))
	}
	srv := http.NewServer(opts...)
	RegisterPlacesHTTPServer(srv, places)
	srv.Handle("/metrics", promhttp.Handler())
	return srv
}
