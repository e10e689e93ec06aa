package data

import (
	"context"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sqlDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "placefinder",
	Subsystem: "data",
	Name:      "sql_duration_seconds",
	Help:      "SQL statement latency.",
	Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
}, []string{"driver", "outcome"})

type beginKey struct{}

// Hooks 记录 SQL 耗时，超过阈值的语句以红色打印。
type Hooks struct {
	driver    string
	threshold time.Duration
	debug     bool
}

func (h *Hooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	return context.WithValue(ctx, beginKey{}, time.Now()), nil
}

func (h *Hooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	d := h.took(ctx)
	sqlDuration.WithLabelValues(h.driver, "ok").Observe(d.Seconds())
	switch {
	case h.threshold > 0 && d > h.threshold:
		color.Red("%v slow  sql: %s %q .took: %s\n", time.Now().Format(time.RFC3339), query, args, d)
	case h.debug:
		color.Green("%v sql: %s %q .took: %s\n", time.Now().Format(time.RFC3339), query, args, d)
	}
	return ctx, nil
}

// OnError 失败的语句同样计入耗时。
func (h *Hooks) OnError(ctx context.Context, err error, query string, args ...interface{}) error {
	sqlDuration.WithLabelValues(h.driver, "error").Observe(h.took(ctx).Seconds())
	if h.debug {
		color.Yellow("%v sql error: %s %q: %v\n", time.Now().Format(time.RFC3339), query, args, err)
	}
	return err
}

func (h *Hooks) took(ctx context.Context) time.Duration {
	begin, ok := ctx.Value(beginKey{}).(time.Time)
	if !ok {
		return 0
	}
	return time.Since(begin)
}
