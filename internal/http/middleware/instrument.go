package middleware

import (
	"time"

	"github.com/valyala/fasthttp"

	httpctx "hydrolog/internal/http/ctx"
	"hydrolog/internal/metrics"
)

// Instrument observes the request duration of next under the route
// pattern, so path parameters do not explode label cardinality.
func Instrument(route string, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		httpctx.SetRoute(ctx, route)
		start := time.Now()
		next(ctx)
		metrics.RequestDuration.WithLabelValues(route, string(ctx.Method())).Observe(time.Since(start).Seconds())
	}
}
