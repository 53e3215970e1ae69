package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/valyala/fasthttp"

	"hydrolog/internal/backend"
	dbpkg "hydrolog/internal/db"
	httpctx "hydrolog/internal/http/ctx"
	"hydrolog/internal/hydration"
	"hydrolog/internal/metrics"
)

// backendTimeout bounds the upstream work of a single request.
var backendTimeout = 15 * time.Second

// MustAccount returns the current account from context, or sends 401 and returns (nil, false).
func MustAccount(ctx *fasthttp.RequestCtx) (*dbpkg.Account, bool) {
	a, ok := httpctx.AccountFromCtx(ctx)
	if !ok {
		jsonError(ctx, fasthttp.StatusUnauthorized, "not authenticated")
		return nil, false
	}
	return a, true
}

// mustBackendUser is MustAccount for routes that read or write backend data.
func mustBackendUser(ctx *fasthttp.RequestCtx) (*dbpkg.Account, bool) {
	a, ok := MustAccount(ctx)
	if !ok {
		return nil, false
	}
	if a.BackendUserID == "" {
		jsonError(ctx, fasthttp.StatusConflict, "account is not linked to a backend user")
		return nil, false
	}
	return a, true
}

// requestContext bounds upstream work by backendTimeout. The parent is the
// request itself, so server shutdown cancels in-flight backend calls.
func requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, backendTimeout)
}

// RequestLogger returns fasthttp middleware that logs method, path, route,
// status and duration, plus the masked API token on bearer requests.
func RequestLogger(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		token := ""
		if t, ok := httpctx.APITokenFromCtx(ctx); ok {
			token = " token=" + t.Mask()
		}
		log.Printf("%s %s route=%s -> %d (%s) ip=%s%s", ctx.Method(), ctx.Path(), httpctx.RouteFromCtx(ctx),
			ctx.Response.StatusCode(), time.Since(start), ctx.RemoteAddr(), token)
	}
}

func jsonResponse(ctx *fasthttp.RequestCtx, code int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString("encode error")
		return
	}
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func jsonError(ctx *fasthttp.RequestCtx, code int, msg string) {
	jsonResponse(ctx, code, map[string]string{"message": msg})
}

// formError answers a form post from the server-rendered pages.
func formError(ctx *fasthttp.RequestCtx, code int, msg string) {
	ctx.SetStatusCode(code)
	ctx.SetBodyString(msg)
}

func decodeJSON(ctx *fasthttp.RequestCtx, v any) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		jsonError(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// upstreamFailed answers a failed read with 502. No partial data is sent.
func upstreamFailed(ctx *fasthttp.RequestCtx, op string, err error) {
	metrics.UpstreamFailures.WithLabelValues(op).Inc()
	log.Printf("%s: %v", op, err)
	if errors.Is(err, context.DeadlineExceeded) {
		jsonError(ctx, fasthttp.StatusGatewayTimeout, "backend service timed out")
		return
	}
	jsonError(ctx, fasthttp.StatusBadGateway, hydration.ErrUpstreamUnavailable.Error())
}

// writeFailed passes a backend rejection through with its status and body,
// and maps transport failures to 502.
func writeFailed(ctx *fasthttp.RequestCtx, op, msg string, err error) {
	metrics.UpstreamFailures.WithLabelValues(op).Inc()
	log.Printf("%s: %v", op, err)

	var se *backend.StatusError
	if !errors.As(err, &se) {
		jsonError(ctx, fasthttp.StatusBadGateway, msg)
		return
	}
	var detail any = se.Body
	if json.Valid([]byte(se.Body)) {
		detail = json.RawMessage(se.Body)
	}
	jsonResponse(ctx, se.Code, map[string]any{
		"message":      msg,
		"backendError": detail,
	})
}
