package ctx

import (
	"github.com/valyala/fasthttp"

	dbpkg "hydrolog/internal/db"
)

const (
	AccountKey  = "account"
	APITokenKey = "apiToken"
	RouteKey    = "route"
)

func SetAccount(ctx *fasthttp.RequestCtx, a *dbpkg.Account) {
	ctx.SetUserValue(AccountKey, a)
}

func AccountFromCtx(ctx *fasthttp.RequestCtx) (*dbpkg.Account, bool) {
	v := ctx.UserValue(AccountKey)
	if v == nil {
		return nil, false
	}
	a, ok := v.(*dbpkg.Account)
	return a, ok && a != nil
}

func SetAPIToken(ctx *fasthttp.RequestCtx, t *dbpkg.APIToken) {
	ctx.SetUserValue(APITokenKey, t)
}

func APITokenFromCtx(ctx *fasthttp.RequestCtx) (*dbpkg.APIToken, bool) {
	v := ctx.UserValue(APITokenKey)
	if v == nil {
		return nil, false
	}
	t, ok := v.(*dbpkg.APIToken)
	return t, ok
}

// SetRoute records the matched route pattern for metrics labels.
func SetRoute(ctx *fasthttp.RequestCtx, route string) {
	ctx.SetUserValue(RouteKey, route)
}

// RouteFromCtx returns the route pattern set by SetRoute, or "-" for
// routes that are not instrumented.
func RouteFromCtx(ctx *fasthttp.RequestCtx) string {
	if s, ok := ctx.UserValue(RouteKey).(string); ok && s != "" {
		return s
	}
	return "-"
}
