package middleware

import (
	"bytes"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"hydrolog/internal/auth"
	dbpkg "hydrolog/internal/db"
	httpctx "hydrolog/internal/http/ctx"
)

// SessionAuth loads the account behind the session cookie and sets it on
// the context. Pages redirect to /login; /api routes get a JSON 401.
func SessionAuth(db *gorm.DB, sessions *auth.Sessions) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			cookie := ctx.Request.Header.Cookie(auth.CookieName)
			if len(cookie) == 0 {
				deny(ctx)
				return
			}
			id, _, err := sessions.Parse(string(cookie))
			if err != nil {
				deny(ctx)
				return
			}

			var account dbpkg.Account
			if err := db.First(&account, id).Error; err != nil {
				deny(ctx)
				return
			}

			httpctx.SetAccount(ctx, &account)
			next(ctx)
		}
	}
}

// AdminOnly rejects non-admin accounts. Must run after SessionAuth.
func AdminOnly(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		a, ok := httpctx.AccountFromCtx(ctx)
		if !ok || !a.IsAdmin {
			ctx.SetStatusCode(fasthttp.StatusForbidden)
			ctx.SetBodyString("forbidden")
			return
		}
		next(ctx)
	}
}

func deny(ctx *fasthttp.RequestCtx) {
	if bytes.HasPrefix(ctx.Path(), []byte("/api/")) {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"message":"not authenticated"}`)
		return
	}
	ctx.Redirect("/login", fasthttp.StatusSeeOther)
}
