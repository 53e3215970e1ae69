package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "hydrolog/internal/db"
	httpctx "hydrolog/internal/http/ctx"
)

// bearerToken extracts the credential from an "Authorization: Bearer" header.
// The scheme is matched case-insensitively.
func bearerToken(header []byte) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(string(header)), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, strings.HasPrefix(token, dbpkg.TokenPrefix)
}

// BearerAuth authenticates the read-only /v1 API with personal API tokens
// and sets both the token and its owning account on the context.
func BearerAuth(db *gorm.DB) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			header := ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)
			if len(header) == 0 {
				unauthorized(ctx, "missing Authorization header")
				return
			}
			token, ok := bearerToken(header)
			if !ok {
				unauthorized(ctx, "malformed bearer token")
				return
			}

			t, err := dbpkg.FindActiveToken(db, token)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				unauthorized(ctx, "invalid API token")
				return
			case err != nil:
				log.Printf("bearer auth: %v", err)
				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
				ctx.SetContentType("application/json")
				ctx.SetBodyString(`{"message":"database error"}`)
				return
			}

			httpctx.SetAPIToken(ctx, t)
			httpctx.SetAccount(ctx, &t.Account)
			next(ctx)
		}
	}
}

func unauthorized(ctx *fasthttp.RequestCtx, msg string) {
	ctx.Response.Header.Set(fasthttp.HeaderWWWAuthenticate, `Bearer realm="hydrolog"`)
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetContentType("application/json")
	ctx.SetBodyString(`{"message":"` + msg + `"}`)
}
