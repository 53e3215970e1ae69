package middleware

import (
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"hydrolog/internal/auth"
	dbpkg "hydrolog/internal/db"
	httpctx "hydrolog/internal/http/ctx"
)

func setup(t *testing.T) (*gorm.DB, *dbpkg.Account) {
	t.Helper()
	db, err := dbpkg.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	a := dbpkg.NewAccount("ana@example.com", "hash")
	if err := db.Create(a).Error; err != nil {
		t.Fatal(err)
	}
	return db, a
}

func newCtx(method, uri string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

func capture(got **dbpkg.Account) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		*got, _ = httpctx.AccountFromCtx(ctx)
		ctx.SetStatusCode(fasthttp.StatusOK)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer hl_abc", "hl_abc", true},
		{"bearer  hl_abc ", "hl_abc", true},
		{"Basic hl_abc", "", false},
		{"Bearer abc", "abc", false},
		{"Bearer", "", false},
	}
	for _, tc := range cases {
		got, ok := bearerToken([]byte(tc.header))
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("bearerToken(%q) = %q, %v", tc.header, got, ok)
		}
	}
}

func TestBearerAuth(t *testing.T) {
	db, a := setup(t)
	tok, err := dbpkg.CreateToken(db, a.ID, "script")
	if err != nil {
		t.Fatal(err)
	}
	var got *dbpkg.Account
	h := BearerAuth(db)(capture(&got))

	ctx := newCtx("GET", "/v1/dashboard")
	h(ctx)
	if ctx.Response.StatusCode() != fasthttp.StatusUnauthorized {
		t.Errorf("no header status = %d", ctx.Response.StatusCode())
	}

	ctx = newCtx("GET", "/v1/dashboard")
	ctx.Request.Header.Set("Authorization", "Bearer hl_unknown")
	h(ctx)
	if ctx.Response.StatusCode() != fasthttp.StatusUnauthorized || got != nil {
		t.Errorf("unknown token status = %d", ctx.Response.StatusCode())
	}

	ctx = newCtx("GET", "/v1/dashboard")
	ctx.Request.Header.Set("Authorization", "Bearer "+tok.Token)
	h(ctx)
	if ctx.Response.StatusCode() != fasthttp.StatusOK || got == nil || got.ID != a.ID {
		t.Fatalf("valid token status = %d account = %+v", ctx.Response.StatusCode(), got)
	}
	if _, ok := httpctx.APITokenFromCtx(ctx); !ok {
		t.Error("token not set on context")
	}
}

func TestSessionAuth(t *testing.T) {
	db, a := setup(t)
	sessions := auth.NewSessions("secret", time.Hour)
	var got *dbpkg.Account
	h := SessionAuth(db, sessions)(capture(&got))

	ctx := newCtx("GET", "/api/reports")
	h(ctx)
	if ctx.Response.StatusCode() != fasthttp.StatusUnauthorized {
		t.Errorf("api without cookie status = %d", ctx.Response.StatusCode())
	}

	ctx = newCtx("GET", "/reports")
	h(ctx)
	if ctx.Response.StatusCode() != fasthttp.StatusSeeOther {
		t.Errorf("page without cookie status = %d", ctx.Response.StatusCode())
	}

	token, err := sessions.Issue(a.ID, a.Email)
	if err != nil {
		t.Fatal(err)
	}
	ctx = newCtx("GET", "/api/reports")
	ctx.Request.Header.SetCookie(auth.CookieName, token)
	h(ctx)
	if ctx.Response.StatusCode() != fasthttp.StatusOK || got == nil || got.Email != "ana@example.com" {
		t.Errorf("valid session status = %d account = %+v", ctx.Response.StatusCode(), got)
	}
}

func TestAdminOnly(t *testing.T) {
	h := AdminOnly(func(ctx *fasthttp.RequestCtx) { ctx.SetStatusCode(fasthttp.StatusOK) })

	ctx := newCtx("GET", "/users")
	httpctx.SetAccount(ctx, &dbpkg.Account{})
	h(ctx)
	if ctx.Response.StatusCode() != fasthttp.StatusForbidden {
		t.Errorf("non-admin status = %d", ctx.Response.StatusCode())
	}

	ctx = newCtx("GET", "/users")
	httpctx.SetAccount(ctx, &dbpkg.Account{IsAdmin: true})
	h(ctx)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Errorf("admin status = %d", ctx.Response.StatusCode())
	}
}

func TestInstrumentSetsRoute(t *testing.T) {
	var route string
	h := Instrument("/api/water-intake/{id}", func(ctx *fasthttp.RequestCtx) {
		route = httpctx.RouteFromCtx(ctx)
	})
	h(newCtx("DELETE", "/api/water-intake/9"))
	if route != "/api/water-intake/{id}" {
		t.Errorf("route = %q", route)
	}
}
