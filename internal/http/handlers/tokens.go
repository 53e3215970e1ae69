package handlers

import (
	"errors"
	"strconv"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "hydrolog/internal/db"
)

func CreateToken(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		name := string(ctx.PostArgs().Peek("name"))
		if name == "" {
			formError(ctx, fasthttp.StatusBadRequest, "name required")
			return
		}

		account, ok := MustAccount(ctx)
		if !ok {
			return
		}
		t, err := dbpkg.CreateToken(db, account.ID, name)
		if err != nil {
			formError(ctx, fasthttp.StatusInternalServerError, "failed to create API token")
			return
		}

		// The settings page reveals the full value of this token once.
		ctx.Redirect("/settings?new="+strconv.FormatUint(uint64(t.ID), 10), fasthttp.StatusSeeOther)
	}
}

// ownedToken loads the token named by the "id" form value and checks the
// caller may change it.
func ownedToken(ctx *fasthttp.RequestCtx, db *gorm.DB) (*dbpkg.APIToken, bool) {
	id := string(ctx.PostArgs().Peek("id"))
	if id == "" {
		formError(ctx, fasthttp.StatusBadRequest, "id required")
		return nil, false
	}

	account, ok := MustAccount(ctx)
	if !ok {
		return nil, false
	}
	var t dbpkg.APIToken
	if err := db.First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			formError(ctx, fasthttp.StatusNotFound, "API token not found")
			return nil, false
		}
		formError(ctx, fasthttp.StatusInternalServerError, "database error")
		return nil, false
	}
	if t.AccountID != account.ID && !account.IsAdmin {
		formError(ctx, fasthttp.StatusForbidden, "forbidden")
		return nil, false
	}
	return &t, true
}

func DeleteToken(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		t, ok := ownedToken(ctx, db)
		if !ok {
			return
		}
		if err := db.Delete(t).Error; err != nil {
			formError(ctx, fasthttp.StatusInternalServerError, "failed to delete API token")
			return
		}
		ctx.Redirect("/settings", fasthttp.StatusSeeOther)
	}
}

func SetActiveToken(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		activeStr := string(ctx.PostArgs().Peek("active"))
		if activeStr != "true" && activeStr != "false" {
			formError(ctx, fasthttp.StatusBadRequest, "active (true|false) required")
			return
		}
		t, ok := ownedToken(ctx, db)
		if !ok {
			return
		}
		if err := db.Model(t).Update("active", activeStr == "true").Error; err != nil {
			formError(ctx, fasthttp.StatusInternalServerError, "failed to update API token")
			return
		}
		ctx.Redirect("/settings", fasthttp.StatusSeeOther)
	}
}
