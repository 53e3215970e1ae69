package handlers

import (
	"bytes"
	"strconv"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"hydrolog/internal/config"
	dbpkg "hydrolog/internal/db"
	httpctx "hydrolog/internal/http/ctx"
	"hydrolog/internal/hydration"
	ui "hydrolog/web"
)

type LayoutData struct {
	Title        string
	ActivePage   string
	PageTemplate string
	IsAdmin      bool
	DisplayName  string
	Email        string
	Linked       bool
	Periods      []hydration.Period
	Settings     dbpkg.Settings
	Tokens       []tokenRow
	Accounts     []accountRow
}

type tokenRow struct {
	ID       uint
	Name     string
	Value    string
	Revealed bool
	Active   bool
	Created  string
	LastUsed string
}

type accountRow struct {
	ID        uint
	Email     string
	Name      string
	IsAdmin   bool
	Linked    bool
	Bootstrap bool
	Created   string
}

func getLayoutData(ctx *fasthttp.RequestCtx, activePage, title, pageTemplate string) LayoutData {
	data := LayoutData{
		Title:        title,
		ActivePage:   activePage,
		PageTemplate: pageTemplate,
		Periods:      []hydration.Period{hydration.Period7Days, hydration.Period30Days, hydration.Period90Days},
	}
	if a, ok := httpctx.AccountFromCtx(ctx); ok {
		data.IsAdmin = a.IsAdmin
		data.DisplayName = a.DisplayName()
		data.Email = a.Email
		data.Linked = a.BackendUserID != ""
		data.Settings = a.Settings()
	}
	return data
}

func renderLayout(ctx *fasthttp.RequestCtx, data LayoutData) {
	var buf bytes.Buffer
	if err := ui.Templates().ExecuteTemplate(&buf, "layout", data); err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString("render error")
		return
	}
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBody(buf.Bytes())
}

// DashboardPage is the shell for today's summary and the activity feed.
func DashboardPage() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		renderLayout(ctx, getLayoutData(ctx, "dashboard", "Dashboard", "dashboard"))
	}
}

func ReportsPage() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		renderLayout(ctx, getLayoutData(ctx, "reports", "Reports", "reports"))
	}
}

func SettingsPage(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		account, ok := MustAccount(ctx)
		if !ok {
			return
		}

		var tokens []dbpkg.APIToken
		if err := db.Where("account_id = ?", account.ID).Order("created_at DESC").Find(&tokens).Error; err != nil {
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			ctx.SetBodyString("failed to load API tokens")
			return
		}
		newID, _ := strconv.ParseUint(string(ctx.QueryArgs().Peek("new")), 10, 32)

		data := getLayoutData(ctx, "settings", "Settings", "settings")
		data.Tokens = make([]tokenRow, 0, len(tokens))
		for _, t := range tokens {
			row := tokenRow{
				ID:      t.ID,
				Name:    t.Name,
				Value:   t.Mask(),
				Active:  t.Active,
				Created: FormatDateTime(t.CreatedAt.In(cfg.Location), account),
			}
			if uint64(t.ID) == newID {
				row.Value, row.Revealed = t.Token, true
			}
			if t.LastUsedAt != nil {
				row.LastUsed = FormatDateTime(t.LastUsedAt.In(cfg.Location), account)
			}
			data.Tokens = append(data.Tokens, row)
		}
		renderLayout(ctx, data)
	}
}

func UsersPage(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		account, ok := MustAccount(ctx)
		if !ok {
			return
		}
		if !account.IsAdmin {
			ctx.SetStatusCode(fasthttp.StatusForbidden)
			ctx.SetBodyString("forbidden")
			return
		}

		var accounts []dbpkg.Account
		if err := db.Order("created_at DESC").Find(&accounts).Error; err != nil {
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			ctx.SetBodyString("failed to load users")
			return
		}

		bootstrap := dbpkg.NormalizeEmail(cfg.AdminEmail)
		data := getLayoutData(ctx, "users", "Users", "users")
		data.Accounts = make([]accountRow, 0, len(accounts))
		for i := range accounts {
			a := &accounts[i]
			data.Accounts = append(data.Accounts, accountRow{
				ID:        a.ID,
				Email:     a.Email,
				Name:      a.DisplayName(),
				IsAdmin:   a.IsAdmin,
				Linked:    a.BackendUserID != "",
				Bootstrap: a.Email == bootstrap,
				Created:   FormatDateTime(a.CreatedAt.In(cfg.Location), account),
			})
		}
		renderLayout(ctx, data)
	}
}
