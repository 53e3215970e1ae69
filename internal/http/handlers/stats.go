package handlers

import (
	"bytes"
	"context"
	"strconv"

	"github.com/valyala/fasthttp"

	"hydrolog/internal/hydration"
	"hydrolog/internal/metrics"
)

// recentLimit caps the activity feed.
const recentLimit = 15

// Reports is the read side handlers need; *hydration.Assembler implements it.
type Reports interface {
	Report(ctx context.Context, userID string, period hydration.Period, policy hydration.GoalPolicy) (hydration.Report, error)
	Dashboard(ctx context.Context, userID string, policy hydration.GoalPolicy) (hydration.DashboardSummary, error)
	Export(ctx context.Context, userID string, period hydration.Period) (hydration.Export, error)
	Recent(ctx context.Context, userID string, limit int) ([]hydration.Activity, error)
}

// DashboardStats serves today's summary card.
func DashboardStats(reports Reports) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		account, ok := mustBackendUser(ctx)
		if !ok {
			return
		}
		rctx, cancel := requestContext(ctx)
		defer cancel()

		sum, err := reports.Dashboard(rctx, account.BackendUserID, account.GoalPolicy())
		if err != nil {
			upstreamFailed(ctx, "dashboard", err)
			return
		}
		metrics.ReportsBuilt.WithLabelValues("dashboard").Inc()
		jsonResponse(ctx, fasthttp.StatusOK, sum)
	}
}

// Report serves the period report.
func Report(reports Reports) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		account, ok := mustBackendUser(ctx)
		if !ok {
			return
		}
		period := hydration.ParsePeriod(string(ctx.QueryArgs().Peek("period")))
		rctx, cancel := requestContext(ctx)
		defer cancel()

		r, err := reports.Report(rctx, account.BackendUserID, period, account.GoalPolicy())
		if err != nil {
			upstreamFailed(ctx, "report", err)
			return
		}
		metrics.ReportsBuilt.WithLabelValues("report").Inc()
		jsonResponse(ctx, fasthttp.StatusOK, r)
	}
}

// ExportReport serves the period's records as a CSV or printable JSON
// attachment. format defaults to csv; "pdf" is accepted as an alias of json.
func ExportReport(reports Reports) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		account, ok := mustBackendUser(ctx)
		if !ok {
			return
		}
		format := string(ctx.QueryArgs().Peek("format"))
		if format == "" {
			format = "csv"
		}
		if format != "csv" && format != "json" && format != "pdf" {
			jsonError(ctx, fasthttp.StatusBadRequest, "unsupported format")
			return
		}
		period := hydration.ParsePeriod(string(ctx.QueryArgs().Peek("period")))
		rctx, cancel := requestContext(ctx)
		defer cancel()

		exp, err := reports.Export(rctx, account.BackendUserID, period)
		if err != nil {
			upstreamFailed(ctx, "export", err)
			return
		}
		layout := displayLayout(account)
		filename := "hydration-report-" + string(period)

		if format == "csv" {
			var buf bytes.Buffer
			if err := exp.WriteCSV(&buf, layout); err != nil {
				jsonError(ctx, fasthttp.StatusInternalServerError, "failed to write export")
				return
			}
			metrics.ReportsBuilt.WithLabelValues("export_csv").Inc()
			ctx.SetContentType("text/csv; charset=utf-8")
			ctx.Response.Header.Set("Content-Disposition", `attachment; filename="`+filename+`.csv"`)
			ctx.SetBody(buf.Bytes())
			return
		}

		metrics.ReportsBuilt.WithLabelValues("export_json").Inc()
		jsonResponse(ctx, fasthttp.StatusOK, exp.Printable(layout))
		ctx.Response.Header.Set("Content-Disposition", `attachment; filename="`+filename+`.json"`)
	}
}

// RecentActivities serves the merged activity feed, newest first.
func RecentActivities(reports Reports) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		account, ok := mustBackendUser(ctx)
		if !ok {
			return
		}
		limit := recentLimit
		if v, err := strconv.Atoi(string(ctx.QueryArgs().Peek("limit"))); err == nil && v > 0 && v < recentLimit {
			limit = v
		}
		rctx, cancel := requestContext(ctx)
		defer cancel()

		items, err := reports.Recent(rctx, account.BackendUserID, limit)
		if err != nil {
			upstreamFailed(ctx, "recent", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, items)
	}
}
