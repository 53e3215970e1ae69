package main

import (
	"log"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/valyala/fasthttp"

	"hydrolog/internal/auth"
	"hydrolog/internal/backend"
	"hydrolog/internal/config"
	"hydrolog/internal/db"
	"hydrolog/internal/http/handlers"
	appmw "hydrolog/internal/http/middleware"
	"hydrolog/internal/hydration"
	"hydrolog/internal/metrics"
	"hydrolog/internal/reminder"
	ui "hydrolog/web"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := db.EnsureBootstrapAdmin(sqlDB, cfg); err != nil {
		log.Fatalf("failed to ensure bootstrap admin: %v", err)
	}

	metrics.Register()

	client := backend.New(cfg.BackendURL, cfg.BackendTimeout, cfg.Location)
	reports := hydration.NewAssembler(client, cfg.Location)
	sessions := auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL)

	scheduler := cron.New(cron.WithLocation(cfg.Location))
	if err := db.ScheduleRetention(scheduler, sqlDB, cfg.RetentionSchedule); err != nil {
		log.Fatalf("failed to schedule retention: %v", err)
	}

	var notifier reminder.Notifier = reminder.LogNotifier{}
	if cfg.TelegramToken != "" {
		tg, err := reminder.NewTelegramNotifier(cfg.TelegramToken)
		if err != nil {
			log.Printf("warning: telegram reminders disabled: %v", err)
		} else {
			notifier = tg
		}
	}
	if err := reminder.Schedule(scheduler, reminder.NewService(sqlDB, reports, notifier), cfg.ReminderSchedule); err != nil {
		log.Fatalf("failed to schedule reminders: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	r := router.New()
	handler := handlers.RequestLogger(r.Handler)

	session := appmw.SessionAuth(sqlDB, sessions)
	bearer := appmw.BearerAuth(sqlDB)
	admin := func(h fasthttp.RequestHandler) fasthttp.RequestHandler { return session(appmw.AdminOnly(h)) }
	route := appmw.Instrument

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})

	r.ServeFS("/static/{filepath:*}", ui.StaticFS())

	r.GET("/login", handlers.LoginForm())
	r.POST("/login", handlers.LoginSubmit(sqlDB, sessions))
	r.POST("/logout", handlers.Logout())

	r.GET("/", session(handlers.DashboardPage()))
	r.GET("/reports", session(handlers.ReportsPage()))
	r.GET("/settings", session(handlers.SettingsPage(sqlDB, cfg)))
	r.GET("/users", admin(handlers.UsersPage(sqlDB, cfg)))

	r.POST("/settings/password", session(handlers.ChangePasswordSelf(sqlDB)))
	r.POST("/settings/tokens/create", session(handlers.CreateToken(sqlDB)))
	r.POST("/settings/tokens/delete", session(handlers.DeleteToken(sqlDB)))
	r.POST("/settings/tokens/set-active", session(handlers.SetActiveToken(sqlDB)))

	r.POST("/admin/users/create", admin(handlers.CreateUser(sqlDB)))
	r.POST("/admin/users/{id}/reset-password", admin(handlers.ResetPassword(sqlDB, cfg)))
	r.POST("/admin/users/{id}/delete", admin(handlers.DeleteUser(sqlDB, cfg)))
	r.GET("/metrics", admin(handlers.MetricsHandler(nil)))

	r.POST("/api/signup", route("/api/signup", handlers.Signup(sqlDB, client)))
	r.GET("/api/drink-types", handlers.DrinkTypes())

	r.GET("/api/dashboard/stats", route("/api/dashboard/stats", session(handlers.DashboardStats(reports))))
	r.GET("/api/reports", route("/api/reports", session(handlers.Report(reports))))
	r.GET("/api/reports/export", route("/api/reports/export", session(handlers.ExportReport(reports))))
	r.GET("/api/activities/recent", route("/api/activities/recent", session(handlers.RecentActivities(reports))))

	r.POST("/api/water-intake", route("/api/water-intake", session(handlers.CreateWaterIntake(client))))
	r.DELETE("/api/water-intake/{id}", route("/api/water-intake/{id}", session(handlers.DeleteRecord(client, "water"))))
	r.POST("/api/urine-record", route("/api/urine-record", session(handlers.CreateUrineRecord(client))))
	r.DELETE("/api/urine-record/{id}", route("/api/urine-record/{id}", session(handlers.DeleteRecord(client, "urine"))))

	r.GET("/api/profile", route("/api/profile", session(handlers.GetProfile(client))))
	r.PUT("/api/profile", route("/api/profile", session(handlers.UpdateProfile(sqlDB, client))))
	r.GET("/api/settings", session(handlers.GetSettings()))
	r.PUT("/api/settings", session(handlers.UpdateSettings(sqlDB)))

	r.POST("/api/voice/link-code", session(handlers.CreateLinkCode(sqlDB)))
	r.POST("/api/voice/webhook", route("/api/voice/webhook", handlers.VoiceWebhook(sqlDB, client, reports, cfg)))

	r.GET("/v1/dashboard", route("/v1/dashboard", bearer(handlers.DashboardStats(reports))))
	r.GET("/v1/reports", route("/v1/reports", bearer(handlers.Report(reports))))
	r.GET("/v1/reports/export", route("/v1/reports/export", bearer(handlers.ExportReport(reports))))
	r.GET("/v1/activities/recent", route("/v1/activities/recent", bearer(handlers.RecentActivities(reports))))

	log.Printf("hydrolog listening on %s (backend %s, timezone %s)", cfg.ListenAddr, cfg.BackendURL, cfg.Location)
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
