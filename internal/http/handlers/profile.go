package handlers

import (
	"log"
	"strings"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"hydrolog/internal/backend"
	dbpkg "hydrolog/internal/db"
	"hydrolog/internal/hydration"
)

type profileResponse struct {
	backend.User
	DailyGoal int `json:"dailyGoal"`
	AutoGoal  int `json:"autoGoal"`
}

type profileRequest struct {
	FirstName     string   `json:"firstName"`
	LastName      string   `json:"lastName"`
	Email         string   `json:"email"`
	Weight        *float64 `json:"weight"`
	Age           *int     `json:"age"`
	Height        *float64 `json:"height"`
	ActivityLevel string   `json:"activityLevel"`
}

func (r profileRequest) input() backend.UserInput {
	return backend.UserInput{
		FirstName:     strings.TrimSpace(r.FirstName),
		LastName:      strings.TrimSpace(r.LastName),
		Email:         strings.TrimSpace(r.Email),
		Weight:        r.Weight,
		Age:           r.Age,
		Height:        r.Height,
		ActivityLevel: string(hydration.ParseActivityLevel(r.ActivityLevel)),
	}
}

func newProfileResponse(u backend.User, a *dbpkg.Account) profileResponse {
	p := u.Profile()
	return profileResponse{
		User:      u,
		DailyGoal: hydration.EffectiveGoal(p, a.GoalPolicy()),
		AutoGoal:  hydration.ComputeGoal(p.WeightKg, p.AgeYears, p.ActivityLevel),
	}
}

// GetProfile serves the backend profile with the effective goal.
func GetProfile(b Backend) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		account, ok := mustBackendUser(ctx)
		if !ok {
			return
		}
		rctx, cancel := requestContext(ctx)
		defer cancel()
		u, err := b.GetUser(rctx, account.BackendUserID)
		if err != nil {
			upstreamFailed(ctx, "get_profile", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, newProfileResponse(u, account))
	}
}

// UpdateProfile writes the profile to the backend and mirrors the name
// locally.
func UpdateProfile(db *gorm.DB, b Backend) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		account, ok := mustBackendUser(ctx)
		if !ok {
			return
		}
		var req profileRequest
		if !decodeJSON(ctx, &req) {
			return
		}
		in := req.input()
		if in.FirstName == "" || in.LastName == "" {
			jsonError(ctx, fasthttp.StatusBadRequest, "first and last name are required")
			return
		}
		if in.Email == "" {
			in.Email = account.Email
		}

		rctx, cancel := requestContext(ctx)
		defer cancel()
		u, err := b.UpdateUser(rctx, account.BackendUserID, in)
		if err != nil {
			writeFailed(ctx, "update_profile", "failed to update profile", err)
			return
		}
		if err := db.Model(&dbpkg.Account{}).Where("id = ?", account.ID).Updates(map[string]any{
			"first_name": in.FirstName,
			"last_name":  in.LastName,
		}).Error; err != nil {
			log.Printf("profile: mirror name for account %d: %v", account.ID, err)
		}
		account.FirstName, account.LastName = in.FirstName, in.LastName

		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"message": "profile updated",
			"user":    newProfileResponse(u, account),
		})
	}
}

// settingsPatch carries only the fields a PUT sends.
type settingsPatch struct {
	CustomGoal       *int    `json:"customGoal"`
	UseAutoGoal      *bool   `json:"useAutoGoal"`
	EnableReminders  *bool   `json:"enableReminders"`
	ReminderInterval *int    `json:"reminderInterval"`
	VoiceEnabled     *bool   `json:"voiceEnabled"`
	TelegramChatID   *int64  `json:"telegramChatId"`
	TimeFormat       *string `json:"timeFormat"`
	DateFormat       *string `json:"dateFormat"`
}

func (p settingsPatch) apply(s dbpkg.Settings) dbpkg.Settings {
	if p.CustomGoal != nil {
		s.CustomGoal = *p.CustomGoal
	}
	if p.UseAutoGoal != nil {
		s.UseAutoGoal = *p.UseAutoGoal
	}
	if p.EnableReminders != nil {
		s.EnableReminders = *p.EnableReminders
	}
	if p.ReminderInterval != nil {
		s.ReminderInterval = *p.ReminderInterval
	}
	if p.VoiceEnabled != nil {
		s.VoiceEnabled = *p.VoiceEnabled
	}
	if p.TelegramChatID != nil {
		s.TelegramChatID = *p.TelegramChatID
	}
	if p.TimeFormat != nil {
		s.TimeFormat = *p.TimeFormat
	}
	if p.DateFormat != nil {
		s.DateFormat = *p.DateFormat
	}
	return s
}

// GetSettings serves the account's preferences.
func GetSettings() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		account, ok := MustAccount(ctx)
		if !ok {
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, account.Settings())
	}
}

// UpdateSettings merges the sent fields over the current preferences.
func UpdateSettings(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		account, ok := MustAccount(ctx)
		if !ok {
			return
		}
		var patch settingsPatch
		if !decodeJSON(ctx, &patch) {
			return
		}
		s := patch.apply(account.Settings())
		if err := s.Validate(); err != nil {
			jsonError(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}
		if err := dbpkg.SaveSettings(db, account.ID, s); err != nil {
			jsonError(ctx, fasthttp.StatusInternalServerError, "failed to save settings")
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"message":  "settings saved",
			"settings": s,
		})
	}
}
