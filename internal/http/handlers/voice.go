package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hydrolog/internal/backend"
	"hydrolog/internal/config"
	dbpkg "hydrolog/internal/db"
	"hydrolog/internal/hydration"
)

const (
	defaultVoiceWaterMl = 250
	maxVoiceWaterMl     = 10000
	maxVoiceFrequency   = 50
	voiceNote           = "Logged by voice assistant"
)

// Voice outcomes stored on VoiceEvent.
const (
	outcomeOK       = "ok"
	outcomeUnlinked = "unlinked"
	outcomeDisabled = "disabled"
	outcomeInvalid  = "invalid"
	outcomeFailed   = "failed"
)

type voiceSlot struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type voiceIdentity struct {
	Application struct {
		ApplicationID string `json:"applicationId"`
	} `json:"application"`
	User struct {
		UserID string `json:"userId"`
	} `json:"user"`
}

type voiceRequest struct {
	Version string        `json:"version"`
	Session voiceIdentity `json:"session"`
	Context struct {
		System voiceIdentity `json:"System"`
	} `json:"context"`
	Request struct {
		Type      string `json:"type"`
		RequestID string `json:"requestId"`
		Intent    *struct {
			Name  string               `json:"name"`
			Slots map[string]voiceSlot `json:"slots"`
		} `json:"intent"`
	} `json:"request"`
}

func (r *voiceRequest) applicationID() string {
	if id := r.Session.Application.ApplicationID; id != "" {
		return id
	}
	return r.Context.System.Application.ApplicationID
}

func (r *voiceRequest) userID() string {
	if id := r.Session.User.UserID; id != "" {
		return id
	}
	return r.Context.System.User.UserID
}

func (r *voiceRequest) slot(name string) string {
	if r.Request.Intent == nil {
		return ""
	}
	return strings.TrimSpace(r.Request.Intent.Slots[name].Value)
}

type outputSpeech struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type voiceResponse struct {
	Version  string `json:"version"`
	Response struct {
		OutputSpeech     outputSpeech `json:"outputSpeech"`
		ShouldEndSession bool         `json:"shouldEndSession"`
	} `json:"response"`
}

func speak(ctx *fasthttp.RequestCtx, code int, text string, endSession bool) {
	var resp voiceResponse
	resp.Version = "1.0"
	resp.Response.OutputSpeech = outputSpeech{Type: "PlainText", Text: text}
	resp.Response.ShouldEndSession = endSession
	jsonResponse(ctx, code, resp)
}

// voiceReply is what an intent handler decided to say.
type voiceReply struct {
	text    string
	end     bool
	outcome string
	account *dbpkg.Account
}

// voiceService handles the intents of one webhook.
type voiceService struct {
	db      *gorm.DB
	backend Backend
	reports Reports
	now     func() time.Time
}

// account resolves the linked account, or the reply explaining why not.
func (v *voiceService) account(externalUserID string) (*dbpkg.Account, *voiceReply) {
	a, err := dbpkg.AccountForVoiceUser(v.db, externalUserID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("voice: lookup %s: %v", externalUserID, err)
			return nil, &voiceReply{text: "Sorry, something went wrong. Please try again later.", end: true, outcome: outcomeFailed}
		}
		return nil, &voiceReply{
			text:    "You need to link your account first. Open the app, create a voice link code and say: link account with code, followed by the code.",
			end:     true,
			outcome: outcomeUnlinked,
		}
	}
	if !a.VoiceEnabled {
		return nil, &voiceReply{text: "Voice logging is turned off for your account. You can enable it in the app settings.", end: true, outcome: outcomeDisabled, account: a}
	}
	if a.BackendUserID == "" {
		return nil, &voiceReply{text: "Your account is not ready to log records yet.", end: true, outcome: outcomeFailed, account: a}
	}
	return a, nil
}

func (v *voiceService) registerWater(parent context.Context, r *voiceRequest) voiceReply {
	a, deny := v.account(r.userID())
	if deny != nil {
		return *deny
	}
	amount := defaultVoiceWaterMl
	if s := r.slot("amount"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			amount = -1
		} else {
			amount = n
		}
	}
	if amount < 1 || amount > maxVoiceWaterMl {
		return voiceReply{text: "Please say an amount between 1 and 10,000 milliliters.", end: true, outcome: outcomeInvalid, account: a}
	}

	rctx, cancel := requestContext(parent)
	defer cancel()
	_, err := logWater(rctx, v.backend, backend.WaterInput{
		DrinkTypeID: defaultDrinkType,
		AmountMl:    amount,
		Notes:       voiceNote,
		UserID:      a.BackendUserID,
		Source:      string(hydration.SourceVoice),
	})
	if err != nil {
		log.Printf("voice: water for account %d: %v", a.ID, err)
		return voiceReply{text: "I couldn't log the water. Please try again.", end: true, outcome: outcomeFailed, account: a}
	}
	return voiceReply{text: fmt.Sprintf("Done! I logged %d milliliters of water. Keep it up!", amount), end: true, outcome: outcomeOK, account: a}
}

func (v *voiceService) registerUrine(parent context.Context, r *voiceRequest) voiceReply {
	a, deny := v.account(r.userID())
	if deny != nil {
		return *deny
	}
	freq := 1
	if s := r.slot("frequency"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			freq = -1
		} else {
			freq = n
		}
	}
	if freq < 1 || freq > maxVoiceFrequency {
		return voiceReply{text: "Please say a frequency between 1 and 50 times.", end: true, outcome: outcomeInvalid, account: a}
	}

	rctx, cancel := requestContext(parent)
	defer cancel()
	_, err := logUrination(rctx, v.backend, backend.UrineInput{
		Frequency: freq,
		Notes:     voiceNote,
		UserID:    a.BackendUserID,
		Source:    string(hydration.SourceVoice),
	})
	if err != nil {
		log.Printf("voice: urine for account %d: %v", a.ID, err)
		return voiceReply{text: "I couldn't log that. Please try again.", end: true, outcome: outcomeFailed, account: a}
	}
	times := "times"
	if freq == 1 {
		times = "time"
	}
	return voiceReply{text: fmt.Sprintf("Got it! I logged %d %s. Thanks for keeping track!", freq, times), end: true, outcome: outcomeOK, account: a}
}

func (v *voiceService) checkProgress(parent context.Context, r *voiceRequest) voiceReply {
	a, deny := v.account(r.userID())
	if deny != nil {
		return *deny
	}
	rctx, cancel := requestContext(parent)
	defer cancel()
	sum, err := v.reports.Dashboard(rctx, a.BackendUserID, a.GoalPolicy())
	if err != nil {
		log.Printf("voice: progress for account %d: %v", a.ID, err)
		return voiceReply{text: "I couldn't check your progress. Please try again.", end: true, outcome: outcomeFailed, account: a}
	}
	return voiceReply{text: ProgressSpeech(sum), end: true, outcome: outcomeOK, account: a}
}

// ProgressSpeech phrases today's summary for a voice answer.
func ProgressSpeech(sum hydration.DashboardSummary) string {
	text := fmt.Sprintf("Today you drank %d milliliters of water. ", sum.TodayWater)
	if sum.Progress >= hydration.AchievedThreshold {
		return text + fmt.Sprintf("Congratulations! You reached %d%% of your daily goal!", sum.Progress)
	}
	remaining := max(sum.DailyGoal-sum.TodayWater, 0)
	return text + fmt.Sprintf("That is %d%% of your %d milliliter goal. %d milliliters to go. Keep drinking!", sum.Progress, sum.DailyGoal, remaining)
}

func (v *voiceService) linkAccount(r *voiceRequest) voiceReply {
	code := strings.ReplaceAll(r.slot("code"), " ", "")
	if code == "" {
		return voiceReply{text: "Please say the six digit code shown in the app.", end: false, outcome: outcomeInvalid}
	}
	a, err := dbpkg.RedeemLinkCode(v.db, code, r.userID(), v.now())
	if err != nil {
		if errors.Is(err, dbpkg.ErrInvalidLinkCode) {
			return voiceReply{text: "That code is invalid or has expired. Please create a new one in the app.", end: true, outcome: outcomeInvalid}
		}
		log.Printf("voice: link %s: %v", r.userID(), err)
		return voiceReply{text: "Sorry, I couldn't link your account. Please try again.", end: true, outcome: outcomeFailed}
	}
	return voiceReply{text: fmt.Sprintf("Your account is linked, %s! You can now log water by voice.", a.DisplayName()), end: true, outcome: outcomeOK, account: a}
}

func (v *voiceService) intent(parent context.Context, r *voiceRequest) voiceReply {
	name := ""
	if r.Request.Intent != nil {
		name = r.Request.Intent.Name
	}
	switch name {
	case "RegisterWaterIntent":
		return v.registerWater(parent, r)
	case "RegisterUrineIntent":
		return v.registerUrine(parent, r)
	case "CheckProgressIntent":
		return v.checkProgress(parent, r)
	case "LinkAccountIntent":
		return v.linkAccount(r)
	case "AMAZON.HelpIntent":
		return voiceReply{text: "You can say: log 250 milliliters of water, log a bathroom visit, or check my progress.", end: false, outcome: outcomeOK}
	case "AMAZON.StopIntent", "AMAZON.CancelIntent":
		return voiceReply{text: "Goodbye! Stay hydrated!", end: true, outcome: outcomeOK}
	default:
		return voiceReply{text: "Sorry, I didn't get that. Try saying: log water, or check my progress.", end: true, outcome: outcomeInvalid}
	}
}

// VoiceWebhook answers voice assistant requests.
func VoiceWebhook(db *gorm.DB, b Backend, reports Reports, cfg *config.Config) fasthttp.RequestHandler {
	v := &voiceService{db: db, backend: b, reports: reports, now: time.Now}
	return func(ctx *fasthttp.RequestCtx) {
		var req voiceRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			speak(ctx, fasthttp.StatusBadRequest, "Sorry, I couldn't read that request.", true)
			return
		}
		if cfg.VoiceSkillID == "" {
			speak(ctx, fasthttp.StatusBadRequest, "The skill is not configured.", true)
			return
		}
		if req.applicationID() != cfg.VoiceSkillID {
			log.Printf("voice: rejected application id %q", req.applicationID())
			speak(ctx, fasthttp.StatusForbidden, "This skill is not allowed here.", true)
			return
		}

		switch req.Request.Type {
		case "LaunchRequest":
			speak(ctx, fasthttp.StatusOK, "Welcome to Hydrolog! You can say: log water, log a bathroom visit, or check my progress.", false)
		case "IntentRequest":
			reply := v.intent(ctx, &req)
			v.record(&req, reply, cfg.VoiceRetentionDays)
			speak(ctx, fasthttp.StatusOK, reply.text, reply.end)
		case "SessionEndedRequest":
			speak(ctx, fasthttp.StatusOK, "Bye!", true)
		default:
			speak(ctx, fasthttp.StatusOK, "Unrecognized request type.", true)
		}
	}
}

func (v *voiceService) record(r *voiceRequest, reply voiceReply, retentionDays int) {
	slots := datatypes.JSONMap{}
	ev := &dbpkg.VoiceEvent{
		CreatedAt:      v.now(),
		ExternalUserID: r.userID(),
		RequestType:    r.Request.Type,
		Outcome:        reply.outcome,
		Slots:          slots,
	}
	if r.Request.Intent != nil {
		ev.Intent = r.Request.Intent.Name
		for name, s := range r.Request.Intent.Slots {
			if s.Value != "" {
				slots[name] = s.Value
			}
		}
	}
	if reply.account != nil {
		id := reply.account.ID
		ev.AccountID = &id
	}
	if err := dbpkg.RecordVoiceEvent(v.db, ev, retentionDays); err != nil {
		log.Printf("voice: record event: %v", err)
	}
}

// CreateLinkCode issues a code the user speaks to the assistant.
func CreateLinkCode(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		account, ok := MustAccount(ctx)
		if !ok {
			return
		}
		lc, err := dbpkg.IssueLinkCode(db, account.ID, time.Now())
		if err != nil {
			jsonError(ctx, fasthttp.StatusInternalServerError, "failed to create link code")
			return
		}
		jsonResponse(ctx, fasthttp.StatusCreated, map[string]any{
			"code":      lc.Code,
			"expiresAt": lc.ExpiresAt,
		})
	}
}
