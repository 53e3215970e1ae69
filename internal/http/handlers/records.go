package handlers

import (
	"context"
	"encoding/json"
	"log"

	"github.com/valyala/fasthttp"

	"hydrolog/internal/backend"
	"hydrolog/internal/hydration"
	"hydrolog/internal/metrics"
)

// Backend is the part of the backend client used for writes and profiles.
type Backend interface {
	GetUser(ctx context.Context, userID string) (backend.User, error)
	UpdateUser(ctx context.Context, userID string, in backend.UserInput) (backend.User, error)
	CreateUser(ctx context.Context, in backend.UserInput) (backend.User, error)
	CreateWater(ctx context.Context, in backend.WaterInput) (json.RawMessage, error)
	CreateUrination(ctx context.Context, in backend.UrineInput) (json.RawMessage, error)
	DeleteRecord(ctx context.Context, userID, recordID string) error
}

// DrinkType is a catalogue entry for intake records.
type DrinkType struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// UrineType is a catalogue entry for urination records.
type UrineType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

const defaultDrinkType = 1

var drinkTypes = []DrinkType{
	{1, "Water", "Water"},
	{2, "Sparkling water", "Water"},
	{3, "Coconut water", "Water"},
	{4, "Black coffee", "Coffee"},
	{5, "Green tea", "Tea"},
	{6, "Chamomile tea", "Tea"},
	{7, "Fresh juice", "Juice"},
	{8, "Soda", "Processed"},
	{9, "Yogurt", "Dairy"},
	{10, "Isotonic drink", "Sports"},
	{11, "Energy drink", "Sports"},
	{12, "Whole milk", "Dairy"},
	{13, "Beer", "Alcohol"},
	{14, "Wine", "Alcohol"},
}

var urineTypes = []UrineType{
	{1, "Catheterism"},
	{2, "Voluntary"},
}

func knownDrinkType(id int) bool {
	for _, d := range drinkTypes {
		if d.ID == id {
			return true
		}
	}
	return false
}

func knownUrineType(id int) bool {
	for _, u := range urineTypes {
		if u.ID == id {
			return true
		}
	}
	return false
}

// DrinkTypes serves the intake and urination catalogues.
func DrinkTypes() fasthttp.RequestHandler {
	body, _ := json.Marshal(map[string]any{"drinkTypes": drinkTypes, "urineTypes": urineTypes})
	return func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("application/json")
		ctx.Response.Header.Set("Cache-Control", "max-age=3600")
		ctx.SetBody(body)
	}
}

type waterRequest struct {
	AmountMl    int    `json:"amountMl"`
	Notes       string `json:"notes"`
	DrinkTypeID int    `json:"drinkTypeId"`
}

type urineRequest struct {
	VolumeMl    int    `json:"volumeMl"`
	Frequency   int    `json:"frequency"`
	UrineTypeID int    `json:"urineTypeId"`
	Notes       string `json:"notes"`
}

// logWater writes an intake record and counts it.
func logWater(ctx context.Context, b Backend, in backend.WaterInput) (json.RawMessage, error) {
	raw, err := b.CreateWater(ctx, in)
	if err != nil {
		return nil, err
	}
	metrics.RecordsLogged.WithLabelValues("water", in.Source).Inc()
	return raw, nil
}

// logUrination writes a urination record and counts it.
func logUrination(ctx context.Context, b Backend, in backend.UrineInput) (json.RawMessage, error) {
	raw, err := b.CreateUrination(ctx, in)
	if err != nil {
		return nil, err
	}
	metrics.RecordsLogged.WithLabelValues("urine", in.Source).Inc()
	return raw, nil
}

// CreateWaterIntake proxies a new intake record to the backend.
func CreateWaterIntake(b Backend) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		account, ok := mustBackendUser(ctx)
		if !ok {
			return
		}
		var req waterRequest
		if !decodeJSON(ctx, &req) {
			return
		}
		if req.AmountMl <= 0 {
			jsonError(ctx, fasthttp.StatusBadRequest, "amount must be greater than zero")
			return
		}
		if req.DrinkTypeID == 0 {
			req.DrinkTypeID = defaultDrinkType
		}
		if !knownDrinkType(req.DrinkTypeID) {
			jsonError(ctx, fasthttp.StatusBadRequest, "unknown drink type")
			return
		}

		rctx, cancel := requestContext(ctx)
		defer cancel()
		raw, err := logWater(rctx, b, backend.WaterInput{
			DrinkTypeID: req.DrinkTypeID,
			AmountMl:    req.AmountMl,
			Notes:       req.Notes,
			UserID:      account.BackendUserID,
			Source:      string(hydration.SourceManual),
		})
		if err != nil {
			writeFailed(ctx, "create_water", "failed to save water intake", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusCreated, map[string]any{
			"message": "water intake recorded",
			"data":    raw,
		})
	}
}

// CreateUrineRecord proxies a new urination record to the backend.
func CreateUrineRecord(b Backend) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		account, ok := mustBackendUser(ctx)
		if !ok {
			return
		}
		var req urineRequest
		if !decodeJSON(ctx, &req) {
			return
		}
		if req.VolumeMl <= 0 {
			jsonError(ctx, fasthttp.StatusBadRequest, "volume must be greater than zero")
			return
		}
		if req.Frequency <= 0 {
			req.Frequency = 1
		}
		if req.UrineTypeID != 0 && !knownUrineType(req.UrineTypeID) {
			jsonError(ctx, fasthttp.StatusBadRequest, "unknown urine type")
			return
		}

		rctx, cancel := requestContext(ctx)
		defer cancel()
		raw, err := logUrination(rctx, b, backend.UrineInput{
			VolumeMl:    req.VolumeMl,
			Frequency:   req.Frequency,
			UrineTypeID: req.UrineTypeID,
			Notes:       req.Notes,
			UserID:      account.BackendUserID,
			Source:      string(hydration.SourceManual),
		})
		if err != nil {
			writeFailed(ctx, "create_urine", "failed to save urine record", err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusCreated, map[string]any{
			"message": "urine record saved",
			"data":    raw,
		})
	}
}

// DeleteRecord removes one of the account's records. kind labels the
// metrics and log lines ("water" or "urine").
func DeleteRecord(b Backend, kind string) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		account, ok := mustBackendUser(ctx)
		if !ok {
			return
		}
		id, _ := ctx.UserValue("id").(string)
		if id == "" {
			jsonError(ctx, fasthttp.StatusBadRequest, "record id required")
			return
		}

		rctx, cancel := requestContext(ctx)
		defer cancel()
		if err := b.DeleteRecord(rctx, account.BackendUserID, id); err != nil {
			writeFailed(ctx, "delete_"+kind, "failed to delete record", err)
			return
		}
		log.Printf("account %d deleted %s record %s", account.ID, kind, id)
		jsonResponse(ctx, fasthttp.StatusOK, map[string]string{"message": "record deleted"})
	}
}
