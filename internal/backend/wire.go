package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"hydrolog/internal/hydration"
)

// flexID accepts ids encoded either as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// wireTime accepts RFC 3339 strings, epoch milliseconds and zone-less ISO
// strings. A zone-less value is wall-clock time in the backend's zone, so it
// is kept floating until in() pins it to a location.
type wireTime struct {
	t        time.Time
	floating bool
}

func (w *wireTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*w = wireTime{}
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] != '"' {
		ms, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return fmt.Errorf("timestamp %s: %w", b, err)
		}
		w.t = time.UnixMilli(ms)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			w.t = t
			return nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			w.t, w.floating = t, true
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// in resolves a floating wall-clock time in loc. Zoned times are returned
// unchanged.
func (w wireTime) in(loc *time.Location) time.Time {
	if !w.floating || loc == nil {
		return w.t
	}
	t := w.t
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// decodeItems reads a list that may come bare or wrapped in "items" or
// "content" (paged responses).
func decodeItems(body []byte, v any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	if body[0] == '[' {
		return json.Unmarshal(body, v)
	}
	var page struct {
		Items   json.RawMessage `json:"items"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return err
	}
	switch {
	case len(page.Items) > 0 && string(page.Items) != "null":
		return json.Unmarshal(page.Items, v)
	case len(page.Content) > 0 && string(page.Content) != "null":
		return json.Unmarshal(page.Content, v)
	}
	return nil
}

type waterRecord struct {
	SK          flexID   `json:"SK"`
	ID          flexID   `json:"id"`
	AmountMl    int      `json:"quantidadeLiquidoMl"`
	Timestamp   wireTime `json:"timestamp"`
	Notes       string   `json:"observacoes"`
	DrinkTypeID int      `json:"tipoLiquidoId"`
	Source      string   `json:"origem"`
}

func (r waterRecord) event(loc *time.Location) hydration.WaterEvent {
	id := r.SK
	if id == "" {
		id = r.ID
	}
	return hydration.WaterEvent{
		ID:        string(id),
		AmountMl:  r.AmountMl,
		Timestamp: r.Timestamp.in(loc),
		Notes:     r.Notes,
		Source:    hydration.ParseSource(r.Source),
	}
}

type urineRecord struct {
	SK        flexID   `json:"SK"`
	ID        flexID   `json:"id"`
	VolumeMl  *int     `json:"quantidadeUrinaMl"`
	Frequency int      `json:"frequencia"`
	Timestamp wireTime `json:"timestamp"`
	Notes     string   `json:"observacoes"`
	Source    string   `json:"origem"`
}

func (r urineRecord) event(loc *time.Location) hydration.UrinationEvent {
	id := r.SK
	if id == "" {
		id = r.ID
	}
	freq := r.Frequency
	if freq <= 0 {
		freq = 1
	}
	return hydration.UrinationEvent{
		ID:        string(id),
		VolumeMl:  r.VolumeMl,
		Frequency: freq,
		Timestamp: r.Timestamp.in(loc),
		Notes:     r.Notes,
		Source:    hydration.ParseSource(r.Source),
	}
}

// User is the backend's user record.
type User struct {
	ID            flexID   `json:"id"`
	FirstName     string   `json:"firstName"`
	LastName      string   `json:"lastName"`
	Email         string   `json:"email"`
	Weight        *float64 `json:"weight"`
	Age           *int     `json:"age"`
	Height        *float64 `json:"height"`
	ActivityLevel string   `json:"activityLevel"`
}

// UserID returns the backend identifier as a string.
func (u User) UserID() string { return string(u.ID) }

// Profile maps the user onto the goal inputs.
func (u User) Profile() hydration.Profile {
	return hydration.Profile{
		WeightKg:      u.Weight,
		AgeYears:      u.Age,
		HeightCm:      u.Height,
		ActivityLevel: hydration.ParseActivityLevel(u.ActivityLevel),
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
	}
}

// UserInput is the body of user create and update calls.
type UserInput struct {
	FirstName     string   `json:"firstName"`
	LastName      string   `json:"lastName"`
	Email         string   `json:"email"`
	Weight        *float64 `json:"weight,omitempty"`
	Age           *int     `json:"age,omitempty"`
	Height        *float64 `json:"height,omitempty"`
	ActivityLevel string   `json:"activityLevel,omitempty"`
}

// WaterInput is a new intake record.
type WaterInput struct {
	DrinkTypeID int    `json:"tipoLiquidoId"`
	AmountMl    int    `json:"quantidadeLiquidoMl"`
	Notes       string `json:"observacoes,omitempty"`
	UserID      string `json:"usuarioId"`
	Source      string `json:"origem,omitempty"`
}

// UrineInput is a new urination record.
type UrineInput struct {
	VolumeMl    int    `json:"quantidadeUrinaMl,omitempty"`
	Frequency   int    `json:"frequencia"`
	UrineTypeID int    `json:"urineType,omitempty"`
	Notes       string `json:"observacoes,omitempty"`
	UserID      string `json:"usuarioId"`
	Source      string `json:"origem,omitempty"`
}
