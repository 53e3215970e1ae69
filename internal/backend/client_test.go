package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"hydrolog/internal/hydration"
)

// newTestClient wires a Client to an in-memory fasthttp server.
func newTestClient(t *testing.T, h fasthttp.RequestHandler) *Client {
	t.Helper()
	return newTestClientIn(t, time.UTC, time.Second, h)
}

func newTestClientIn(t *testing.T, loc *time.Location, timeout time.Duration, h fasthttp.RequestHandler) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: h}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	c := New("http://backend.test/", timeout, loc)
	c.http.Dial = func(string) (net.Conn, error) { return ln.Dial() }
	return c
}

func TestListWater(t *testing.T) {
	var gotPath, gotLimit string
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		gotPath = string(ctx.Path())
		gotLimit = string(ctx.QueryArgs().Peek("limit"))
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"items":[
			{"SK":"CTRL#1","quantidadeLiquidoMl":250,"timestamp":"2024-01-01T08:00:00Z","observacoes":"breakfast"},
			{"SK":"CTRL#2","quantidadeLiquidoMl":500,"timestamp":"2024-01-01T12:00:00","origem":"alexa"}
		]}`)
	})

	got, err := c.WaterEvents(context.Background(), "42")
	if err != nil {
		t.Fatalf("WaterEvents: %v", err)
	}
	if gotPath != "/controles/usuario/42" || gotLimit != "200" {
		t.Errorf("request = %s?limit=%s", gotPath, gotLimit)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	want := hydration.WaterEvent{
		ID:        "CTRL#1",
		AmountMl:  250,
		Timestamp: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		Notes:     "breakfast",
		Source:    hydration.SourceManual,
	}
	if got[0].ID != want.ID || got[0].AmountMl != want.AmountMl || !got[0].Timestamp.Equal(want.Timestamp) || got[0].Notes != want.Notes || got[0].Source != want.Source {
		t.Errorf("event 0 = %+v, want %+v", got[0], want)
	}
	if got[1].Source != hydration.SourceVoice || !got[1].Timestamp.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("event 1 = %+v", got[1])
	}
}

func TestListWaterDateSuffixAndBareArray(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		gotPath = string(ctx.Path())
		ctx.SetBodyString(`[{"id":7,"quantidadeLiquidoMl":300,"timestamp":1704096000000}]`)
	})

	got, err := c.ListWater(context.Background(), "42", ListOptions{Date: "2024-01-01"})
	if err != nil {
		t.Fatalf("ListWater: %v", err)
	}
	if gotPath != "/controles/usuario/42/2024-01-01" {
		t.Errorf("path = %s", gotPath)
	}
	if len(got) != 1 || got[0].ID != "7" || !got[0].Timestamp.Equal(time.UnixMilli(1704096000000)) {
		t.Errorf("events = %+v", got)
	}
}

func TestListUrination(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) != "/controles/usuario/42/urina" {
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			return
		}
		ctx.SetBodyString(`{"content":[
			{"SK":"U#1","quantidadeUrinaMl":300,"timestamp":"2024-01-01T09:00:00Z"},
			{"SK":"U#2","frequencia":2,"timestamp":"2024-01-01T10:00:00Z"}
		]}`)
	})

	got, err := c.UrinationEvents(context.Background(), "42")
	if err != nil {
		t.Fatalf("UrinationEvents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events", len(got))
	}
	if got[0].VolumeMl == nil || *got[0].VolumeMl != 300 || got[0].Frequency != 1 {
		t.Errorf("event 0 = %+v", got[0])
	}
	if got[1].VolumeMl != nil || got[1].Frequency != 2 {
		t.Errorf("event 1 = %+v", got[1])
	}
}

func TestProfile(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`{"id":42,"firstName":"Ana","lastName":"Souza","weight":70,"age":65,"activityLevel":"HIGH"}`)
	})

	p, err := c.Profile(context.Background(), "42")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.ActivityLevel != hydration.ActivityHigh || p.WeightKg == nil || *p.WeightKg != 70 || p.AgeYears == nil || *p.AgeYears != 65 {
		t.Errorf("profile = %+v", p)
	}
	if goal := hydration.ComputeGoal(p.WeightKg, p.AgeYears, p.ActivityLevel); goal != 4043 {
		t.Errorf("goal = %d, want 4043", goal)
	}
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		ctx.SetBodyString("maintenance")
	})

	_, err := c.GetUser(context.Background(), "42")
	if !errors.Is(err, hydration.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err %T is not a StatusError", err)
	}
	if se.Code != fasthttp.StatusServiceUnavailable || se.Body != "maintenance" {
		t.Errorf("status error = %+v", se)
	}
}

func TestCreateWaterSendsBody(t *testing.T) {
	var got WaterInput
	var method string
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		method = string(ctx.Method())
		_ = json.Unmarshal(ctx.PostBody(), &got)
		ctx.SetStatusCode(fasthttp.StatusCreated)
		ctx.SetBodyString(`{"SK":"CTRL#9"}`)
	})

	raw, err := c.CreateWater(context.Background(), WaterInput{DrinkTypeID: 1, AmountMl: 250, UserID: "42"})
	if err != nil {
		t.Fatalf("CreateWater: %v", err)
	}
	if method != "POST" || got.AmountMl != 250 || got.UserID != "42" || got.DrinkTypeID != 1 {
		t.Errorf("request = %s %+v", method, got)
	}
	if string(raw) != `{"SK":"CTRL#9"}` {
		t.Errorf("response = %s", raw)
	}
}

func TestDeleteRecord(t *testing.T) {
	var method, path, user string
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		method = string(ctx.Method())
		path = string(ctx.Path())
		user = string(ctx.QueryArgs().Peek("usuarioId"))
		ctx.SetStatusCode(fasthttp.StatusNoContent)
	})

	if err := c.DeleteRecord(context.Background(), "42", "CTRL#1"); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if method != "DELETE" || path != "/controles/CTRL#1" || user != "42" {
		t.Errorf("request = %s %s usuarioId=%s", method, path, user)
	}
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		t.Error("request should not be sent")
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.GetUser(ctx, "1"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestZonelessTimestampsUseLocation(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)
	c := newTestClientIn(t, brt, time.Second, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`[
			{"SK":"CTRL#1","quantidadeLiquidoMl":500,"timestamp":"2024-03-02T01:30:00"},
			{"SK":"CTRL#2","quantidadeLiquidoMl":200,"timestamp":"2024-03-02T01:30:00Z"}
		]`)
	})

	got, err := c.ListWater(context.Background(), "u", ListOptions{})
	if err != nil {
		t.Fatalf("ListWater: %v", err)
	}
	if want := time.Date(2024, 3, 2, 1, 30, 0, 0, brt); !got[0].Timestamp.Equal(want) {
		t.Errorf("zone-less timestamp = %v, want %v", got[0].Timestamp, want)
	}
	if want := time.Date(2024, 3, 2, 1, 30, 0, 0, time.UTC); !got[1].Timestamp.Equal(want) {
		t.Errorf("zoned timestamp = %v, want %v", got[1].Timestamp, want)
	}

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, brt)
	end := time.Date(2024, 3, 3, 0, 0, 0, 0, brt)
	buckets := hydration.BucketEvents(got[:1], nil, start, end)
	if len(buckets) != 2 || buckets[0].TotalWaterMl != 0 || buckets[1].TotalWaterMl != 500 {
		t.Errorf("buckets = %+v, want the intake on March 2", buckets)
	}
}

func TestTimeoutReadsAsDeadline(t *testing.T) {
	c := newTestClientIn(t, time.UTC, 50*time.Millisecond, func(ctx *fasthttp.RequestCtx) {
		time.Sleep(300 * time.Millisecond)
	})
	_, err := c.ListWater(context.Background(), "u", ListOptions{})
	if !errors.Is(err, context.DeadlineExceeded) || !errors.Is(err, hydration.ErrUpstreamUnavailable) {
		t.Errorf("err = %v, want deadline exceeded and upstream unavailable", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	c = newTestClientIn(t, time.UTC, time.Second, func(ctx *fasthttp.RequestCtx) {
		time.Sleep(300 * time.Millisecond)
	})
	if _, err := c.GetUser(ctx, "1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("context deadline err = %v", err)
	}
}
