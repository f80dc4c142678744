package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"FinBot/internal/domain/models"
	domrepo "FinBot/internal/domain/repository"
	"FinBot/internal/usecase"
	xhttp "FinBot/pkg/http"

	"github.com/labstack/echo/v4"
)

func serve(t *testing.T, h xhttp.Handler, target string) (*httptest.ResponseRecorder, xhttp.APIResponse) {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var body xhttp.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s: %v (%s)", target, err, rec.Body.String())
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	rec, _ := serve(t, NewHealthHandler(nil, map[string]Check{"discord": down}), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}

	rec, _ = serve(t, NewHealthHandler(nil, map[string]Check{"discord": ok, "redis": ok}), "/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rec.Code)
	}

	rec, _ = serve(t, NewHealthHandler(nil, map[string]Check{"discord": ok, "clickhouse": down}), "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing check = %d", rec.Code)
	}
}

type fakeForecasts struct {
	res  *models.ForecastResult
	err  error
	call string
}

func (f *fakeForecasts) ForecastSeries(_ context.Context, model, ticker string, col models.Column, frame domrepo.Frame) (*models.ForecastResult, error) {
	f.call = fmt.Sprintf("%s %s %s %s", model, ticker, col, frame)
	return f.res, f.err
}

func TestForecastEndpoint(t *testing.T) {
	day := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	fc := &fakeForecasts{res: &models.ForecastResult{
		Model:  "theta",
		Label:  "AutoTheta",
		Ticker: "MSFT",
		Column: models.ColHigh,
		Level:  90,
		Points: []models.ForecastPoint{{Date: day, Mean: 410.5, Lo: 400, Hi: 420}},
	}}
	h := NewForecastEchoHandler(nil, fc)

	rec, body := serve(t, h, "/api/forecast/theta?ticker=msft&col=High")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if fc.call != "theta MSFT High week" {
		t.Fatalf("usecase called with %q", fc.call)
	}
	data, _ := json.Marshal(body.Data)
	var out ForecastResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(out.Points) != 1 || out.Points[0].Date != "2024-03-11" || out.Label != "AutoTheta" {
		t.Fatalf("response = %+v", out)
	}
}

func TestForecastEndpointErrors(t *testing.T) {
	cases := map[string]struct {
		target string
		err    error
		code   int
	}{
		"unknown model":  {"/api/forecast/prophet", nil, http.StatusBadRequest},
		"bad column":     {"/api/forecast/ets?col=Volume", nil, http.StatusBadRequest},
		"no data":        {"/api/forecast/ets?ticker=ZZZZ", fmt.Errorf("ets ZZZZ: %w", usecase.ErrNoData), http.StatusNotFound},
		"short history":  {"/api/forecast/arima", usecase.ErrNotEnoughHistory, http.StatusBadRequest},
		"provider crash": {"/api/forecast/ces", errors.New("upstream 500"), http.StatusInternalServerError},
	}
	for name, tc := range cases {
		h := NewForecastEchoHandler(nil, &fakeForecasts{err: tc.err})
		rec, _ := serve(t, h, tc.target)
		if rec.Code != tc.code {
			t.Fatalf("%s: status = %d, want %d", name, rec.Code, tc.code)
		}
	}
}
