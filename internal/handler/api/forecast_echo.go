package api

import (
	"context"
	"errors"
	"strings"

	"FinBot/internal/domain/models"
	domrepo "FinBot/internal/domain/repository"
	"FinBot/internal/usecase"
	xhttp "FinBot/pkg/http"
	xlogger "FinBot/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Forecasts is the usecase surface behind the JSON endpoints.
type Forecasts interface {
	ForecastSeries(ctx context.Context, model, ticker string, col models.Column, frame domrepo.Frame) (*models.ForecastResult, error)
}

var _ Forecasts = (*usecase.Commands)(nil)

type ForecastRequest struct {
	Model     string `param:"model" validate:"oneof=arima ets ces theta"`
	Ticker    string `query:"ticker" default:"AAPL" validate:"required,max=12,printascii"`
	Col       string `query:"col" default:"Close" validate:"oneof=Open High Low Close"`
	Timeframe string `query:"timeframe" default:"week" validate:"oneof=day week month year"`
}

type ForecastPoint struct {
	Date string  `json:"ds"`
	Mean float64 `json:"mean"`
	Lo   float64 `json:"lo"`
	Hi   float64 `json:"hi"`
}

type ForecastResponse struct {
	Ticker string          `json:"ticker"`
	Model  string          `json:"model"`
	Label  string          `json:"label"`
	Column string          `json:"column"`
	Level  float64         `json:"level"`
	Points []ForecastPoint `json:"points"`
}

// ForecastEchoHandler exposes the forecasters over HTTP.
type ForecastEchoHandler struct {
	logger *xlogger.Logger
	fc     Forecasts
}

func NewForecastEchoHandler(logger *xlogger.Logger, fc Forecasts) *ForecastEchoHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &ForecastEchoHandler{logger: logger, fc: fc}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/forecast/:model", h.Forecast)
}

func (h *ForecastEchoHandler) Forecast(c echo.Context) error {
	req := &ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ticker := strings.ToUpper(req.Ticker)

	res, err := h.fc.ForecastSeries(c.Request().Context(), req.Model, ticker, models.Column(req.Col), domrepo.Frame(req.Timeframe))
	if err != nil {
		h.logger.Error("forecast usecase error",
			xlogger.String("model", req.Model),
			xlogger.String("ticker", ticker),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, toAppError(err))
	}

	out := ForecastResponse{
		Ticker: res.Ticker,
		Model:  res.Model,
		Label:  res.Label,
		Column: string(res.Column),
		Level:  res.Level,
		Points: make([]ForecastPoint, len(res.Points)),
	}
	for i, p := range res.Points {
		out.Points[i] = ForecastPoint{Date: p.Date.Format("2006-01-02"), Mean: p.Mean, Lo: p.Lo, Hi: p.Hi}
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, out)
}

func toAppError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrNoData):
		return xhttp.NotFoundErrorf("%s", usecase.UserMessage(err)).WithError(err)
	case errors.Is(err, usecase.ErrInvalidArgs), errors.Is(err, usecase.ErrNotEnoughHistory):
		return xhttp.BadRequestErrorf("%s", usecase.UserMessage(err)).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.UnavailableError(usecase.UserMessage(err)).WithError(err)
	default:
		return err
	}
}

var _ xhttp.Handler = (*ForecastEchoHandler)(nil)
