package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bolsa/core/finance"
)

type financeApi struct {
	svc *finance.Service
}

func registerFinanceAPI(g *echo.Group, svc *finance.Service) {
	api := financeApi{svc: svc}

	fg := g.Group("/finance")
	fg.GET("/dashboard", api.dashboard)
	fg.GET("/rate", api.rate)
	fg.GET("/months", api.months)
	fg.GET("/draft", api.draft)
	fg.PUT("/draft", api.saveDraft)
	fg.DELETE("/draft", api.discardDraft)
	fg.POST("/recalculate", api.recalculate)
	fg.GET("/currency", api.currency)
	fg.PUT("/currency", api.setCurrency)
}

func (api *financeApi) dashboard(ctx echo.Context) error {
	dash, err := api.svc.Dashboard(ctx.Request().Context(), finance.Currency(ctx.QueryParam("currency")))
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

func (api *financeApi) rate(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, RateResponse{
		Base:         finance.USD,
		Quote:        api.svc.LocalCurrency(),
		ExchangeRate: api.svc.Rate(ctx.Request().Context()),
	})
}

func (api *financeApi) months(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Months())
}

func (api *financeApi) draft(ctx echo.Context) error {
	draft, err := api.svc.Draft(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "reading draft")
	}
	return ctx.JSON(http.StatusOK, draft)
}

func (api *financeApi) saveDraft(ctx echo.Context) error {
	var data finance.Draft
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Draft")
	}
	if err := api.svc.SaveDraft(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "saving draft")
	}
	return ctx.JSON(http.StatusOK, data)
}

func (api *financeApi) discardDraft(ctx echo.Context) error {
	if err := api.svc.DiscardDraft(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "discarding draft")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// recalculate commits the draft. On invalid input the committed parameters are kept.
func (api *financeApi) recalculate(ctx echo.Context) error {
	params, err := api.svc.Recalculate(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "committing draft")
	}
	return ctx.JSON(http.StatusOK, params)
}

func (api *financeApi) currency(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, CurrencyResponse{
		Currency: api.svc.Currency(ctx.Request().Context()),
		Options:  []finance.Currency{finance.USD, api.svc.LocalCurrency()},
	})
}

func (api *financeApi) setCurrency(ctx echo.Context) error {
	var data CurrencyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CurrencyRequest")
	}
	if err := api.svc.SetCurrency(ctx.Request().Context(), data.Currency); err != nil {
		return errors.Wrap(err, "setting currency")
	}
	return api.currency(ctx)
}

type (
	RateResponse struct {
		Base  finance.Currency `json:"base"`
		Quote finance.Currency `json:"quote"`
		finance.ExchangeRate
	}

	CurrencyRequest struct {
		Currency finance.Currency `json:"currency"`
	}

	CurrencyResponse struct {
		Currency finance.Currency   `json:"currency"`
		Options  []finance.Currency `json:"options"`
	}
)
