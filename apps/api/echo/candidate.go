package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bolsa/core/candidate"
	"github.com/trezcool/bolsa/core/student"
)

type candidateApi struct {
	svc      *candidate.Service
	validate *validator.Validate
}

func registerCandidateAPI(g *echo.Group, svc *candidate.Service, validate *validator.Validate) {
	api := candidateApi{
		svc:      svc,
		validate: validate,
	}

	cg := g.Group("/candidates")
	cg.GET("", api.query)
	cg.POST("", api.create)
	cg.DELETE("", api.destroyMultiple)

	// detail endpoints
	dg := cg.Group("/:id", candidateMiddleware(svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/convert", api.convert)
}

func (api *candidateApi) create(ctx echo.Context) error {
	var data candidate.NewCandidate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCandidate")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	cand, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating candidate")
	}
	return ctx.JSON(http.StatusCreated, cand)
}

func (api *candidateApi) query(ctx echo.Context) error {
	filter := new(candidate.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []candidate.Candidate{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	cands, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying candidates")
	}
	if cands == nil {
		cands = []candidate.Candidate{}
	}
	return ctx.JSON(http.StatusOK, cands)
}

func (api *candidateApi) retrieve(ctx echo.Context) error {
	cand, err := contextCandidate(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cand)
}

func (api *candidateApi) update(ctx echo.Context) error {
	cand, err := contextCandidate(ctx)
	if err != nil {
		return err
	}

	var data candidate.UpdateCandidate
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCandidate")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate, cand, api.svc); err != nil {
		return err
	}

	cand, err = api.svc.Update(ctx.Request().Context(), cand, data)
	if err != nil {
		return errors.Wrap(err, "updating candidate")
	}
	return ctx.JSON(http.StatusOK, cand)
}

func (api *candidateApi) destroy(ctx echo.Context) error {
	cand, err := contextCandidate(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), cand.ID); err != nil {
		return errors.Wrap(err, "deleting candidate")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *candidateApi) destroyMultiple(ctx echo.Context) error {
	query := new(DestroyMultipleRequest)
	query.Bind(ctx)
	if len(query.IDs) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting candidates")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *candidateApi) convert(ctx echo.Context) error {
	cand, err := contextCandidate(ctx)
	if err != nil {
		return err
	}

	var data candidate.ConvertCandidate
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ConvertCandidate")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	cand, std, err := api.svc.Convert(ctx.Request().Context(), cand, data)
	if err != nil {
		return errors.Wrap(err, "converting candidate")
	}
	return ctx.JSON(http.StatusCreated, ConvertResponse{Candidate: cand, Student: std})
}

type ConvertResponse struct {
	Candidate candidate.Candidate `json:"candidate"`
	Student   student.Student     `json:"student"`
}
