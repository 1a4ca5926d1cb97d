package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bolsa/core/candidate"
	"github.com/trezcool/bolsa/core/student"
)

const objectContextKey = "object"

var errObjNotFoundInCtx = errors.New("object not found in echo.Context")

// candidateMiddleware loads the candidate named by the `:id` path param into the context.
func candidateMiddleware(svc *candidate.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			cand, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == candidate.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding candidate by ID")
			}
			ctx.Set(objectContextKey, cand)
			return next(ctx)
		}
	}
}

// studentMiddleware loads the student named by the `:id` path param into the context.
func studentMiddleware(svc *student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			std, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == student.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding student by ID")
			}
			ctx.Set(objectContextKey, std)
			return next(ctx)
		}
	}
}

func contextCandidate(ctx echo.Context) (candidate.Candidate, error) {
	cand, ok := ctx.Get(objectContextKey).(candidate.Candidate)
	if !ok {
		return candidate.Candidate{}, errors.Wrap(errObjNotFoundInCtx, "retrieving candidate from context")
	}
	return cand, nil
}

func contextStudent(ctx echo.Context) (student.Student, error) {
	std, ok := ctx.Get(objectContextKey).(student.Student)
	if !ok {
		return student.Student{}, errors.Wrap(errObjNotFoundInCtx, "retrieving student from context")
	}
	return std, nil
}
