package echoapi

import (
	"context"
	"net/http"
	"reflect"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// bind binds the path, query and body of the request to a new F.
func bind[F any](ctx echo.Context) (F, error) {
	var f F
	if err := ctx.Bind(&f); err != nil {
		return f, errors.Wrap(err, "binding to "+reflect.TypeOf(f).Name())
	}
	return f, nil
}

// listHandler serves the rows returned by query for the filter bound from the request.
// A nil result is served as an empty list.
func listHandler[F, R any](what string, query func(context.Context, F) ([]R, error)) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		f, err := bind[F](ctx)
		if err != nil {
			return err
		}
		rows, err := query(ctx.Request().Context(), f)
		if err != nil {
			return errors.Wrap(err, "querying "+what)
		}
		if rows == nil {
			rows = []R{}
		}
		return ctx.JSON(http.StatusOK, rows)
	}
}
