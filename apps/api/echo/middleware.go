package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/apsas/services/apsas"
)

const bearerPrefix = "Bearer "

// upstreamTokenMiddleware forwards the caller's bearer token to the APSAS API.
func upstreamTokenMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
		if len(auth) > len(bearerPrefix) && strings.EqualFold(auth[:len(bearerPrefix)], bearerPrefix) {
			req := ctx.Request()
			token := strings.TrimSpace(auth[len(bearerPrefix):])
			ctx.SetRequest(req.WithContext(apsas.WithToken(req.Context(), token)))
		}
		return next(ctx)
	}
}
