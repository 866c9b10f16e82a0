package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type (
	RefreshRequest struct {
		Prefixes []string `json:"prefixes"`
	}

	RefreshResponse struct {
		Invalidated int `json:"invalidated"`
	}
)

type cacheApi struct {
	cache CacheInvalidator
}

func registerCacheAPI(g *echo.Group, cache CacheInvalidator) {
	api := cacheApi{cache: cache}
	g.POST("/cache/refresh", api.refresh)
}

// refresh drops the cached collections matching the given key prefixes, or all of them.
func (api *cacheApi) refresh(ctx echo.Context) error {
	data, err := bind[RefreshRequest](ctx)
	if err != nil {
		return err
	}
	var n int
	if api.cache != nil {
		n = api.cache.Invalidate(data.Prefixes...)
	}
	return ctx.JSON(http.StatusOK, RefreshResponse{Invalidated: n})
}
