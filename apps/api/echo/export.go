package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/apsas/core"
	"github.com/trezcool/apsas/core/bundle"
	"github.com/trezcool/apsas/core/dashboard"
	"github.com/trezcool/apsas/core/report"
)

const (
	HeaderExportFailures = "X-Export-Failures"
	HeaderBundleFailures = "X-Bundle-Failures"

	zipContentType = "application/zip"
)

type exportApi struct {
	dashboard *dashboard.Service
	exporter  report.Writer
	bundler   *bundle.Builder
	logger    core.Logger
	now       func() time.Time
}

func registerExportAPI(g *echo.Group, api exportApi) {
	g.GET("/reports/:name", api.report)
	g.GET("/templates/:id/bundle", api.bundle)
}

func attachment(ctx echo.Context, filename string) {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
}

func (api *exportApi) report(ctx echo.Context) error {
	f, err := bind[dashboard.ReportFilter](ctx)
	if err != nil {
		return err
	}
	wb, err := api.dashboard.Report(ctx.Request().Context(), ctx.Param("name"), f)
	if err != nil {
		return errors.Wrap(err, "building report")
	}
	for _, fl := range wb.Failures {
		api.logger.Warn("export: "+wb.Name+": "+fl.Section, fl.Err)
	}

	var buf bytes.Buffer
	if err = api.exporter.Write(&buf, wb); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	attachment(ctx, wb.Filename(api.now()))
	ctx.Response().Header().Set(HeaderExportFailures, strconv.Itoa(len(wb.Failures)))
	return ctx.Blob(http.StatusOK, api.exporter.ContentType(), buf.Bytes())
}

func (api *exportApi) bundle(ctx echo.Context) error {
	f, err := bind[dashboard.BundleFilter](ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	req, err := api.dashboard.BundleRequest(reqCtx, f)
	if err != nil {
		return errors.Wrap(err, "resolving bundle")
	}

	var buf bytes.Buffer
	res, err := api.bundler.Build(reqCtx, &buf, req)
	if err != nil {
		return errors.Wrap(err, "building bundle")
	}
	attachment(ctx, dashboard.TemplateName(req.Template)+".zip")
	ctx.Response().Header().Set(HeaderBundleFailures, strconv.Itoa(len(res.Failures)))
	return ctx.Blob(http.StatusOK, zipContentType, buf.Bytes())
}
