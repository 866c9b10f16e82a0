package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/apsas/core/dashboard"
)

type dashboardApi struct {
	svc *dashboard.Service
}

func registerDashboardAPI(g *echo.Group, svc *dashboard.Service) {
	api := dashboardApi{svc: svc}

	g.GET("/semesters", listHandler("semesters", svc.Semesters))
	g.GET("/classes", listHandler("classes", svc.Classes))
	g.GET("/templates", listHandler("templates", svc.Templates))
	g.GET("/accounts", listHandler("accounts", svc.Accounts))
	g.GET("/assign-requests", listHandler("assign requests", svc.AssignRequests))
	g.GET("/assessments", listHandler("assessments", svc.Assessments))
	g.GET("/grading-groups", listHandler("grading groups", svc.GradingGroups))
	g.GET("/grading-groups/:id/submissions", listHandler("submissions", svc.Submissions))

	g.GET("/dashboard/overview", api.overview)
}

func (api *dashboardApi) overview(ctx echo.Context) error {
	f, err := bind[dashboard.OverviewFilter](ctx)
	if err != nil {
		return err
	}
	ov, err := api.svc.Overview(ctx.Request().Context(), f)
	if err != nil {
		return errors.Wrap(err, "computing overview")
	}
	return ctx.JSON(http.StatusOK, ov)
}
