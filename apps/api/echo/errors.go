package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/apsas/core"
	"github.com/trezcool/apsas/core/bundle"
	"github.com/trezcool/apsas/core/dashboard"
	"github.com/trezcool/apsas/core/report"
	"github.com/trezcool/apsas/core/session"
)

const errUpstream = "the APSAS API is unavailable"

// statusOf maps the sentinel errors of the domain to an HTTP status.
func statusOf(err error) (int, bool) {
	switch err {
	case report.ErrNoData, bundle.ErrEmptyArchive:
		return http.StatusUnprocessableEntity, true
	case dashboard.ErrUnknownReport, dashboard.ErrTemplateNotFound, session.ErrNotFound:
		return http.StatusNotFound, true
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}
		req := ctx.Request()
		reqInfo := map[string]interface{}{"method": req.Method, "path": req.URL.Path}

		cause := errors.Cause(err)
		if status, ok := statusOf(cause); ok {
			code = status
			message = err.Error()
			if code == http.StatusUnprocessableEntity {
				logger.Warn(err.Error(), nil, reqInfo)
			}
		} else {
			switch origErr := cause.(type) {
			case *echo.HTTPError:
				if origErr.Internal != nil {
					if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
						origErr = herr
					}
				}
				code = origErr.Code
				message = origErr.Message
			case validator.ValidationErrors:
				code = http.StatusBadRequest
				message = core.TranslateErrors(origErr, translator)
			case *core.ValidationError:
				if origErr.Fields != nil {
					fldErrs := make(map[string]string, len(origErr.Fields))
					for _, fErr := range origErr.Fields {
						fldErrs[fErr.Field] = fErr.Error
					}
					message = fldErrs
				} else {
					message = origErr.Error()
				}
				code = http.StatusBadRequest
			case *core.UpstreamError:
				code = http.StatusBadGateway
				message = errUpstream + ": " + origErr.Error()
				logger.Warn(errUpstream, err, reqInfo)
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg
				logger.Error(msg, errors.Wrap(err, msg), reqInfo)

				if ctx.Echo().Debug {
					message = err.Error()
				}

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if req.Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
