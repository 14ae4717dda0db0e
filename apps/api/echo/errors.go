package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/whenitsdone1/capstone2024/core"
	"github.com/whenitsdone1/capstone2024/core/milestone"
	"github.com/whenitsdone1/capstone2024/services/spreadsheet"
)

const routeNotFoundMessage = "Requested resource was not found on the server"

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == echo.ErrNotFound {
				code = http.StatusNotFound
				message = echo.Map{"Error": routeNotFoundMessage}
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case *core.ValidationError:
			code = http.StatusBadRequest
			if flds := origErr.FieldMap(); flds != nil {
				message = echo.Map{"error": origErr.Error(), "fields": flds}
			} else {
				message = origErr.Error()
			}
		case *milestone.BackendError:
			code = origErr.Status
			message = echo.Map{"error": "Backend request failed", "details": origErr.Body}
		default:
			switch cause {
			case milestone.ErrNoActiveMilestone:
				code = http.StatusBadRequest
				message = echo.Map{"message": cause.Error()}
			case milestone.ErrNotFound:
				code = http.StatusNotFound
				message = cause.Error()
			case milestone.ErrUnknownMilestone, milestone.ErrMissingDate, milestone.ErrInvalidDateFormat,
				spreadsheet.ErrNoFile, spreadsheet.ErrNoFilename, spreadsheet.ErrInvalidExtension, spreadsheet.ErrEmptySheet:
				code = http.StatusBadRequest
				message = cause.Error()
			default: // any other error is a server error, auth failures included
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				logger.Error(fmt.Sprintf("%s %s: %v", ctx.Request().Method, ctx.Request().URL.Path, err), errors.Wrap(err, msg))

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if code != http.StatusInternalServerError {
			logger.Warn(fmt.Sprintf("%s %s: %d %v", ctx.Request().Method, ctx.Request().URL.Path, code, err))
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
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
