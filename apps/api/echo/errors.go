package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/article"
	"github.com/tkimaro/shule/core/class"
	"github.com/tkimaro/shule/core/grade"
	"github.com/tkimaro/shule/core/student"
	"github.com/tkimaro/shule/core/subject"
	"github.com/tkimaro/shule/core/teacher"
	"github.com/tkimaro/shule/core/user"
	"github.com/tkimaro/shule/core/writer"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// notFoundErrs are the domain sentinels that translate to a 404.
var notFoundErrs = []error{
	user.ErrNotFound,
	student.ErrNotFound,
	student.ErrClassNotFound,
	teacher.ErrNotFound,
	teacher.ErrSubjectNotFound,
	teacher.ErrClassNotFound,
	writer.ErrNotFound,
	class.ErrNotFound,
	subject.ErrNotFound,
	grade.ErrNotFound,
	article.ErrNotFound,
	article.ErrAuthorNotFound,
}

func isNotFound(err error) bool {
	for _, sentinel := range notFoundErrs {
		if err == sentinel {
			return true
		}
	}
	return false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch {
		case isNotFound(cause):
			code = http.StatusNotFound
			message = cause.Error()
		case cause == user.ErrInvalidToken:
			code = http.StatusBadRequest
			message = cause.Error()
		default:
			code, message = handleTypedError(err, cause, ctx, logger, signalShutdown)
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
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

func handleTypedError(err, cause error, ctx echo.Context, logger core.Logger, signalShutdown func()) (int, interface{}) {
	switch origErr := cause.(type) {
	case *echo.HTTPError:
		if origErr == middleware.ErrJWTMissing {
			return http.StatusUnauthorized, origErr.Message
		}
		if origErr.Internal != nil {
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
		}
		return origErr.Code, origErr.Message
	case validator.ValidationErrors:
		fldErrs := make(map[string]string, len(origErr))
		for _, vErr := range origErr {
			fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
		}
		return http.StatusBadRequest, fldErrs
	case *core.ValidationError:
		if origErr.Fields != nil {
			fldErrs := make(map[string]string, len(origErr.Fields))
			for _, fErr := range origErr.Fields {
				fldErrs[fErr.Field] = fErr.Error
			}
			return http.StatusBadRequest, fldErrs
		}
		return http.StatusBadRequest, origErr.Error()
	default: // any other error is a server error
		msg := http.StatusText(http.StatusInternalServerError)

		var usr user.User
		if claims, cErr := getContextClaims(ctx); cErr == nil {
			usr.ID = claims.UserID()
			usr.Username = claims.Username
			usr.Email = claims.Email
		}
		logger.Error(msg, errors.Wrap(err, msg), usr)

		// shutting down...
		if core.IsShutdown(err) {
			signalShutdown()
		}
		return http.StatusInternalServerError, msg
	}
}
