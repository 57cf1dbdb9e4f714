package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/censo/core"
	"github.com/trezcool/censo/core/census"
	exportsvc "github.com/trezcool/censo/services/export"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "administrador não autenticado")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "usuário ou senha inválidos")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "o prazo para renovar a sessão expirou")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permissão negada")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "não encontrado")
	errDraftNotFound        = echo.NewHTTPError(http.StatusNotFound, "rascunho não encontrado ou expirado")
	errExportFailed         = echo.NewHTTPError(http.StatusInternalServerError, "falha ao exportar os dados")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
func newAppHTTPErrorHandler(
	logger core.Logger,
	translator ut.Translator,
	contextClaims func(echo.Context) (Claims, error),
) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				} else if origErr.Code >= http.StatusInternalServerError {
					logger.Error(errors.Cause(err).Error(), origErr.Internal, contextPerson(ctx, contextClaims))
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
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
		default:
			switch origErr {
			case census.ErrDraftNotFound:
				code, message = errDraftNotFound.Code, errDraftNotFound.Message
			case census.ErrNotFound:
				code, message = errHttpNotFound.Code, errHttpNotFound.Message
			case exportsvc.ErrUnknownFormat:
				code, message = http.StatusBadRequest, origErr.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				logger.Error(msg, errors.Wrap(err, msg), contextPerson(ctx, contextClaims))
			}
		}

		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
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

func contextPerson(ctx echo.Context, contextClaims func(echo.Context) (Claims, error)) core.Person {
	var p core.Person
	if claims, err := contextClaims(ctx); err == nil {
		p.ID = claims.Subject
		p.Username = claims.Username
	}
	return p
}
