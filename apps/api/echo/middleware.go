package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/monitor"
)

// claimsMiddleware only lets through the requests whose claims satisfy allowed.
func claimsMiddleware(allowed func(ctx echo.Context, claims Claims) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if allowed(ctx, claims) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return claimsMiddleware(func(ctx echo.Context, claims Claims) bool {
		return claims.IsAdmin && contextHasAnyRole(ctx, roles)
	})
}

// facultyMiddleware lets teachers & admins through.
func facultyMiddleware() echo.MiddlewareFunc {
	return claimsMiddleware(func(_ echo.Context, claims Claims) bool {
		return claims.IsTeacher || claims.IsAdmin
	})
}

func teacherMiddleware() echo.MiddlewareFunc {
	return claimsMiddleware(func(_ echo.Context, claims Claims) bool {
		return claims.IsTeacher
	})
}

func studentMiddleware() echo.MiddlewareFunc {
	return claimsMiddleware(func(_ echo.Context, claims Claims) bool {
		return claims.IsStudent
	})
}

// monitorMiddleware runs the caller through the gate before any monitor form is read or submitted.
// The claims are not trusted: the monitor flag may have changed since the token was issued.
func monitorMiddleware(gate *monitor.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			auth, err := gate.Authorize(ctx.Request().Context(), claims.Subject)
			if err != nil {
				return errors.Wrap(err, "authorizing monitor")
			}
			if err = auth.Err(); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}
