package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func adminMiddleware() echo.MiddlewareFunc {
	return rolesMiddleware()
}

// rolesMiddleware allows admins plus any of the given roles.
func rolesMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

// selfOrRolesMiddleware allows admins, any of the given roles, or the user
// whose ID matches the ":id" path parameter.
func selfOrRolesMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(ctx)
				}
			}
			if id, err := intParam(ctx, "id"); err == nil && id == claims.UserID() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
