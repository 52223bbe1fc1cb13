package helpers

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// RolesRequired only lets principals holding one of the given roles through.
func RolesRequired(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := GetContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(ctx)
				}
			}
			return ErrHTTPForbidden
		}
	}
}
