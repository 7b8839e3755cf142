package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// organizerMiddleware gates a route to the organizer role.
func organizerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsOrganizer {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// participantMiddleware gates a route to the participant role.
func participantMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsParticipant {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
