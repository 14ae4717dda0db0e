package echoapi

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/whenitsdone1/capstone2024/core"
)

// adminMiddleware keeps admin views out of caches and logs who looked at them.
func adminMiddleware(logger core.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctx.Response().Header().Set("Cache-Control", "no-store")
			logger.Info(fmt.Sprintf("admin view %s from %s", ctx.Request().URL.Path, ctx.RealIP()))
			return next(ctx)
		}
	}
}
