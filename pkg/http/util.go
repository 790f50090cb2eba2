package http

import (
	"github.com/labstack/echo/v4"

	xutil "COEAnalytics/pkg/util"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int { return xutil.ParseIntDefault(s, def) }

// QueryInt reads an integer query parameter, falling back to def.
func QueryInt(c echo.Context, name string, def int) int {
	return xutil.ParseIntDefault(c.QueryParam(name), def)
}

// OptionalYear maps an unset (zero) year bound to nil.
func OptionalYear(y int) *int { return xutil.IntPtr(y) }
