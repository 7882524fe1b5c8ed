package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireLogin resolves the caller's identity from the access token and puts
// it on the echo context. Authorization beyond identity (ownership, admin
// role) is the order service's job.
func RequireLogin(jwtSecret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := GetID(c, jwtSecret)
			if err != nil {
				return err
			}
			c.Set("userID", userID)
			return next(c)
		}
	}
}

// CallerID returns the identity stored by RequireLogin.
func CallerID(c echo.Context) (uint, error) {
	id, ok := c.Get("userID").(uint)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}
	return id, nil
}
