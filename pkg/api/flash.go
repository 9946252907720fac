package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo"
)

const flashCookie = "quakedb_flash"

// setFlash stores a message shown by the next rendered page
func setFlash(c echo.Context, msg string) {
	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(5 * time.Minute),
	})
}

// popFlash returns the pending message and clears it
func popFlash(c echo.Context) string {
	cookie, err := c.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}

	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	msg, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return msg
}

// redirectWithFlash answers a form post with a message for the target page
func redirectWithFlash(c echo.Context, target, msg string) error {
	setFlash(c, msg)
	return c.Redirect(http.StatusFound, target)
}
